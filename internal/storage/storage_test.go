package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kms/internal/config"
	"kms/internal/domain"
	"kms/internal/infrastructure/sqlite"
	"kms/internal/testutil"
)

func TestOpen_SQLite(t *testing.T) {
	ctx := context.Background()
	cfg := config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: "file:storage_open_test?mode=memory&cache=shared",
	}

	store, err := Open(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close(ctx) })

	assert.Equal(t, config.DriverSQLite, store.Driver)
	assert.NoError(t, store.Ping(ctx))
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), config.DatabaseConfig{Driver: "postgres"}, zap.NewNop())
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestNewSQL_RepositoriesShareDatabase(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupSQLiteDB(t)
	store := NewSQL(config.DriverSQLite, db, sqlite.IsUniqueViolation, sqlite.IsTransient)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Catalog.SaveCanteen(ctx, &domain.Canteen{
		ID: "c1", Name: "Main", IsOpen: true, IsOnlineOrdersEnabled: true, MaxBulkSize: 10, CreatedAt: now, UpdatedAt: now,
	}))
	require.NoError(t, store.Orders.Insert(ctx, &domain.Order{
		ID: "o1", UserID: "u1", CanteenID: "c1", Status: domain.OrderStatusCreated, TotalAmount: 50,
		Items:     []domain.OrderItem{{MenuItemID: "m1", Name: "Dosa", Price: 50, Quantity: 1}},
		CreatedAt: now, UpdatedAt: now,
	}))
	require.NoError(t, store.Payments.Insert(ctx, &domain.Payment{
		ID: "p1", OrderID: "o1", UserID: "u1", Provider: domain.PaymentProviderMock, Amount: 50,
		Status: domain.PaymentStatusPending, CreatedAt: now, UpdatedAt: now,
	}))

	p, err := store.Payments.FindLatestByOrder(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)
	assert.False(t, store.IsTransient(assert.AnError))
}
