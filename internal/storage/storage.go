package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	catalogrepo "kms/internal/catalog/repository"
	"kms/internal/config"
	"kms/internal/domain"
	"kms/internal/infrastructure/mongodb"
	"kms/internal/infrastructure/mysql"
	"kms/internal/infrastructure/sqlite"
	orderrepo "kms/internal/order/repository"
	paymentrepo "kms/internal/payment/repository"
)

type OrderStore interface {
	Insert(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	FindByUser(ctx context.Context, userID string) ([]domain.Order, error)
	FindByCanteen(ctx context.Context, canteenID string, statuses []domain.OrderStatus) ([]domain.Order, error)
	FindAll(ctx context.Context, statuses []domain.OrderStatus) ([]domain.Order, error)
	SumCompleted(ctx context.Context, canteenID string, from, to time.Time) (float64, error)
	UpdateStatus(ctx context.Context, id string, from domain.OrderStatus, change domain.StatusChange) (*domain.Order, error)
}

type PaymentStore interface {
	Insert(ctx context.Context, p *domain.Payment) error
	FindByID(ctx context.Context, id string) (*domain.Payment, error)
	FindLatestByOrder(ctx context.Context, orderID string) (*domain.Payment, error)
	UpdateStatus(ctx context.Context, id string, from, to domain.PaymentStatus, transactionID string, at time.Time) (*domain.Payment, error)
}

type CatalogStore interface {
	FindCanteenByID(ctx context.Context, id string) (*domain.Canteen, error)
	FindMenuItemsByIDs(ctx context.Context, ids []string) ([]domain.MenuItem, error)
	SaveCanteen(ctx context.Context, c *domain.Canteen) error
	SaveMenuItem(ctx context.Context, m *domain.MenuItem) error
}

// Storage bundles the repositories of one backend.
type Storage struct {
	Driver   string
	Orders   OrderStore
	Payments PaymentStore
	Catalog  CatalogStore
	// IsTransient reports errors worth retrying on this backend.
	IsTransient func(error) bool

	ping  func(ctx context.Context) error
	close func(ctx context.Context) error
}

// Open connects to the backend named by cfg.Driver and prepares its schema: SQL migrations
// for mysql and sqlite, indexes for mongo.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*Storage, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		db, err := sqlite.NewConnection(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info("database connected", zap.String("driver", cfg.Driver), zap.String("path", cfg.SQLitePath))
		return NewSQL(cfg.Driver, db, sqlite.IsUniqueViolation, sqlite.IsTransient), nil

	case config.DriverMySQL:
		db, err := mysql.NewConnection(cfg)
		if err != nil {
			return nil, err
		}
		if err := mysql.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		logger.Info("database connected", zap.String("driver", cfg.Driver), zap.String("host", cfg.Host))
		return NewSQL(cfg.Driver, db, mysql.IsDuplicateKey, mysql.IsTransient), nil

	case config.DriverMongo:
		db, err := mongodb.NewConnection(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := mongodb.EnsureIndexes(ctx, db, logger); err != nil {
			_ = db.Client().Disconnect(context.Background())
			return nil, err
		}
		logger.Info("database connected", zap.String("driver", cfg.Driver), zap.String("database", cfg.MongoDatabase))
		return NewMongo(db), nil
	}

	return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
}

// NewSQL builds a storage over an already migrated SQL database.
func NewSQL(driver string, db *sql.DB, uniqueViolation, isTransient func(error) bool) *Storage {
	return &Storage{
		Driver:      driver,
		Orders:      orderrepo.NewSQLOrderRepository(db),
		Payments:    paymentrepo.NewSQLPaymentRepository(db, uniqueViolation),
		Catalog:     catalogrepo.NewSQLRepository(db),
		IsTransient: isTransient,
		ping:        db.PingContext,
		close:       func(context.Context) error { return db.Close() },
	}
}

// NewMongo builds a storage over a database whose indexes are in place. Writes are not retried
// here; the driver already retries them once.
func NewMongo(db *mongo.Database) *Storage {
	return &Storage{
		Driver:      config.DriverMongo,
		Orders:      orderrepo.NewMongoOrderRepository(db),
		Payments:    paymentrepo.NewMongoPaymentRepository(db),
		Catalog:     catalogrepo.NewMongoRepository(db),
		IsTransient: func(error) bool { return false },
		ping:        func(ctx context.Context) error { return mongodb.Ping(ctx, db) },
		close:       func(ctx context.Context) error { return db.Client().Disconnect(ctx) },
	}
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.ping(ctx)
}

func (s *Storage) Close(ctx context.Context) error {
	return s.close(ctx)
}
