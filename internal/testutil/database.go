package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"kms/internal/infrastructure/mongodb"
	"kms/internal/infrastructure/mysql"
	"kms/internal/infrastructure/sqlite"
)

var sqlTables = []string{"order_items", "payments", "orders", "menu_items", "canteens"}

// SetupSQLiteDB opens a private in-memory SQLite database with the schema applied.
func SetupSQLiteDB(t *testing.T) *sql.DB {
	t.Helper()

	path := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := sqlite.NewConnection(context.Background(), path)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// SetupMySQLDB connects to the MySQL test database, migrates it and empties its tables.
// It expects a database named 'kms_test' on localhost:3306 unless KMS_TEST_MYSQL_DSN is set.
func SetupMySQLDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := os.Getenv("KMS_TEST_MYSQL_DSN")
	if dsn == "" {
		dsn = "root:@tcp(localhost:3306)/kms_test?parseTime=true&loc=UTC"
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("test database not available: %v", err)
	}

	if err := mysql.Migrate(context.Background(), db); err != nil {
		db.Close()
		t.Fatalf("failed to migrate test database: %v", err)
	}

	cleanSQLTables(t, db)
	t.Cleanup(func() {
		cleanSQLTables(t, db)
		db.Close()
	})
	return db
}

func cleanSQLTables(t *testing.T, db *sql.DB) {
	for _, table := range sqlTables {
		if _, err := db.Exec(fmt.Sprintf("DELETE FROM %s", table)); err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}

// SetupMongoDB connects to KMS_TEST_MONGO_URI (default mongodb://localhost:27017), creates a
// throwaway database with the production indexes and drops it when the test ends.
func SetupMongoDB(t *testing.T) *mongo.Database {
	t.Helper()

	uri := os.Getenv("KMS_TEST_MONGO_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetServerSelectionTimeout(2*time.Second))
	if err != nil {
		t.Skipf("mongo not available: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		t.Skipf("mongo not available: %v", err)
	}

	db := client.Database("kms_test_" + uuid.NewString()[:8])
	if err := mongodb.EnsureIndexes(context.Background(), db, zap.NewNop()); err != nil {
		t.Fatalf("failed to create indexes: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})
	return db
}
