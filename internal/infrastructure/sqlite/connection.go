package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"

	"kms/internal/infrastructure/migrate"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// NewConnection opens (or creates) the SQLite database at path and applies pending migrations.
// path may be a plain file name or a "file:" URI such as "file:kms?mode=memory&cache=shared".
func NewConnection(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		path = "kms.db"
	}

	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// a single connection serialises writers; conditional updates stay race free and
	// shared-cache memory databases live as long as the pool does
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if err := migrate.Apply(ctx, db, migrationsFS, "migrations"); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func dsn(path string) string {
	params := "_loc=UTC&_busy_timeout=5000&_foreign_keys=on"
	if strings.Contains(path, "?") {
		return path + "&" + params
	}
	return path + "?" + params
}

// IsUniqueViolation reports whether err is a SQLite UNIQUE or PRIMARY KEY constraint failure.
func IsUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// IsTransient reports SQLITE_BUSY and SQLITE_LOCKED, raised when the busy timeout elapsed.
func IsTransient(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	return false
}
