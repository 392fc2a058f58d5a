package mysql

import (
	"context"
	"database/sql"
	"embed"

	"kms/internal/infrastructure/migrate"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func Migrate(ctx context.Context, db *sql.DB) error {
	return migrate.Apply(ctx, db, migrationsFS, "migrations")
}
