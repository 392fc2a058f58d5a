package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"kms/internal/domain"
	"kms/internal/errors"
)

// SQLRepository reads canteens and menu items from MySQL or SQLite.
type SQLRepository struct {
	db *sql.DB
}

func NewSQLRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) FindCanteenByID(ctx context.Context, id string) (*domain.Canteen, error) {
	query := `
		SELECT id, name, location, is_open, is_online_orders_enabled, max_bulk_size, created_at, updated_at
		FROM canteens
		WHERE id = ?
	`

	var c domain.Canteen
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.Location, &c.IsOpen, &c.IsOnlineOrdersEnabled, &c.MaxBulkSize,
		&c.CreatedAt, &c.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("canteen with id %s not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying canteen by id: %w", err)
	}

	return &c, nil
}

// FindMenuItemsByIDs returns the menu items among ids that exist, in no particular order.
func (r *SQLRepository) FindMenuItemsByIDs(ctx context.Context, ids []string) ([]domain.MenuItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	query := fmt.Sprintf(`
		SELECT id, canteen_id, name, category, price, is_available, created_at, updated_at
		FROM menu_items
		WHERE id IN (%s)`,
		strings.Join(placeholders, ", "),
	)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying menu items: %w", err)
	}
	defer rows.Close()

	var items []domain.MenuItem
	for rows.Next() {
		var m domain.MenuItem
		err := rows.Scan(
			&m.ID, &m.CanteenID, &m.Name, &m.Category, &m.Price, &m.IsAvailable,
			&m.CreatedAt, &m.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning menu item row: %w", err)
		}
		items = append(items, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating menu item rows: %w", err)
	}

	return items, nil
}

// SaveCanteen inserts or replaces the canteen row. Used by the fixture loader.
func (r *SQLRepository) SaveCanteen(ctx context.Context, c *domain.Canteen) error {
	_, err := r.db.ExecContext(ctx, `
		REPLACE INTO canteens (id, name, location, is_open, is_online_orders_enabled, max_bulk_size, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Location, c.IsOpen, c.IsOnlineOrdersEnabled, c.MaxBulkSize,
		c.CreatedAt.UTC(), c.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving canteen %s: %w", c.ID, err)
	}
	return nil
}

func (r *SQLRepository) SaveMenuItem(ctx context.Context, m *domain.MenuItem) error {
	_, err := r.db.ExecContext(ctx, `
		REPLACE INTO menu_items (id, canteen_id, name, category, price, is_available, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.CanteenID, m.Name, m.Category, m.Price, m.IsAvailable,
		m.CreatedAt.UTC(), m.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving menu item %s: %w", m.ID, err)
	}
	return nil
}
