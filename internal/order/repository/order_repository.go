package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"kms/internal/domain"
	"kms/internal/errors"
)

// SQLOrderRepository stores orders in MySQL or SQLite; both accept the same "?" queries.
type SQLOrderRepository struct {
	db *sql.DB
}

func NewSQLOrderRepository(db *sql.DB) *SQLOrderRepository {
	return &SQLOrderRepository{db: db}
}

const orderColumns = `id, user_id, canteen_id, total_amount, is_bulk_order, status, pickup_code,
	pickup_code_used, special_instructions, cancelled_by, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		order       domain.Order
		status      string
		cancelledBy string
	)
	err := row.Scan(
		&order.ID, &order.UserID, &order.CanteenID, &order.TotalAmount, &order.IsBulkOrder,
		&status, &order.PickupCode, &order.PickupCodeUsed, &order.SpecialInstructions,
		&cancelledBy, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	order.Status = domain.OrderStatus(status)
	order.CancelledBy = domain.CancelledBy(cancelledBy)
	order.CreatedAt = order.CreatedAt.UTC()
	order.UpdatedAt = order.UpdatedAt.UTC()
	return &order, nil
}

func (r *SQLOrderRepository) Insert(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning order insert: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID, order.UserID, order.CanteenID, order.TotalAmount, order.IsBulkOrder,
		string(order.Status), order.PickupCode, order.PickupCodeUsed, order.SpecialInstructions,
		string(order.CancelledBy), order.CreatedAt.UTC(), order.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("inserting order: %w", err)
	}

	for i, item := range order.Items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, line_no, menu_item_id, name, price, quantity)
			VALUES (?, ?, ?, ?, ?, ?)`,
			order.ID, i, item.MenuItemID, item.Name, item.Price, item.Quantity,
		)
		if err != nil {
			return fmt.Errorf("inserting order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing order insert: %w", err)
	}
	return nil
}

func (r *SQLOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)

	order, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("order with id %s not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying order by id: %w", err)
	}

	if err := r.attachItems(ctx, []*domain.Order{order}); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *SQLOrderRepository) FindByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = ? ORDER BY created_at DESC`, userID)
}

// FindByCanteen lists a canteen's orders, newest first, restricted to statuses when non-empty.
func (r *SQLOrderRepository) FindByCanteen(ctx context.Context, canteenID string, statuses []domain.OrderStatus) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE canteen_id = ?`
	args := []any{canteenID}

	clause, statusArgs := statusFilter(statuses)
	query += clause + ` ORDER BY created_at DESC`

	return r.list(ctx, query, append(args, statusArgs...)...)
}

func (r *SQLOrderRepository) FindAll(ctx context.Context, statuses []domain.OrderStatus) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE 1 = 1`

	clause, args := statusFilter(statuses)
	query += clause + ` ORDER BY created_at DESC`

	return r.list(ctx, query, args...)
}

// SumCompleted adds up totalAmount of the canteen's COMPLETED orders whose last update
// falls in [from, to).
func (r *SQLOrderRepository) SumCompleted(ctx context.Context, canteenID string, from, to time.Time) (float64, error) {
	var total float64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(total_amount), 0)
		FROM orders
		WHERE canteen_id = ? AND status = ? AND updated_at >= ? AND updated_at < ?`,
		canteenID, string(domain.OrderStatusCompleted), from.UTC(), to.UTC(),
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("summing completed orders: %w", err)
	}
	return total, nil
}

// UpdateStatus applies change only while the stored status still equals from (and, when the
// change consumes the pickup code, while the code is unused). A missing order yields
// NotFoundError; an order whose state moved on yields ConflictError.
func (r *SQLOrderRepository) UpdateStatus(ctx context.Context, id string, from domain.OrderStatus, change domain.StatusChange) (*domain.Order, error) {
	sets := []string{"status = ?", "updated_at = ?"}
	args := []any{string(change.To), change.At.UTC()}

	if change.PickupCode != "" {
		sets = append(sets, "pickup_code = ?")
		args = append(args, change.PickupCode)
	}
	if change.ConsumePickupCode {
		sets = append(sets, "pickup_code_used = ?")
		args = append(args, true)
	}
	if change.CancelledBy != "" {
		sets = append(sets, "cancelled_by = ?")
		args = append(args, string(change.CancelledBy))
	}

	query := `UPDATE orders SET ` + strings.Join(sets, ", ") + ` WHERE id = ? AND status = ?`
	args = append(args, id, string(from))
	if change.ConsumePickupCode {
		query += ` AND pickup_code_used = ?`
		args = append(args, false)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("updating order status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		current, err := r.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, errors.NewConflictError(fmt.Sprintf("order %s is %s, expected %s", id, current.Status, from))
	}

	return r.FindByID(ctx, id)
}

func (r *SQLOrderRepository) list(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying orders: %w", err)
	}

	var orders []*domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning order row: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating order rows: %w", err)
	}
	rows.Close()

	// items are loaded after the cursor is released; SQLite runs on a single connection
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}

	out := make([]domain.Order, 0, len(orders))
	for _, o := range orders {
		out = append(out, *o)
	}
	return out, nil
}

func (r *SQLOrderRepository) attachItems(ctx context.Context, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	byID := make(map[string]*domain.Order, len(orders))
	placeholders := make([]string, len(orders))
	args := make([]any, len(orders))
	for i, o := range orders {
		byID[o.ID] = o
		placeholders[i] = "?"
		args[i] = o.ID
	}

	query := fmt.Sprintf(`
		SELECT order_id, menu_item_id, name, price, quantity
		FROM order_items
		WHERE order_id IN (%s)
		ORDER BY order_id, line_no`,
		strings.Join(placeholders, ", "),
	)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("querying order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID string
			item    domain.OrderItem
		)
		if err := rows.Scan(&orderID, &item.MenuItemID, &item.Name, &item.Price, &item.Quantity); err != nil {
			return fmt.Errorf("scanning order item row: %w", err)
		}
		if o, ok := byID[orderID]; ok {
			o.Items = append(o.Items, item)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating order item rows: %w", err)
	}
	return nil
}

func statusFilter(statuses []domain.OrderStatus) (string, []any) {
	if len(statuses) == 0 {
		return "", nil
	}
	placeholders := make([]string, len(statuses))
	args := make([]any, len(statuses))
	for i, s := range statuses {
		placeholders[i] = "?"
		args[i] = string(s)
	}
	return ` AND status IN (` + strings.Join(placeholders, ", ") + `)`, args
}
