package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"kms/internal/domain"
	"kms/internal/errors"
)

// SQLPaymentRepository stores payments in MySQL or SQLite. active_order_id mirrors order_id
// while the payment is PENDING or SUCCESS and is NULL otherwise; its unique index admits
// one active payment per order.
type SQLPaymentRepository struct {
	db              *sql.DB
	uniqueViolation func(error) bool
}

func NewSQLPaymentRepository(db *sql.DB, uniqueViolation func(error) bool) *SQLPaymentRepository {
	return &SQLPaymentRepository{db: db, uniqueViolation: uniqueViolation}
}

const paymentColumns = `id, order_id, user_id, provider, amount, status, transaction_id, created_at, updated_at`

func scanPayment(row interface{ Scan(...any) error }) (*domain.Payment, error) {
	var (
		p      domain.Payment
		status string
	)
	err := row.Scan(&p.ID, &p.OrderID, &p.UserID, &p.Provider, &p.Amount, &status,
		&p.TransactionID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Status = domain.PaymentStatus(status)
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}

func activeOrderID(p *domain.Payment) any {
	if p.Status.IsActive() {
		return p.OrderID
	}
	return nil
}

func (r *SQLPaymentRepository) Insert(ctx context.Context, p *domain.Payment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payments (`+paymentColumns+`, active_order_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.OrderID, p.UserID, p.Provider, p.Amount, string(p.Status), p.TransactionID,
		p.CreatedAt.UTC(), p.UpdatedAt.UTC(), activeOrderID(p),
	)
	if err != nil {
		if r.uniqueViolation != nil && r.uniqueViolation(err) {
			return errors.NewConflictError(fmt.Sprintf("order %s already has an active payment", p.OrderID))
		}
		return fmt.Errorf("inserting payment: %w", err)
	}
	return nil
}

func (r *SQLPaymentRepository) FindByID(ctx context.Context, id string) (*domain.Payment, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = ?`, id)

	p, err := scanPayment(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("payment with id %s not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying payment by id: %w", err)
	}
	return p, nil
}

// FindLatestByOrder returns the most recently created payment of the order.
func (r *SQLPaymentRepository) FindLatestByOrder(ctx context.Context, orderID string) (*domain.Payment, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE order_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1`, orderID)

	p, err := scanPayment(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("no payment found for order %s", orderID))
	}
	if err != nil {
		return nil, fmt.Errorf("querying payment by order: %w", err)
	}
	return p, nil
}

// UpdateStatus moves the payment from one status to another only if it is still in from.
func (r *SQLPaymentRepository) UpdateStatus(ctx context.Context, id string, from, to domain.PaymentStatus, transactionID string, at time.Time) (*domain.Payment, error) {
	query := `UPDATE payments SET status = ?, updated_at = ?`
	args := []any{string(to), at.UTC()}

	if transactionID != "" {
		query += `, transaction_id = ?`
		args = append(args, transactionID)
	}
	if !to.IsActive() {
		query += `, active_order_id = NULL`
	}

	query += ` WHERE id = ? AND status = ?`
	args = append(args, id, string(from))

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("updating payment status: %w", err)
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
		return nil, errors.NewConflictError(fmt.Sprintf("payment %s is %s, expected %s", id, current.Status, from))
	}

	return r.FindByID(ctx, id)
}
