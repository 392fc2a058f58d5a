package usecase

import (
	"context"
	"time"

	"kms/internal/domain"
)

type mockOrderReader struct {
	FindByIDFunc func(ctx context.Context, id string) (*domain.Order, error)
}

func (m *mockOrderReader) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	return m.FindByIDFunc(ctx, id)
}

type mockPaymentRepository struct {
	InsertFunc            func(ctx context.Context, p *domain.Payment) error
	FindByIDFunc          func(ctx context.Context, id string) (*domain.Payment, error)
	FindLatestByOrderFunc func(ctx context.Context, orderID string) (*domain.Payment, error)
	UpdateStatusFunc      func(ctx context.Context, id string, from, to domain.PaymentStatus, transactionID string, at time.Time) (*domain.Payment, error)
}

func (m *mockPaymentRepository) Insert(ctx context.Context, p *domain.Payment) error {
	return m.InsertFunc(ctx, p)
}

func (m *mockPaymentRepository) FindByID(ctx context.Context, id string) (*domain.Payment, error) {
	return m.FindByIDFunc(ctx, id)
}

func (m *mockPaymentRepository) FindLatestByOrder(ctx context.Context, orderID string) (*domain.Payment, error) {
	return m.FindLatestByOrderFunc(ctx, orderID)
}

func (m *mockPaymentRepository) UpdateStatus(ctx context.Context, id string, from, to domain.PaymentStatus, transactionID string, at time.Time) (*domain.Payment, error) {
	return m.UpdateStatusFunc(ctx, id, from, to, transactionID, at)
}

type mockOrderSettler struct {
	MarkPaidFunc   func(ctx context.Context, order *domain.Order) (*domain.Order, error)
	MarkFailedFunc func(ctx context.Context, order *domain.Order) (*domain.Order, error)
}

func (m *mockOrderSettler) MarkPaid(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	return m.MarkPaidFunc(ctx, order)
}

func (m *mockOrderSettler) MarkFailed(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	return m.MarkFailedFunc(ctx, order)
}
