package usecase

import (
	"context"
	"time"

	"kms/internal/domain"
)

type mockCatalogService struct {
	GetCanteenFunc        func(ctx context.Context, id string) (*domain.Canteen, error)
	GetMenuItemsByIDsFunc func(ctx context.Context, ids []string) (map[string]domain.MenuItem, []string, error)
}

func (m *mockCatalogService) GetCanteen(ctx context.Context, id string) (*domain.Canteen, error) {
	return m.GetCanteenFunc(ctx, id)
}

func (m *mockCatalogService) GetMenuItemsByIDs(ctx context.Context, ids []string) (map[string]domain.MenuItem, []string, error) {
	return m.GetMenuItemsByIDsFunc(ctx, ids)
}

type mockOrderWriter struct {
	InsertFunc func(ctx context.Context, order *domain.Order) error
}

func (m *mockOrderWriter) Insert(ctx context.Context, order *domain.Order) error {
	return m.InsertFunc(ctx, order)
}

type mockOrderReader struct {
	FindByIDFunc func(ctx context.Context, id string) (*domain.Order, error)
}

func (m *mockOrderReader) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	return m.FindByIDFunc(ctx, id)
}

type mockTransitions struct {
	AcceptFunc   func(ctx context.Context, order *domain.Order) (*domain.Order, error)
	PrepareFunc  func(ctx context.Context, order *domain.Order) (*domain.Order, error)
	ReadyFunc    func(ctx context.Context, order *domain.Order) (*domain.Order, error)
	CancelFunc   func(ctx context.Context, order *domain.Order, by domain.CancelledBy) (*domain.Order, error)
	CompleteFunc func(ctx context.Context, order *domain.Order, code string) (*domain.Order, error)
}

func (m *mockTransitions) Accept(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	return m.AcceptFunc(ctx, order)
}

func (m *mockTransitions) Prepare(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	return m.PrepareFunc(ctx, order)
}

func (m *mockTransitions) Ready(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	return m.ReadyFunc(ctx, order)
}

func (m *mockTransitions) Cancel(ctx context.Context, order *domain.Order, by domain.CancelledBy) (*domain.Order, error) {
	return m.CancelFunc(ctx, order, by)
}

func (m *mockTransitions) Complete(ctx context.Context, order *domain.Order, code string) (*domain.Order, error) {
	return m.CompleteFunc(ctx, order, code)
}

type mockOrderQueryRepository struct {
	FindByIDFunc      func(ctx context.Context, id string) (*domain.Order, error)
	FindByUserFunc    func(ctx context.Context, userID string) ([]domain.Order, error)
	FindByCanteenFunc func(ctx context.Context, canteenID string, statuses []domain.OrderStatus) ([]domain.Order, error)
	FindAllFunc       func(ctx context.Context, statuses []domain.OrderStatus) ([]domain.Order, error)
	SumCompletedFunc  func(ctx context.Context, canteenID string, from, to time.Time) (float64, error)
}

func (m *mockOrderQueryRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	return m.FindByIDFunc(ctx, id)
}

func (m *mockOrderQueryRepository) FindByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return m.FindByUserFunc(ctx, userID)
}

func (m *mockOrderQueryRepository) FindByCanteen(ctx context.Context, canteenID string, statuses []domain.OrderStatus) ([]domain.Order, error) {
	return m.FindByCanteenFunc(ctx, canteenID, statuses)
}

func (m *mockOrderQueryRepository) FindAll(ctx context.Context, statuses []domain.OrderStatus) ([]domain.Order, error) {
	return m.FindAllFunc(ctx, statuses)
}

func (m *mockOrderQueryRepository) SumCompleted(ctx context.Context, canteenID string, from, to time.Time) (float64, error) {
	return m.SumCompletedFunc(ctx, canteenID, from, to)
}
