package usecase

import (
	"context"
	"time"

	"kms/internal/domain"
	"kms/internal/errors"
)

type OrderQueryRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	FindByUser(ctx context.Context, userID string) ([]domain.Order, error)
	FindByCanteen(ctx context.Context, canteenID string, statuses []domain.OrderStatus) ([]domain.Order, error)
	FindAll(ctx context.Context, statuses []domain.OrderStatus) ([]domain.Order, error)
	SumCompleted(ctx context.Context, canteenID string, from, to time.Time) (float64, error)
}

// Earnings sums totalAmount of orders completed today and in the current calendar month.
type Earnings struct {
	Today float64
	Month float64
}

type OrderQueriesUseCase struct {
	orders OrderQueryRepository
	now    func() time.Time
	loc    *time.Location
}

func NewOrderQueriesUseCase(orders OrderQueryRepository, now func() time.Time, loc *time.Location) *OrderQueriesUseCase {
	return &OrderQueriesUseCase{
		orders: orders,
		now:    now,
		loc:    loc,
	}
}

func (uc *OrderQueriesUseCase) GetByID(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error) {
	order, err := uc.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.CanView(order) {
		return nil, errors.NewUnauthorizedError("not authorized to view this order")
	}
	return order, nil
}

// ListMine returns the actor's own orders, newest first.
func (uc *OrderQueriesUseCase) ListMine(ctx context.Context, actor domain.Actor) ([]domain.Order, error) {
	if actor.Role != domain.RoleStudent {
		return nil, errors.NewUnauthorizedError("only students have personal orders")
	}
	return uc.orders.FindByUser(ctx, actor.ID)
}

// ListByCanteen defaults to the active board (PAID through READY) when no status is given.
func (uc *OrderQueriesUseCase) ListByCanteen(ctx context.Context, actor domain.Actor, canteenID string, statuses []domain.OrderStatus) ([]domain.Order, error) {
	if !actor.ManagesCanteen(canteenID) {
		return nil, errors.NewUnauthorizedError("not authorized to view orders of this canteen")
	}
	if len(statuses) == 0 {
		statuses = domain.ActiveCanteenStatuses
	}
	return uc.orders.FindByCanteen(ctx, canteenID, statuses)
}

func (uc *OrderQueriesUseCase) ListAll(ctx context.Context, actor domain.Actor, statuses []domain.OrderStatus) ([]domain.Order, error) {
	if actor.Role != domain.RoleAdmin {
		return nil, errors.NewUnauthorizedError("only admins can list all orders")
	}
	return uc.orders.FindAll(ctx, statuses)
}

func (uc *OrderQueriesUseCase) CompletedWithEarnings(ctx context.Context, actor domain.Actor, canteenID string) ([]domain.Order, Earnings, error) {
	if !actor.ManagesCanteen(canteenID) {
		return nil, Earnings{}, errors.NewUnauthorizedError("not authorized to view orders of this canteen")
	}

	orders, err := uc.orders.FindByCanteen(ctx, canteenID, []domain.OrderStatus{domain.OrderStatusCompleted})
	if err != nil {
		return nil, Earnings{}, err
	}

	dayStart, dayEnd, monthStart, monthEnd := earningsWindows(uc.now(), uc.loc)

	today, err := uc.orders.SumCompleted(ctx, canteenID, dayStart, dayEnd)
	if err != nil {
		return nil, Earnings{}, err
	}
	month, err := uc.orders.SumCompleted(ctx, canteenID, monthStart, monthEnd)
	if err != nil {
		return nil, Earnings{}, err
	}

	return orders, Earnings{Today: today, Month: month}, nil
}

// earningsWindows returns the half-open bounds of the calendar day and month containing now
// in loc.
func earningsWindows(now time.Time, loc *time.Location) (time.Time, time.Time, time.Time, time.Time) {
	local := now.In(loc)
	y, m, d := local.Date()

	dayStart := time.Date(y, m, d, 0, 0, 0, 0, loc)
	monthStart := time.Date(y, m, 1, 0, 0, 0, 0, loc)

	return dayStart, dayStart.AddDate(0, 0, 1), monthStart, monthStart.AddDate(0, 1, 0)
}

// ParseStatuses converts query values into statuses, rejecting unknown ones.
func ParseStatuses(values []string) ([]domain.OrderStatus, error) {
	statuses := make([]domain.OrderStatus, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		s, ok := domain.ParseOrderStatus(v)
		if !ok {
			return nil, errors.NewValidationError("unknown order status", errors.ValidationDetail{
				Field:   "status",
				Message: "unknown order status " + v,
			})
		}
		statuses = append(statuses, s)
	}
	return statuses, nil
}
