package usecase

import (
	"context"

	"go.uber.org/zap"

	"kms/internal/domain"
	"kms/internal/errors"
	"kms/internal/infrastructure/logger"
)

type OrderReader interface {
	FindByID(ctx context.Context, id string) (*domain.Order, error)
}

type Transitions interface {
	Accept(ctx context.Context, order *domain.Order) (*domain.Order, error)
	Prepare(ctx context.Context, order *domain.Order) (*domain.Order, error)
	Ready(ctx context.Context, order *domain.Order) (*domain.Order, error)
	Cancel(ctx context.Context, order *domain.Order, by domain.CancelledBy) (*domain.Order, error)
	Complete(ctx context.Context, order *domain.Order, code string) (*domain.Order, error)
}

// OrderActionsUseCase authorises the actor against the stored order before handing the
// order to the state machine.
type OrderActionsUseCase struct {
	orders  OrderReader
	machine Transitions
	logger  *zap.Logger
}

func NewOrderActionsUseCase(orders OrderReader, machine Transitions, logger *zap.Logger) *OrderActionsUseCase {
	return &OrderActionsUseCase{
		orders:  orders,
		machine: machine,
		logger:  logger,
	}
}

func (uc *OrderActionsUseCase) Accept(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error) {
	order, err := uc.loadForStaff(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	return uc.machine.Accept(ctx, order)
}

func (uc *OrderActionsUseCase) Prepare(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error) {
	order, err := uc.loadForStaff(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	return uc.machine.Prepare(ctx, order)
}

func (uc *OrderActionsUseCase) Ready(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error) {
	order, err := uc.loadForStaff(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	return uc.machine.Ready(ctx, order)
}

func (uc *OrderActionsUseCase) Complete(ctx context.Context, actor domain.Actor, orderID, pickupCode string) (*domain.Order, error) {
	order, err := uc.loadForStaff(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}

	updated, err := uc.machine.Complete(ctx, order, pickupCode)
	if err != nil {
		if _, ok := errors.IsValidationError(err); ok {
			logger.FromContext(ctx, uc.logger).Warn("pickup code mismatch",
				zap.String("orderId", orderID),
				zap.String("actorId", actor.ID),
			)
		}
		return nil, err
	}
	return updated, nil
}

// Cancel is open to the owning student, staff of the order's canteen and admins.
func (uc *OrderActionsUseCase) Cancel(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error) {
	order, err := uc.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !actor.Owns(order) && !actor.ManagesCanteen(order.CanteenID) {
		return nil, errors.NewUnauthorizedError("not authorized to cancel this order")
	}

	return uc.machine.Cancel(ctx, order, actor.CancelledBy())
}

func (uc *OrderActionsUseCase) loadForStaff(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error) {
	if actor.Role != domain.RoleCanteen && actor.Role != domain.RoleAdmin {
		return nil, errors.NewUnauthorizedError("only canteen staff can update order status")
	}

	order, err := uc.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !actor.ManagesCanteen(order.CanteenID) {
		return nil, errors.NewUnauthorizedError("not authorized to manage orders of this canteen")
	}
	return order, nil
}
