package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"kms/internal/domain"
	"kms/internal/errors"
	"kms/internal/infrastructure/logger"
)

type OrderRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id string, from domain.OrderStatus, change domain.StatusChange) (*domain.Order, error)
}

// StateMachine applies lifecycle actions to orders. Every write is conditional on the status
// the caller observed, so concurrent actions on one order serialise in storage.
type StateMachine struct {
	repo    OrderRepository
	now     func() time.Time
	newCode func() (string, error)
	logger  *zap.Logger
}

func NewStateMachine(repo OrderRepository, now func() time.Time, newCode func() (string, error), logger *zap.Logger) *StateMachine {
	return &StateMachine{
		repo:    repo,
		now:     now,
		newCode: newCode,
		logger:  logger,
	}
}

func (s *StateMachine) Accept(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	return s.apply(ctx, order, domain.ActionAccept, domain.StatusChange{})
}

func (s *StateMachine) Prepare(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	return s.apply(ctx, order, domain.ActionPrepare, domain.StatusChange{})
}

// Ready moves the order to READY. MarkPaid issues the pickup code, so the minting branch only
// runs for orders stored without one.
func (s *StateMachine) Ready(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	var change domain.StatusChange
	if order.PickupCode == "" && domain.CanApply(domain.ActionReady, order.Status) {
		code, err := s.newCode()
		if err != nil {
			return nil, errors.NewInternalError("generating pickup code", err)
		}
		change.PickupCode = code
	}
	return s.apply(ctx, order, domain.ActionReady, change)
}

func (s *StateMachine) Cancel(ctx context.Context, order *domain.Order, by domain.CancelledBy) (*domain.Order, error) {
	return s.apply(ctx, order, domain.ActionCancel, domain.StatusChange{CancelledBy: by})
}

// MarkPaid records a successful payment and issues the pickup code.
func (s *StateMachine) MarkPaid(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	var change domain.StatusChange
	if domain.CanApply(domain.ActionPaymentSuccess, order.Status) {
		code, err := s.newCode()
		if err != nil {
			return nil, errors.NewInternalError("generating pickup code", err)
		}
		change.PickupCode = code
	}
	return s.apply(ctx, order, domain.ActionPaymentSuccess, change)
}

func (s *StateMachine) MarkFailed(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	return s.apply(ctx, order, domain.ActionPaymentFailure, domain.StatusChange{})
}

// Complete verifies the presented pickup code and closes the order. The code is consumed in
// the same conditional write that sets COMPLETED; replaying it reports the code as used.
func (s *StateMachine) Complete(ctx context.Context, order *domain.Order, code string) (*domain.Order, error) {
	if order.Status == domain.OrderStatusCompleted && order.PickupCodeUsed {
		return nil, errors.NewInvalidStateError("code already used")
	}
	if !domain.CanApply(domain.ActionComplete, order.Status) {
		return nil, transitionError(domain.ActionComplete, order.Status)
	}
	if order.PickupCodeUsed {
		return nil, errors.NewInvalidStateError("code already used")
	}
	if !domain.PickupCodeMatches(order.PickupCode, code) {
		return nil, errors.NewValidationError("invalid pickup code", errors.ValidationDetail{
			Field:   "pickupCode",
			Message: "pickup code does not match",
		})
	}

	updated, err := s.apply(ctx, order, domain.ActionComplete, domain.StatusChange{ConsumePickupCode: true})
	if err != nil {
		if ite, ok := errors.IsInvalidTransitionError(err); ok && ite.Current == string(domain.OrderStatusCompleted) {
			return nil, errors.NewInvalidStateError("code already used")
		}
		return nil, err
	}
	return updated, nil
}

func (s *StateMachine) apply(ctx context.Context, order *domain.Order, action domain.Action, change domain.StatusChange) (*domain.Order, error) {
	log := logger.FromContext(ctx, s.logger).With(
		zap.String("orderId", order.ID),
		zap.String("action", string(action)),
	)

	if !domain.CanApply(action, order.Status) {
		log.Info("transition rejected", zap.String("status", string(order.Status)))
		return nil, transitionError(action, order.Status)
	}

	change.To = domain.TargetStatus(action)
	change.At = s.now()

	updated, err := s.repo.UpdateStatus(ctx, order.ID, order.Status, change)
	if err != nil {
		if _, ok := errors.IsConflictError(err); ok {
			current := s.currentStatus(ctx, order)
			log.Warn("transition lost race",
				zap.String("expected", string(order.Status)),
				zap.String("current", string(current)),
			)
			return nil, transitionError(action, current)
		}
		return nil, err
	}

	log.Info("order transitioned",
		zap.String("from", string(order.Status)),
		zap.String("to", string(updated.Status)),
	)
	return updated, nil
}

// currentStatus re-reads the order after a lost race; on failure the observed status stands.
func (s *StateMachine) currentStatus(ctx context.Context, order *domain.Order) domain.OrderStatus {
	fresh, err := s.repo.FindByID(ctx, order.ID)
	if err != nil {
		return order.Status
	}
	return fresh.Status
}

func transitionError(action domain.Action, current domain.OrderStatus) error {
	switch action {
	case domain.ActionCancel:
		return errors.NewInvalidTransitionError("cannot cancel at this stage", string(current), "")
	case domain.ActionPaymentFailure:
		return errors.NewInvalidTransitionError(
			fmt.Sprintf("order is already %s", current), string(current), "",
		)
	}

	required, _ := domain.RequiredStatus(action)
	return errors.NewInvalidTransitionError(
		fmt.Sprintf("order must be %s to %s, current status is %s", required, actionVerb(action), current),
		string(current),
		string(required),
	)
}

func actionVerb(action domain.Action) string {
	switch action {
	case domain.ActionPaymentSuccess:
		return "record payment"
	case domain.ActionReady:
		return "mark ready"
	}
	return string(action)
}
