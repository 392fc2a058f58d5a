package usecase

import (
	"context"

	"kms/internal/domain"
	"kms/internal/errors"
)

type PaymentQueriesUseCase struct {
	payments PaymentRepository
}

func NewPaymentQueriesUseCase(payments PaymentRepository) *PaymentQueriesUseCase {
	return &PaymentQueriesUseCase{payments: payments}
}

// ByOrder returns the most recent payment of an order to its payer or an admin.
func (uc *PaymentQueriesUseCase) ByOrder(ctx context.Context, actor domain.Actor, orderID string) (*domain.Payment, error) {
	payment, err := uc.payments.FindLatestByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if payment.UserID != actor.ID && actor.Role != domain.RoleAdmin {
		return nil, errors.NewUnauthorizedError("not authorized to view this payment")
	}
	return payment, nil
}
