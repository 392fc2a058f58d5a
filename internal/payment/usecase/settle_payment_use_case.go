package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"kms/internal/domain"
	"kms/internal/dto"
	"kms/internal/errors"
	"kms/internal/infrastructure/logger"
)

// OrderSettler moves a CREATED order to PAID or FAILED with a conditional write.
type OrderSettler interface {
	MarkPaid(ctx context.Context, order *domain.Order) (*domain.Order, error)
	MarkFailed(ctx context.Context, order *domain.Order) (*domain.Order, error)
}

// SettlePaymentUseCase applies a provider outcome to a payment and its order. The order
// transition is written first: it is conditional on CREATED, so of two racing deliveries only
// one moves the order and the other observes the settled state.
type SettlePaymentUseCase struct {
	orders   OrderReader
	payments PaymentRepository
	settler  OrderSettler
	now      func() time.Time
	logger   *zap.Logger
}

func NewSettlePaymentUseCase(orders OrderReader, payments PaymentRepository, settler OrderSettler, now func() time.Time, logger *zap.Logger) *SettlePaymentUseCase {
	return &SettlePaymentUseCase{
		orders:   orders,
		payments: payments,
		settler:  settler,
		now:      now,
		logger:   logger,
	}
}

// Confirm settles the actor's PENDING payment. A nil success flag counts as success.
func (uc *SettlePaymentUseCase) Confirm(ctx context.Context, actor domain.Actor, paymentID string, req dto.ConfirmPaymentRequest) (*domain.Payment, *domain.Order, error) {
	payment, err := uc.payments.FindByID(ctx, paymentID)
	if err != nil {
		return nil, nil, err
	}
	if payment.UserID != actor.ID {
		return nil, nil, errors.NewUnauthorizedError("not authorized to confirm this payment")
	}
	if payment.Status != domain.PaymentStatusPending {
		return nil, nil, errors.NewInvalidStateError("payment is not in pending state")
	}

	order, err := uc.orders.FindByID(ctx, payment.OrderID)
	if err != nil {
		return nil, nil, err
	}

	success := req.Success == nil || *req.Success
	order, err = uc.settleOrder(ctx, order, success)
	if err != nil {
		return nil, nil, err
	}

	payment, err = uc.settlePayment(ctx, payment, success, uc.transactionID(req.TransactionID))
	if err != nil {
		return nil, nil, err
	}

	logger.FromContext(ctx, uc.logger).Info("payment confirmed",
		zap.String("paymentId", payment.ID),
		zap.String("orderId", order.ID),
		zap.String("paymentStatus", string(payment.Status)),
	)
	return payment, order, nil
}

// Webhook applies a provider notification. Redeliveries, unknown orders and notifications
// that no longer match the order are acknowledged without side effects.
func (uc *SettlePaymentUseCase) Webhook(ctx context.Context, req dto.PaymentWebhookRequest) (*dto.PaymentWebhookResponse, error) {
	log := logger.FromContext(ctx, uc.logger).With(
		zap.String("orderId", req.OrderID),
		zap.String("providerStatus", req.Status),
	)

	success := req.Status == "SUCCESS" || req.Status == "TXN_SUCCESS"
	target := paymentTarget(success)

	payment, err := uc.payments.FindLatestByOrder(ctx, req.OrderID)
	if err != nil {
		if _, ok := errors.IsNotFoundError(err); ok {
			log.Warn("webhook for order without payment")
			return ignored("no payment found for order"), nil
		}
		return nil, err
	}

	if payment.Status == target {
		log.Info("duplicate webhook delivery", zap.String("paymentId", payment.ID))
		return ignored("payment already " + string(target)), nil
	}
	if payment.Status != domain.PaymentStatusPending {
		log.Warn("webhook contradicts settled payment",
			zap.String("paymentId", payment.ID),
			zap.String("paymentStatus", string(payment.Status)),
		)
		return ignored("payment already " + string(payment.Status)), nil
	}

	order, err := uc.orders.FindByID(ctx, req.OrderID)
	if err != nil {
		if _, ok := errors.IsNotFoundError(err); ok {
			log.Warn("webhook for unknown order")
			return ignored("order not found"), nil
		}
		return nil, err
	}

	if order.Status == domain.OrderStatusCreated {
		settled, err := uc.settleOrder(ctx, order, success)
		switch {
		case err == nil:
			order = settled
		case isTransition(err):
			// a concurrent delivery moved the order; reconcile against what it wrote
			if order, err = uc.orders.FindByID(ctx, req.OrderID); err != nil {
				return nil, err
			}
		default:
			return nil, err
		}
	}

	if !reflects(order.Status, success) {
		log.Warn("webhook outcome does not match order", zap.String("orderStatus", string(order.Status)))
		return ignored(fmt.Sprintf("order is %s", order.Status)), nil
	}

	payment, err = uc.settlePayment(ctx, payment, success, uc.transactionID(req.TransactionID))
	if err != nil {
		if _, ok := errors.IsInvalidStateError(err); ok {
			return ignored("payment already settled"), nil
		}
		return nil, err
	}

	log.Info("webhook applied", zap.String("paymentId", payment.ID), zap.String("paymentStatus", string(payment.Status)))
	return &dto.PaymentWebhookResponse{Acknowledged: true, Applied: true, Message: "webhook processed"}, nil
}

func (uc *SettlePaymentUseCase) settleOrder(ctx context.Context, order *domain.Order, success bool) (*domain.Order, error) {
	if success {
		return uc.settler.MarkPaid(ctx, order)
	}
	return uc.settler.MarkFailed(ctx, order)
}

// settlePayment moves a PENDING payment to its outcome. Losing the write to a concurrent
// settlement with the same outcome returns the stored payment.
func (uc *SettlePaymentUseCase) settlePayment(ctx context.Context, payment *domain.Payment, success bool, transactionID string) (*domain.Payment, error) {
	target := paymentTarget(success)

	updated, err := uc.payments.UpdateStatus(ctx, payment.ID, domain.PaymentStatusPending, target, transactionID, uc.now())
	if err == nil {
		return updated, nil
	}
	if _, ok := errors.IsConflictError(err); !ok {
		return nil, err
	}

	current, err := uc.payments.FindByID(ctx, payment.ID)
	if err != nil {
		return nil, err
	}
	if current.Status == target {
		return current, nil
	}
	return nil, errors.NewInvalidStateError("payment is not in pending state")
}

func (uc *SettlePaymentUseCase) transactionID(given string) string {
	if given != "" {
		return given
	}
	return fmt.Sprintf("TXN%d", uc.now().UnixMilli())
}

func paymentTarget(success bool) domain.PaymentStatus {
	if success {
		return domain.PaymentStatusSuccess
	}
	return domain.PaymentStatusFailed
}

// reflects reports whether an order status is consistent with a settled payment outcome.
func reflects(status domain.OrderStatus, success bool) bool {
	if !success {
		return status == domain.OrderStatusFailed
	}
	switch status {
	case domain.OrderStatusPaid, domain.OrderStatusAccepted, domain.OrderStatusPreparing,
		domain.OrderStatusReady, domain.OrderStatusCompleted:
		return true
	}
	return false
}

func isTransition(err error) bool {
	_, ok := errors.IsInvalidTransitionError(err)
	return ok
}

func ignored(message string) *dto.PaymentWebhookResponse {
	return &dto.PaymentWebhookResponse{Acknowledged: true, Applied: false, Message: message}
}
