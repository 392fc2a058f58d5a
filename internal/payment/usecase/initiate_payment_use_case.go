package usecase

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"kms/internal/commons"
	"kms/internal/domain"
	"kms/internal/dto"
	"kms/internal/errors"
	"kms/internal/infrastructure/logger"
)

type OrderReader interface {
	FindByID(ctx context.Context, id string) (*domain.Order, error)
}

type PaymentRepository interface {
	Insert(ctx context.Context, p *domain.Payment) error
	FindByID(ctx context.Context, id string) (*domain.Payment, error)
	FindLatestByOrder(ctx context.Context, orderID string) (*domain.Payment, error)
	UpdateStatus(ctx context.Context, id string, from, to domain.PaymentStatus, transactionID string, at time.Time) (*domain.Payment, error)
}

type InitiatePaymentUseCase struct {
	orders           OrderReader
	payments         PaymentRepository
	now              func() time.Time
	newID            func() string
	paymentURLBase   string
	isTransient      func(error) bool
	maxRetryAttempts int
	logger           *zap.Logger
}

func NewInitiatePaymentUseCase(
	orders OrderReader,
	payments PaymentRepository,
	now func() time.Time,
	newID func() string,
	paymentURLBase string,
	isTransient func(error) bool,
	maxRetryAttempts int,
	logger *zap.Logger,
) *InitiatePaymentUseCase {
	return &InitiatePaymentUseCase{
		orders:           orders,
		payments:         payments,
		now:              now,
		newID:            newID,
		paymentURLBase:   paymentURLBase,
		isTransient:      isTransient,
		maxRetryAttempts: maxRetryAttempts,
		logger:           logger,
	}
}

// Initiate opens a PENDING mock payment for a CREATED order of the actor. Storage refuses a
// second PENDING or SUCCESS payment for the same order.
func (uc *InitiatePaymentUseCase) Initiate(ctx context.Context, actor domain.Actor, req dto.InitiatePaymentRequest) (*dto.InitiatePaymentResponse, error) {
	log := logger.FromContext(ctx, uc.logger)

	order, err := uc.orders.FindByID(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if !actor.Owns(order) {
		return nil, errors.NewUnauthorizedError("not authorized to pay for this order")
	}
	if order.Status != domain.OrderStatusCreated {
		return nil, errors.NewInvalidTransitionError(
			"order is not in a payable state",
			string(order.Status),
			string(domain.OrderStatusCreated),
		)
	}

	now := uc.now()
	payment := &domain.Payment{
		ID:        uc.newID(),
		OrderID:   order.ID,
		UserID:    actor.ID,
		Provider:  domain.PaymentProviderMock,
		Amount:    order.TotalAmount,
		Status:    domain.PaymentStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = commons.Retry(ctx, uc.maxRetryAttempts, uc.isTransient, log, func() error {
		return uc.payments.Insert(ctx, payment)
	})
	if err != nil {
		if _, ok := errors.IsConflictError(err); ok {
			return nil, errors.NewInvalidStateError("payment already initiated for this order")
		}
		return nil, errors.NewInternalError("failed to store payment", err)
	}

	qr, err := json.Marshal(struct {
		PaymentID string  `json:"paymentId"`
		OrderID   string  `json:"orderId"`
		Amount    float64 `json:"amount"`
	}{payment.ID, order.ID, payment.Amount})
	if err != nil {
		return nil, errors.NewInternalError("failed to encode QR payload", err)
	}

	log.Info("payment initiated",
		zap.String("paymentId", payment.ID),
		zap.String("orderId", order.ID),
		zap.Float64("amount", payment.Amount),
	)

	return &dto.InitiatePaymentResponse{
		Payment:    dto.NewPaymentResponse(payment),
		PaymentURL: uc.paymentURL(payment),
		QRData:     string(qr),
	}, nil
}

func (uc *InitiatePaymentUseCase) paymentURL(p *domain.Payment) string {
	q := url.Values{}
	q.Set("amount", strconv.FormatFloat(p.Amount, 'f', -1, 64))
	q.Set("orderId", p.OrderID)
	q.Set("paymentId", p.ID)
	return uc.paymentURLBase + "?" + q.Encode()
}
