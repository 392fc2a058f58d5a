package payment

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"kms/internal/config"
	"kms/internal/payment/controller"
	"kms/internal/payment/usecase"
	"kms/internal/storage"
)

func NewModule(store *storage.Storage, settler usecase.OrderSettler, cfg *config.Config, logger *zap.Logger) *controller.PaymentController {
	initiate := usecase.NewInitiatePaymentUseCase(
		store.Orders,
		store.Payments,
		time.Now,
		uuid.NewString,
		cfg.Order.PaymentURLBase,
		store.IsTransient,
		cfg.Order.MaxRetryAttempts,
		logger,
	)
	settle := usecase.NewSettlePaymentUseCase(store.Orders, store.Payments, settler, time.Now, logger)
	queries := usecase.NewPaymentQueriesUseCase(store.Payments)

	return controller.NewPaymentController(initiate, settle, queries, logger)
}
