package order

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"kms/internal/config"
	"kms/internal/domain"
	"kms/internal/order/controller"
	"kms/internal/order/service"
	"kms/internal/order/usecase"
	"kms/internal/storage"
)

// Module exposes the order controller and the state machine the payment bridge drives.
type Module struct {
	Controller   *controller.OrderController
	StateMachine *service.StateMachine
}

func NewModule(store *storage.Storage, catalog usecase.CatalogService, cfg *config.Config, loc *time.Location, logger *zap.Logger) *Module {
	machine := service.NewStateMachine(store.Orders, time.Now, domain.GeneratePickupCode, logger)

	create := usecase.NewCreateOrderUseCase(
		catalog,
		store.Orders,
		time.Now,
		uuid.NewString,
		store.IsTransient,
		cfg.Order.MaxRetryAttempts,
		logger,
	)
	actions := usecase.NewOrderActionsUseCase(store.Orders, machine, logger)
	queries := usecase.NewOrderQueriesUseCase(store.Orders, time.Now, loc)

	return &Module{
		Controller:   controller.NewOrderController(create, actions, queries, logger),
		StateMachine: machine,
	}
}
