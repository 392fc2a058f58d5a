package usecase

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"kms/internal/commons"
	"kms/internal/domain"
	"kms/internal/dto"
	"kms/internal/errors"
	"kms/internal/infrastructure/logger"
)

type CatalogService interface {
	GetCanteen(ctx context.Context, id string) (*domain.Canteen, error)
	GetMenuItemsByIDs(ctx context.Context, ids []string) (found map[string]domain.MenuItem, notFoundIDs []string, err error)
}

type OrderWriter interface {
	Insert(ctx context.Context, order *domain.Order) error
}

type CreateOrderUseCase struct {
	catalog          CatalogService
	orders           OrderWriter
	now              func() time.Time
	newID            func() string
	isTransient      func(error) bool
	maxRetryAttempts int
	logger           *zap.Logger
}

func NewCreateOrderUseCase(
	catalog CatalogService,
	orders OrderWriter,
	now func() time.Time,
	newID func() string,
	isTransient func(error) bool,
	maxRetryAttempts int,
	logger *zap.Logger,
) *CreateOrderUseCase {
	return &CreateOrderUseCase{
		catalog:          catalog,
		orders:           orders,
		now:              now,
		newID:            newID,
		isTransient:      isTransient,
		maxRetryAttempts: maxRetryAttempts,
		logger:           logger,
	}
}

// Create validates a cart against the canteen and its menu and persists a CREATED order.
// Names and prices are snapshotted from the menu; the total is always computed here.
func (uc *CreateOrderUseCase) Create(ctx context.Context, actor domain.Actor, req dto.CreateOrderRequest) (*domain.Order, error) {
	log := logger.FromContext(ctx, uc.logger)

	if actor.Role != domain.RoleStudent {
		return nil, errors.NewUnauthorizedError("only students can place orders")
	}

	if err := validateLines(req.Items); err != nil {
		return nil, err
	}

	canteen, err := uc.catalog.GetCanteen(ctx, req.CanteenID)
	if err != nil {
		return nil, err
	}
	if !canteen.IsOpen {
		return nil, errors.NewInvalidStateError("canteen closed")
	}
	if !canteen.IsOnlineOrdersEnabled {
		return nil, errors.NewInvalidStateError("online orders disabled")
	}

	ids := make([]string, 0, len(req.Items))
	seen := make(map[string]bool, len(req.Items))
	for _, line := range req.Items {
		if !seen[line.MenuItemID] {
			seen[line.MenuItemID] = true
			ids = append(ids, line.MenuItemID)
		}
	}

	menu, notFoundIDs, err := uc.catalog.GetMenuItemsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(notFoundIDs) > 0 {
		return nil, errors.NewNotFoundError(fmt.Sprintf("menu item with id %s not found", notFoundIDs[0]))
	}

	items := make([]domain.OrderItem, 0, len(req.Items))
	for _, line := range req.Items {
		m := menu[line.MenuItemID]
		if m.CanteenID != canteen.ID {
			return nil, errors.NewInvalidStateError(fmt.Sprintf("menu item %s does not belong to canteen %s", m.ID, canteen.ID))
		}
		if !m.IsAvailable {
			return nil, errors.NewInvalidStateError(fmt.Sprintf("menu item %s is not available", m.ID))
		}
		items = append(items, domain.NewOrderItem(m, line.Quantity))
	}

	total, quantity := domain.CalculateTotals(items)
	now := uc.now()

	order := &domain.Order{
		ID:                  uc.newID(),
		UserID:              actor.ID,
		CanteenID:           canteen.ID,
		Items:               items,
		TotalAmount:         total,
		IsBulkOrder:         domain.IsBulk(quantity, canteen.MaxBulkSize),
		Status:              domain.OrderStatusCreated,
		SpecialInstructions: req.SpecialInstructions,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	err = commons.Retry(ctx, uc.maxRetryAttempts, uc.isTransient, log, func() error {
		return uc.orders.Insert(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	log.Info("order created",
		zap.String("orderId", order.ID),
		zap.String("canteenId", order.CanteenID),
		zap.Int("lines", len(order.Items)),
		zap.Int("quantity", quantity),
		zap.Float64("totalAmount", order.TotalAmount),
		zap.Bool("isBulkOrder", order.IsBulkOrder),
	)
	return order, nil
}

func validateLines(lines []dto.CreateOrderItem) error {
	if len(lines) == 0 {
		return errors.NewValidationError("order must contain at least one item", errors.ValidationDetail{
			Field:   "items",
			Message: "items must not be empty",
		})
	}

	var details []errors.ValidationDetail
	for i, line := range lines {
		if line.MenuItemID == "" {
			details = append(details, errors.ValidationDetail{
				Field:   "items[" + strconv.Itoa(i) + "].menuItemId",
				Message: "menuItemId is required",
			})
		}
		if line.Quantity < 1 {
			details = append(details, errors.ValidationDetail{
				Field:   "items[" + strconv.Itoa(i) + "].quantity",
				Message: "quantity must be at least 1",
			})
		}
	}

	if len(details) > 0 {
		return errors.NewValidationError("validation failed", details...)
	}
	return nil
}
