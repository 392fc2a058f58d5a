package controller

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"kms/internal/auth"
	"kms/internal/commons"
	"kms/internal/domain"
	"kms/internal/dto"
	"kms/internal/errors"
	"kms/internal/order/usecase"
)

type CreateUseCase interface {
	Create(ctx context.Context, actor domain.Actor, req dto.CreateOrderRequest) (*domain.Order, error)
}

type ActionsUseCase interface {
	Accept(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error)
	Prepare(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error)
	Ready(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error)
	Cancel(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error)
	Complete(ctx context.Context, actor domain.Actor, orderID, pickupCode string) (*domain.Order, error)
}

type QueriesUseCase interface {
	GetByID(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error)
	ListMine(ctx context.Context, actor domain.Actor) ([]domain.Order, error)
	ListByCanteen(ctx context.Context, actor domain.Actor, canteenID string, statuses []domain.OrderStatus) ([]domain.Order, error)
	ListAll(ctx context.Context, actor domain.Actor, statuses []domain.OrderStatus) ([]domain.Order, error)
	CompletedWithEarnings(ctx context.Context, actor domain.Actor, canteenID string) ([]domain.Order, usecase.Earnings, error)
}

type OrderController struct {
	create  CreateUseCase
	actions ActionsUseCase
	queries QueriesUseCase
	logger  *zap.Logger
}

func NewOrderController(create CreateUseCase, actions ActionsUseCase, queries QueriesUseCase, logger *zap.Logger) *OrderController {
	return &OrderController{
		create:  create,
		actions: actions,
		queries: queries,
		logger:  logger,
	}
}

// Routes mounts the order endpoints on r.
func (c *OrderController) Routes(r chi.Router) {
	r.Post("/", c.Create)
	r.Get("/my", c.ListMine)
	r.Get("/all", c.ListAll)
	r.Get("/canteen/{canteenId}", c.ListByCanteen)
	r.Get("/canteen/{canteenId}/completed", c.Completed)
	r.Get("/{orderId}", c.GetByID)
	r.Post("/{orderId}/accept", c.transition(c.actions.Accept))
	r.Post("/{orderId}/prepare", c.transition(c.actions.Prepare))
	r.Post("/{orderId}/ready", c.transition(c.actions.Ready))
	r.Post("/{orderId}/cancel", c.transition(c.actions.Cancel))
	r.Post("/{orderId}/complete", c.Complete)
}

// Create handles POST /api/orders.
func (c *OrderController) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := c.actor(w, r)
	if !ok {
		return
	}

	var req dto.CreateOrderRequest
	if err := commons.DecodeJSON(r, &req); err != nil {
		commons.WriteError(w, r, err, c.logger)
		return
	}

	order, err := c.create.Create(r.Context(), actor, req)
	if err != nil {
		commons.WriteError(w, r, err, c.logger)
		return
	}

	commons.WriteJSON(w, http.StatusCreated, c.render(actor, order), c.logger)
}

func (c *OrderController) GetByID(w http.ResponseWriter, r *http.Request) {
	actor, ok := c.actor(w, r)
	if !ok {
		return
	}

	order, err := c.queries.GetByID(r.Context(), actor, chi.URLParam(r, "orderId"))
	if err != nil {
		commons.WriteError(w, r, err, c.logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, c.render(actor, order), c.logger)
}

func (c *OrderController) ListMine(w http.ResponseWriter, r *http.Request) {
	actor, ok := c.actor(w, r)
	if !ok {
		return
	}

	orders, err := c.queries.ListMine(r.Context(), actor)
	if err != nil {
		commons.WriteError(w, r, err, c.logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, c.renderAll(actor, orders), c.logger)
}

// ListAll handles GET /api/orders/all?status=PAID,READY.
func (c *OrderController) ListAll(w http.ResponseWriter, r *http.Request) {
	actor, ok := c.actor(w, r)
	if !ok {
		return
	}

	statuses, err := statusQuery(r)
	if err != nil {
		commons.WriteError(w, r, err, c.logger)
		return
	}

	orders, err := c.queries.ListAll(r.Context(), actor, statuses)
	if err != nil {
		commons.WriteError(w, r, err, c.logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, c.renderAll(actor, orders), c.logger)
}

func (c *OrderController) ListByCanteen(w http.ResponseWriter, r *http.Request) {
	actor, ok := c.actor(w, r)
	if !ok {
		return
	}

	statuses, err := statusQuery(r)
	if err != nil {
		commons.WriteError(w, r, err, c.logger)
		return
	}

	orders, err := c.queries.ListByCanteen(r.Context(), actor, chi.URLParam(r, "canteenId"), statuses)
	if err != nil {
		commons.WriteError(w, r, err, c.logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, c.renderAll(actor, orders), c.logger)
}

// Completed handles GET /api/orders/canteen/{canteenId}/completed.
func (c *OrderController) Completed(w http.ResponseWriter, r *http.Request) {
	actor, ok := c.actor(w, r)
	if !ok {
		return
	}

	orders, earnings, err := c.queries.CompletedWithEarnings(r.Context(), actor, chi.URLParam(r, "canteenId"))
	if err != nil {
		commons.WriteError(w, r, err, c.logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, dto.CompletedOrdersResponse{
		Orders:        c.renderAll(actor, orders),
		TodayEarnings: earnings.Today,
		MonthEarnings: earnings.Month,
	}, c.logger)
}

// Complete handles POST /api/orders/{orderId}/complete with the pickup code shown by the student.
func (c *OrderController) Complete(w http.ResponseWriter, r *http.Request) {
	actor, ok := c.actor(w, r)
	if !ok {
		return
	}

	var req dto.CompleteOrderRequest
	if err := commons.DecodeJSON(r, &req); err != nil {
		commons.WriteError(w, r, err, c.logger)
		return
	}

	order, err := c.actions.Complete(r.Context(), actor, chi.URLParam(r, "orderId"), req.PickupCode)
	if err != nil {
		commons.WriteError(w, r, err, c.logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, c.render(actor, order), c.logger)
}

func (c *OrderController) transition(action func(context.Context, domain.Actor, string) (*domain.Order, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := c.actor(w, r)
		if !ok {
			return
		}

		order, err := action(r.Context(), actor, chi.URLParam(r, "orderId"))
		if err != nil {
			commons.WriteError(w, r, err, c.logger)
			return
		}

		commons.WriteJSON(w, http.StatusOK, c.render(actor, order), c.logger)
	}
}

func (c *OrderController) actor(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		commons.WriteError(w, r, errors.NewUnauthorizedError("no authenticated actor"), c.logger)
		return domain.Actor{}, false
	}
	return actor, true
}

// render hides the pickup code from everyone except the student who placed the order and admins.
func (c *OrderController) render(actor domain.Actor, order *domain.Order) dto.OrderResponse {
	return dto.NewOrderResponse(order, actor.Owns(order) || actor.Role == domain.RoleAdmin)
}

func (c *OrderController) renderAll(actor domain.Actor, orders []domain.Order) []dto.OrderResponse {
	resp := make([]dto.OrderResponse, len(orders))
	for i := range orders {
		resp[i] = c.render(actor, &orders[i])
	}
	return resp
}

// statusQuery accepts both ?status=A,B and repeated ?status=A&status=B.
func statusQuery(r *http.Request) ([]domain.OrderStatus, error) {
	var values []string
	for _, v := range r.URL.Query()["status"] {
		for _, s := range strings.Split(v, ",") {
			values = append(values, strings.ToUpper(strings.TrimSpace(s)))
		}
	}
	return usecase.ParseStatuses(values)
}
