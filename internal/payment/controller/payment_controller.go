package controller

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"kms/internal/auth"
	"kms/internal/commons"
	"kms/internal/domain"
	"kms/internal/dto"
	"kms/internal/errors"
)

type InitiateUseCase interface {
	Initiate(ctx context.Context, actor domain.Actor, req dto.InitiatePaymentRequest) (*dto.InitiatePaymentResponse, error)
}

type SettleUseCase interface {
	Confirm(ctx context.Context, actor domain.Actor, paymentID string, req dto.ConfirmPaymentRequest) (*domain.Payment, *domain.Order, error)
	Webhook(ctx context.Context, req dto.PaymentWebhookRequest) (*dto.PaymentWebhookResponse, error)
}

type QueriesUseCase interface {
	ByOrder(ctx context.Context, actor domain.Actor, orderID string) (*domain.Payment, error)
}

type PaymentController struct {
	initiate InitiateUseCase
	settle   SettleUseCase
	queries  QueriesUseCase
	logger   *zap.Logger
}

func NewPaymentController(initiate InitiateUseCase, settle SettleUseCase, queries QueriesUseCase, logger *zap.Logger) *PaymentController {
	return &PaymentController{
		initiate: initiate,
		settle:   settle,
		queries:  queries,
		logger:   logger,
	}
}

// Routes mounts the endpoints that require an authenticated actor.
func (c *PaymentController) Routes(r chi.Router) {
	r.Post("/initiate", c.Initiate)
	r.Post("/{paymentId}/confirm", c.Confirm)
	r.Get("/order/{orderId}", c.ByOrder)
}

// Initiate handles POST /api/payments/initiate.
func (c *PaymentController) Initiate(w http.ResponseWriter, r *http.Request) {
	actor, ok := c.actor(w, r)
	if !ok {
		return
	}

	var req dto.InitiatePaymentRequest
	if err := commons.DecodeJSON(r, &req); err != nil {
		commons.WriteError(w, r, err, c.logger)
		return
	}

	resp, err := c.initiate.Initiate(r.Context(), actor, req)
	if err != nil {
		commons.WriteError(w, r, err, c.logger)
		return
	}

	commons.WriteJSON(w, http.StatusCreated, resp, c.logger)
}

// Confirm handles POST /api/payments/{paymentId}/confirm. An empty body confirms success.
func (c *PaymentController) Confirm(w http.ResponseWriter, r *http.Request) {
	actor, ok := c.actor(w, r)
	if !ok {
		return
	}

	var req dto.ConfirmPaymentRequest
	if r.ContentLength != 0 {
		if err := commons.DecodeJSON(r, &req); err != nil {
			commons.WriteError(w, r, err, c.logger)
			return
		}
	}

	payment, order, err := c.settle.Confirm(r.Context(), actor, chi.URLParam(r, "paymentId"), req)
	if err != nil {
		commons.WriteError(w, r, err, c.logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, dto.ConfirmPaymentResponse{
		Payment: dto.NewPaymentResponse(payment),
		Order:   dto.NewOrderResponse(order, actor.Owns(order)),
	}, c.logger)
}

// Webhook handles POST /api/payments/webhook. The signature has been checked by VerifySignature.
func (c *PaymentController) Webhook(w http.ResponseWriter, r *http.Request) {
	var req dto.PaymentWebhookRequest
	if err := commons.DecodeJSON(r, &req); err != nil {
		commons.WriteError(w, r, err, c.logger)
		return
	}

	resp, err := c.settle.Webhook(r.Context(), req)
	if err != nil {
		commons.WriteError(w, r, err, c.logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, resp, c.logger)
}

func (c *PaymentController) ByOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := c.actor(w, r)
	if !ok {
		return
	}

	payment, err := c.queries.ByOrder(r.Context(), actor, chi.URLParam(r, "orderId"))
	if err != nil {
		commons.WriteError(w, r, err, c.logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, dto.NewPaymentResponse(payment), c.logger)
}

func (c *PaymentController) actor(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		commons.WriteError(w, r, errors.NewUnauthorizedError("no authenticated actor"), c.logger)
		return domain.Actor{}, false
	}
	return actor, true
}
