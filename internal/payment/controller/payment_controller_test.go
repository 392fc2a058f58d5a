package controller

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kms/internal/auth"
	"kms/internal/domain"
	"kms/internal/dto"
	apperrors "kms/internal/errors"
)

type mockInitiateUseCase struct {
	InitiateFunc func(ctx context.Context, actor domain.Actor, req dto.InitiatePaymentRequest) (*dto.InitiatePaymentResponse, error)
}

func (m *mockInitiateUseCase) Initiate(ctx context.Context, actor domain.Actor, req dto.InitiatePaymentRequest) (*dto.InitiatePaymentResponse, error) {
	return m.InitiateFunc(ctx, actor, req)
}

type mockSettleUseCase struct {
	ConfirmFunc func(ctx context.Context, actor domain.Actor, paymentID string, req dto.ConfirmPaymentRequest) (*domain.Payment, *domain.Order, error)
	WebhookFunc func(ctx context.Context, req dto.PaymentWebhookRequest) (*dto.PaymentWebhookResponse, error)
}

func (m *mockSettleUseCase) Confirm(ctx context.Context, actor domain.Actor, paymentID string, req dto.ConfirmPaymentRequest) (*domain.Payment, *domain.Order, error) {
	return m.ConfirmFunc(ctx, actor, paymentID, req)
}

func (m *mockSettleUseCase) Webhook(ctx context.Context, req dto.PaymentWebhookRequest) (*dto.PaymentWebhookResponse, error) {
	return m.WebhookFunc(ctx, req)
}

type mockQueriesUseCase struct {
	ByOrderFunc func(ctx context.Context, actor domain.Actor, orderID string) (*domain.Payment, error)
}

func (m *mockQueriesUseCase) ByOrder(ctx context.Context, actor domain.Actor, orderID string) (*domain.Payment, error) {
	return m.ByOrderFunc(ctx, actor, orderID)
}

var student = domain.Actor{ID: "u1", Role: domain.RoleStudent}

const webhookSecret = "hook-secret"

func newTestRouter(ctrl *PaymentController) http.Handler {
	r := chi.NewRouter()
	r.With(VerifySignature(webhookSecret, zap.NewNop())).Post("/api/payments/webhook", ctrl.Webhook)
	r.Route("/api/payments", ctrl.Routes)
	return r
}

func do(t *testing.T, h http.Handler, actor *domain.Actor, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	r := httptest.NewRequest(method, path, reader)
	for k, v := range headers {
		r.Header.Set(k, v)
	}
	if actor != nil {
		r = r.WithContext(auth.WithActor(r.Context(), *actor))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestPaymentController_Initiate(t *testing.T) {
	initiate := &mockInitiateUseCase{
		InitiateFunc: func(ctx context.Context, actor domain.Actor, req dto.InitiatePaymentRequest) (*dto.InitiatePaymentResponse, error) {
			assert.Equal(t, "o1", req.OrderID)
			return &dto.InitiatePaymentResponse{
				Payment:    dto.PaymentResponse{ID: "pay-1", OrderID: "o1", Status: "PENDING"},
				PaymentURL: "paytm://pay?amount=130&orderId=o1&paymentId=pay-1",
			}, nil
		},
	}
	h := newTestRouter(NewPaymentController(initiate, &mockSettleUseCase{}, &mockQueriesUseCase{}, zap.NewNop()))

	w := do(t, h, &student, http.MethodPost, "/api/payments/initiate", `{"orderId":"o1"}`, nil)

	require.Equal(t, http.StatusCreated, w.Code)
	var resp dto.InitiatePaymentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "pay-1", resp.Payment.ID)

	w = do(t, h, &student, http.MethodPost, "/api/payments/initiate", `{}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaymentController_Initiate_Duplicate(t *testing.T) {
	initiate := &mockInitiateUseCase{
		InitiateFunc: func(ctx context.Context, actor domain.Actor, req dto.InitiatePaymentRequest) (*dto.InitiatePaymentResponse, error) {
			return nil, apperrors.NewInvalidStateError("payment already initiated for this order")
		},
	}
	h := newTestRouter(NewPaymentController(initiate, &mockSettleUseCase{}, &mockQueriesUseCase{}, zap.NewNop()))

	w := do(t, h, &student, http.MethodPost, "/api/payments/initiate", `{"orderId":"o1"}`, nil)

	assert.Equal(t, http.StatusConflict, w.Code)
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "INVALID_STATE", resp.Code)
}

func TestPaymentController_Confirm(t *testing.T) {
	var got dto.ConfirmPaymentRequest
	settle := &mockSettleUseCase{
		ConfirmFunc: func(ctx context.Context, actor domain.Actor, paymentID string, req dto.ConfirmPaymentRequest) (*domain.Payment, *domain.Order, error) {
			assert.Equal(t, "pay-1", paymentID)
			got = req
			return &domain.Payment{ID: "pay-1", OrderID: "o1", UserID: "u1", Status: domain.PaymentStatusSuccess},
				&domain.Order{ID: "o1", UserID: "u1", Status: domain.OrderStatusPaid, PickupCode: "K7P2QX"}, nil
		},
	}
	h := newTestRouter(NewPaymentController(&mockInitiateUseCase{}, settle, &mockQueriesUseCase{}, zap.NewNop()))

	w := do(t, h, &student, http.MethodPost, "/api/payments/pay-1/confirm", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, got.Success)

	var resp dto.ConfirmPaymentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "SUCCESS", resp.Payment.Status)
	assert.Equal(t, "PAID", resp.Order.Status)
	assert.Equal(t, "K7P2QX", resp.Order.PickupCode)

	w = do(t, h, &student, http.MethodPost, "/api/payments/pay-1/confirm", `{"success":false,"transactionId":"T-1"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, got.Success)
	assert.False(t, *got.Success)
	assert.Equal(t, "T-1", got.TransactionID)
}

func TestPaymentController_Webhook_Signature(t *testing.T) {
	calls := 0
	settle := &mockSettleUseCase{
		WebhookFunc: func(ctx context.Context, req dto.PaymentWebhookRequest) (*dto.PaymentWebhookResponse, error) {
			calls++
			assert.Equal(t, "TXN_SUCCESS", req.Status)
			return &dto.PaymentWebhookResponse{Acknowledged: true, Applied: true, Message: "webhook processed"}, nil
		},
	}
	h := newTestRouter(NewPaymentController(&mockInitiateUseCase{}, settle, &mockQueriesUseCase{}, zap.NewNop()))
	body := `{"orderId":"o1","status":"TXN_SUCCESS","transactionId":"T-1"}`

	w := do(t, h, nil, http.MethodPost, "/api/payments/webhook", body, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, h, nil, http.MethodPost, "/api/payments/webhook", body, map[string]string{SignatureHeader: Sign("wrong", []byte(body))})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 0, calls)

	w = do(t, h, nil, http.MethodPost, "/api/payments/webhook", body, map[string]string{SignatureHeader: Sign(webhookSecret, []byte(body))})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, calls)

	var resp dto.PaymentWebhookResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Applied)
}

func TestPaymentController_Webhook_UnknownStatus(t *testing.T) {
	h := newTestRouter(NewPaymentController(&mockInitiateUseCase{}, &mockSettleUseCase{}, &mockQueriesUseCase{}, zap.NewNop()))
	body := `{"orderId":"o1","status":"MAYBE"}`

	w := do(t, h, nil, http.MethodPost, "/api/payments/webhook", body, map[string]string{SignatureHeader: Sign(webhookSecret, []byte(body))})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVerifySignature_DisabledWithoutSecret(t *testing.T) {
	called := false
	h := VerifySignature("", zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/payments/webhook", strings.NewReader("{}")))

	assert.True(t, called)
}

func TestPaymentController_ByOrder(t *testing.T) {
	queries := &mockQueriesUseCase{
		ByOrderFunc: func(ctx context.Context, actor domain.Actor, orderID string) (*domain.Payment, error) {
			if orderID == "missing" {
				return nil, apperrors.NewNotFoundError("no payment found for order missing")
			}
			return &domain.Payment{ID: "pay-1", OrderID: orderID, Status: domain.PaymentStatusPending}, nil
		},
	}
	h := newTestRouter(NewPaymentController(&mockInitiateUseCase{}, &mockSettleUseCase{}, queries, zap.NewNop()))

	w := do(t, h, &student, http.MethodGet, "/api/payments/order/o1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, &student, http.MethodGet, "/api/payments/order/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
