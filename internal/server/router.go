package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"kms/internal/auth"
	catalogcontroller "kms/internal/catalog/controller"
	"kms/internal/commons"
	"kms/internal/infrastructure/logger"
	ordercontroller "kms/internal/order/controller"
	paymentcontroller "kms/internal/payment/controller"
)

const TraceIDHeader = "X-Trace-Id"

type RouterConfig struct {
	JWTSecret      string
	WebhookSecret  string
	RequestTimeout time.Duration
	// Ping reports storage health for GET /health.
	Ping func(ctx context.Context) error
}

func NewRouter(
	cfg RouterConfig,
	orders *ordercontroller.OrderController,
	payments *paymentcontroller.PaymentController,
	menu *catalogcontroller.MenuController,
	log *zap.Logger,
) http.Handler {
	r := chi.NewRouter()
	r.Use(traceMiddleware(log))
	r.Use(middleware.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}

	r.Get("/health", healthHandler(cfg.Ping, log))

	r.Route("/api", func(r chi.Router) {
		r.With(paymentcontroller.VerifySignature(cfg.WebhookSecret, log)).Post("/payments/webhook", payments.Webhook)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(cfg.JWTSecret, log))
			r.Route("/orders", orders.Routes)
			r.Route("/payments", payments.Routes)
			r.Post("/menu-items/search", menu.SearchMenuItems)
		})
	})

	return r
}

// traceMiddleware gives every request a traceId, reusing the caller's one when present, and
// writes one access log line per request.
func traceMiddleware(base *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traceID := r.Header.Get(TraceIDHeader)
			if traceID == "" {
				traceID = uuid.New().String()
			}
			w.Header().Set(TraceIDHeader, traceID)

			reqLogger := base.With(zap.String("traceId", traceID))
			ctx := commons.WithTraceID(r.Context(), traceID)
			ctx = logger.IntoContext(ctx, reqLogger)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("request completed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

func healthHandler(ping func(ctx context.Context) error, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			if err := ping(r.Context()); err != nil {
				logger.FromContext(r.Context(), log).Error("health check failed", zap.Error(err))
				commons.WriteJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "degraded", Database: "down"}, log)
				return
			}
		}
		commons.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok", Database: "up"}, log)
	}
}
