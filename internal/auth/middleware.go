package auth

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"kms/internal/commons"
	"kms/internal/dto"
	"kms/internal/infrastructure/logger"
)

// Middleware rejects requests without a valid bearer token with 401 and stores the actor
// in the request context otherwise.
func Middleware(secret string, fallback *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				unauthenticated(w, r, "missing token", fallback)
				return
			}

			actor, err := ParseBearer(header, secret)
			if err != nil {
				logger.FromContext(r.Context(), fallback).Info("rejected bearer token", zap.Error(err))
				unauthenticated(w, r, "invalid token", fallback)
				return
			}

			ctx := WithActor(r.Context(), actor)
			ctx = logger.IntoContext(ctx, logger.FromContext(ctx, fallback).With(
				zap.String("actorId", actor.ID),
				zap.String("role", string(actor.Role)),
			))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthenticated(w http.ResponseWriter, r *http.Request, message string, log *zap.Logger) {
	commons.WriteJSON(w, http.StatusUnauthorized, dto.ErrorResponse{
		TraceID:   commons.TraceID(r.Context()),
		Status:    http.StatusUnauthorized,
		Code:      "UNAUTHENTICATED",
		Message:   message,
		Timestamp: time.Now().UTC(),
	}, log)
}
