package controller

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"kms/internal/commons"
	"kms/internal/dto"
	"kms/internal/infrastructure/logger"
)

const (
	SignatureHeader = "X-Signature"
	maxWebhookBody  = 64 << 10
)

// Sign returns the hex HMAC-SHA256 of body under secret, as expected in SignatureHeader.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature rejects webhook deliveries whose body does not carry a valid signature.
// An empty secret disables the check.
func VerifySignature(secret string, fallback *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if secret == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
			if err != nil {
				commons.WriteError(w, r, err, fallback)
				return
			}

			presented, err := hex.DecodeString(r.Header.Get(SignatureHeader))
			expected, _ := hex.DecodeString(Sign(secret, body))
			if err != nil || !hmac.Equal(presented, expected) {
				logger.FromContext(r.Context(), fallback).Warn("webhook signature mismatch")
				commons.WriteJSON(w, http.StatusUnauthorized, dto.ErrorResponse{
					TraceID:   commons.TraceID(r.Context()),
					Status:    http.StatusUnauthorized,
					Code:      "INVALID_SIGNATURE",
					Message:   "webhook signature is missing or invalid",
					Timestamp: time.Now().UTC(),
				}, fallback)
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(body))
			next.ServeHTTP(w, r)
		})
	}
}
