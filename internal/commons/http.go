package commons

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"kms/internal/dto"
	apperrors "kms/internal/errors"
	"kms/internal/infrastructure/logger"
)

type traceIDKey struct{}

// WithTraceID stores the request trace id.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, traceID)
}

func TraceID(ctx context.Context) string {
	id, _ := ctx.Value(traceIDKey{}).(string)
	return id
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// DecodeJSON decodes the request body into dst and validates its struct tags. Failures come
// back as a ValidationError carrying one detail per offending field.
func DecodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.NewValidationError("invalid JSON body", apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
	}
	return Validate(dst)
}

func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !stderrors.As(err, &validationErrors) {
		return apperrors.NewValidationError(err.Error())
	}

	details := make([]apperrors.ValidationDetail, 0, len(validationErrors))
	for _, fe := range validationErrors {
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		details = append(details, apperrors.ValidationDetail{
			Field:   field,
			Message: fieldMessage(field, fe),
		})
	}
	return apperrors.NewValidationError("validation failed", details...)
}

func fieldMessage(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func WriteJSON(w http.ResponseWriter, status int, data any, log *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error("failed to encode response", zap.Error(err))
	}
}

// WriteError maps an application error to its HTTP status and writes the error body.
// Unknown errors are logged and reported as 500 without their message.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *zap.Logger) {
	log := logger.FromContext(r.Context(), fallback)
	status, code, message := classify(err)

	resp := dto.ErrorResponse{
		TraceID:   TraceID(r.Context()),
		Status:    status,
		Code:      code,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
	if ve, ok := apperrors.IsValidationError(err); ok {
		resp.Details = ve.Details
	}

	if status == http.StatusInternalServerError {
		log.Error("unexpected error", zap.Error(err))
	} else {
		log.Info("request rejected", zap.Int("status", status), zap.String("code", code), zap.String("reason", err.Error()))
	}

	WriteJSON(w, status, resp, log)
}

func classify(err error) (int, string, string) {
	if e, ok := apperrors.IsValidationError(err); ok {
		return http.StatusBadRequest, "VALIDATION_ERROR", e.Message
	}
	if e, ok := apperrors.IsNotFoundError(err); ok {
		return http.StatusNotFound, "NOT_FOUND", e.Message
	}
	if e, ok := apperrors.IsUnauthorizedError(err); ok {
		return http.StatusForbidden, "FORBIDDEN", e.Message
	}
	if e, ok := apperrors.IsInvalidTransitionError(err); ok {
		return http.StatusConflict, "INVALID_TRANSITION", e.Message
	}
	if e, ok := apperrors.IsInvalidStateError(err); ok {
		return http.StatusConflict, "INVALID_STATE", e.Message
	}
	if e, ok := apperrors.IsConflictError(err); ok {
		return http.StatusConflict, "CONFLICT", e.Message
	}
	return http.StatusInternalServerError, "INTERNAL_ERROR", "an unexpected error occurred"
}
