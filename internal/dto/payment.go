package dto

import (
	"time"

	"kms/internal/domain"
)

type InitiatePaymentRequest struct {
	OrderID string `json:"orderId" validate:"required"`
}

type InitiatePaymentResponse struct {
	Payment    PaymentResponse `json:"payment"`
	PaymentURL string          `json:"paymentUrl"`
	QRData     string          `json:"qrData"`
}

// ConfirmPaymentRequest reports the gateway outcome. An absent success flag means success.
type ConfirmPaymentRequest struct {
	Success       *bool  `json:"success"`
	TransactionID string `json:"transactionId" validate:"max=128"`
}

type ConfirmPaymentResponse struct {
	Payment PaymentResponse `json:"payment"`
	Order   OrderResponse   `json:"order"`
}

type PaymentWebhookRequest struct {
	OrderID       string `json:"orderId" validate:"required"`
	Status        string `json:"status" validate:"required,oneof=SUCCESS TXN_SUCCESS FAILED TXN_FAILURE"`
	TransactionID string `json:"transactionId" validate:"max=128"`
}

type PaymentWebhookResponse struct {
	Acknowledged bool   `json:"acknowledged"`
	Applied      bool   `json:"applied"`
	Message      string `json:"message"`
}

type PaymentResponse struct {
	ID            string    `json:"id"`
	OrderID       string    `json:"orderId"`
	UserID        string    `json:"userId"`
	Provider      string    `json:"provider"`
	Amount        float64   `json:"amount"`
	Status        string    `json:"status"`
	TransactionID string    `json:"transactionId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func NewPaymentResponse(p *domain.Payment) PaymentResponse {
	return PaymentResponse{
		ID:            p.ID,
		OrderID:       p.OrderID,
		UserID:        p.UserID,
		Provider:      p.Provider,
		Amount:        p.Amount,
		Status:        string(p.Status),
		TransactionID: p.TransactionID,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}
