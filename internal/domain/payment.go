package domain

import "time"

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusSuccess PaymentStatus = "SUCCESS"
	PaymentStatusFailed  PaymentStatus = "FAILED"
)

const PaymentProviderMock = "MOCK"

// IsActive reports whether the status blocks another payment for the same order.
func (s PaymentStatus) IsActive() bool {
	return s == PaymentStatusPending || s == PaymentStatusSuccess
}

type Payment struct {
	ID            string
	OrderID       string
	UserID        string
	Provider      string
	Amount        float64
	Status        PaymentStatus
	TransactionID string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
