package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusCreated   OrderStatus = "CREATED"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusAccepted  OrderStatus = "ACCEPTED"
	OrderStatusPreparing OrderStatus = "PREPARING"
	OrderStatusReady     OrderStatus = "READY"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusFailed    OrderStatus = "FAILED"
)

// ActiveCanteenStatuses is the default status filter of a canteen's order board.
var ActiveCanteenStatuses = []OrderStatus{
	OrderStatusPaid,
	OrderStatusAccepted,
	OrderStatusPreparing,
	OrderStatusReady,
}

func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch status := OrderStatus(s); status {
	case OrderStatusCreated, OrderStatusPaid, OrderStatusAccepted, OrderStatusPreparing,
		OrderStatusReady, OrderStatusCompleted, OrderStatusCancelled, OrderStatusFailed:
		return status, true
	}
	return "", false
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled || s == OrderStatusFailed
}

type CancelledBy string

const (
	CancelledByStudent CancelledBy = "STUDENT"
	CancelledByCanteen CancelledBy = "CANTEEN"
	CancelledByAdmin   CancelledBy = "ADMIN"
)

type OrderItem struct {
	MenuItemID string
	Name       string
	Price      float64
	Quantity   int
}

type Order struct {
	ID                  string
	UserID              string
	CanteenID           string
	Items               []OrderItem
	TotalAmount         float64
	IsBulkOrder         bool
	Status              OrderStatus
	PickupCode          string
	PickupCodeUsed      bool
	SpecialInstructions string
	CancelledBy         CancelledBy
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// NewOrderItem snapshots the menu item's name and price into an order line.
func NewOrderItem(item MenuItem, quantity int) OrderItem {
	return OrderItem{
		MenuItemID: item.ID,
		Name:       item.Name,
		Price:      item.Price,
		Quantity:   quantity,
	}
}

// CalculateTotals returns the sum of price×quantity and the sum of quantities of items.
func CalculateTotals(items []OrderItem) (float64, int) {
	total := decimal.Zero
	quantity := 0
	for _, item := range items {
		line := decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(line)
		quantity += item.Quantity
	}
	return total.Round(2).InexactFloat64(), quantity
}

// IsBulk reports whether quantity strictly exceeds the canteen's bulk threshold.
func IsBulk(quantity, maxBulkSize int) bool {
	return quantity > maxBulkSize
}

// StatusChange describes the write applied by a conditional status update.
type StatusChange struct {
	To OrderStatus
	// PickupCode is written when non-empty.
	PickupCode string
	// ConsumePickupCode marks the code used and additionally requires it to be unused.
	ConsumePickupCode bool
	CancelledBy       CancelledBy
	At                time.Time
}

// Apply mutates o the way storage applies c.
func (c StatusChange) Apply(o *Order) {
	o.Status = c.To
	if c.PickupCode != "" {
		o.PickupCode = c.PickupCode
	}
	if c.ConsumePickupCode {
		o.PickupCodeUsed = true
	}
	if c.CancelledBy != "" {
		o.CancelledBy = c.CancelledBy
	}
	o.UpdatedAt = c.At
}
