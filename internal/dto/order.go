package dto

import (
	"time"

	"kms/internal/domain"
)

// CreateOrderRequest carries no total: the amount is always computed from the menu.
type CreateOrderRequest struct {
	CanteenID           string            `json:"canteenId" validate:"required"`
	Items               []CreateOrderItem `json:"items" validate:"required,min=1,max=100,dive"`
	SpecialInstructions string            `json:"specialInstructions" validate:"max=500"`
}

type CreateOrderItem struct {
	MenuItemID string `json:"menuItemId" validate:"required"`
	Quantity   int    `json:"quantity" validate:"gte=1,lte=1000"`
}

type CompleteOrderRequest struct {
	PickupCode string `json:"pickupCode" validate:"required"`
}

type OrderItemDTO struct {
	MenuItemID string  `json:"menuItemId"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Quantity   int     `json:"quantity"`
}

type OrderResponse struct {
	ID                  string         `json:"id"`
	UserID              string         `json:"userId"`
	CanteenID           string         `json:"canteenId"`
	Items               []OrderItemDTO `json:"items"`
	TotalAmount         float64        `json:"totalAmount"`
	IsBulkOrder         bool           `json:"isBulkOrder"`
	Status              string         `json:"status"`
	PickupCode          string         `json:"pickupCode,omitempty"`
	PickupCodeUsed      bool           `json:"pickupCodeUsed"`
	SpecialInstructions string         `json:"specialInstructions"`
	CancelledBy         string         `json:"cancelledBy,omitempty"`
	CreatedAt           time.Time      `json:"createdAt"`
	UpdatedAt           time.Time      `json:"updatedAt"`
}

type CompletedOrdersResponse struct {
	Orders        []OrderResponse `json:"orders"`
	TodayEarnings float64         `json:"todayEarnings"`
	MonthEarnings float64         `json:"monthEarnings"`
}

// NewOrderResponse maps an order; the pickup code is only rendered when withPickupCode is set.
func NewOrderResponse(o *domain.Order, withPickupCode bool) OrderResponse {
	items := make([]OrderItemDTO, len(o.Items))
	for i, it := range o.Items {
		items[i] = OrderItemDTO{
			MenuItemID: it.MenuItemID,
			Name:       it.Name,
			Price:      it.Price,
			Quantity:   it.Quantity,
		}
	}

	resp := OrderResponse{
		ID:                  o.ID,
		UserID:              o.UserID,
		CanteenID:           o.CanteenID,
		Items:               items,
		TotalAmount:         o.TotalAmount,
		IsBulkOrder:         o.IsBulkOrder,
		Status:              string(o.Status),
		PickupCodeUsed:      o.PickupCodeUsed,
		SpecialInstructions: o.SpecialInstructions,
		CancelledBy:         string(o.CancelledBy),
		CreatedAt:           o.CreatedAt,
		UpdatedAt:           o.UpdatedAt,
	}
	if withPickupCode {
		resp.PickupCode = o.PickupCode
	}
	return resp
}
