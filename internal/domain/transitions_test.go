package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var allStatuses = []OrderStatus{
	OrderStatusCreated,
	OrderStatusPaid,
	OrderStatusAccepted,
	OrderStatusPreparing,
	OrderStatusReady,
	OrderStatusCompleted,
	OrderStatusCancelled,
	OrderStatusFailed,
}

func TestRequiredStatus(t *testing.T) {
	tests := []struct {
		action Action
		from   OrderStatus
		to     OrderStatus
	}{
		{ActionPaymentSuccess, OrderStatusCreated, OrderStatusPaid},
		{ActionAccept, OrderStatusPaid, OrderStatusAccepted},
		{ActionPrepare, OrderStatusAccepted, OrderStatusPreparing},
		{ActionReady, OrderStatusPreparing, OrderStatusReady},
		{ActionComplete, OrderStatusReady, OrderStatusCompleted},
	}

	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			from, ok := RequiredStatus(tt.action)
			assert.True(t, ok)
			assert.Equal(t, tt.from, from)
			assert.Equal(t, tt.to, TargetStatus(tt.action))
		})
	}

	_, ok := RequiredStatus(ActionCancel)
	assert.False(t, ok)
}

func TestCanApply_ForwardActionsNeedExactPredecessor(t *testing.T) {
	for _, action := range []Action{ActionPaymentSuccess, ActionAccept, ActionPrepare, ActionReady, ActionComplete} {
		required, _ := RequiredStatus(action)
		for _, status := range allStatuses {
			assert.Equal(t, status == required, CanApply(action, status), "%s from %s", action, status)
		}
	}
}

func TestCanApply_Cancel(t *testing.T) {
	allowed := map[OrderStatus]bool{
		OrderStatusCreated:  true,
		OrderStatusPaid:     true,
		OrderStatusAccepted: true,
	}

	for _, status := range allStatuses {
		assert.Equal(t, allowed[status], CanApply(ActionCancel, status), "cancel from %s", status)
		assert.Equal(t, allowed[status], CanCancel(status))
	}
	assert.Equal(t, OrderStatusCancelled, TargetStatus(ActionCancel))
}

func TestCanApply_PaymentFailureFromAnyNonTerminal(t *testing.T) {
	for _, status := range allStatuses {
		assert.Equal(t, !status.IsTerminal(), CanApply(ActionPaymentFailure, status), "failure from %s", status)
	}
	assert.Equal(t, OrderStatusFailed, TargetStatus(ActionPaymentFailure))
}
