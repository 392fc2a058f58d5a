package domain

type Action string

const (
	ActionPaymentSuccess Action = "payment-success"
	ActionPaymentFailure Action = "payment-failure"
	ActionAccept         Action = "accept"
	ActionPrepare        Action = "prepare"
	ActionReady          Action = "ready"
	ActionComplete       Action = "complete"
	ActionCancel         Action = "cancel"
)

type step struct {
	from OrderStatus
	to   OrderStatus
}

// forward holds the single-predecessor transitions.
var forward = map[Action]step{
	ActionPaymentSuccess: {from: OrderStatusCreated, to: OrderStatusPaid},
	ActionAccept:         {from: OrderStatusPaid, to: OrderStatusAccepted},
	ActionPrepare:        {from: OrderStatusAccepted, to: OrderStatusPreparing},
	ActionReady:          {from: OrderStatusPreparing, to: OrderStatusReady},
	ActionComplete:       {from: OrderStatusReady, to: OrderStatusCompleted},
}

var cancellable = map[OrderStatus]bool{
	OrderStatusCreated:  true,
	OrderStatusPaid:     true,
	OrderStatusAccepted: true,
}

// RequiredStatus returns the exact predecessor status of a forward action.
func RequiredStatus(a Action) (OrderStatus, bool) {
	s, ok := forward[a]
	return s.from, ok
}

// TargetStatus returns the status an action moves an order into.
func TargetStatus(a Action) OrderStatus {
	switch a {
	case ActionCancel:
		return OrderStatusCancelled
	case ActionPaymentFailure:
		return OrderStatusFailed
	}
	return forward[a].to
}

func CanCancel(s OrderStatus) bool {
	return cancellable[s]
}

// CanApply reports whether action a is legal from status s.
func CanApply(a Action, s OrderStatus) bool {
	switch a {
	case ActionCancel:
		return CanCancel(s)
	case ActionPaymentFailure:
		return !s.IsTerminal()
	}
	step, ok := forward[a]
	return ok && step.from == s
}
