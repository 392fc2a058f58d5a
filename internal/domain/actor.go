package domain

type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleCanteen Role = "CANTEEN"
	RoleAdmin   Role = "ADMIN"
)

func ParseRole(s string) (Role, bool) {
	switch r := Role(s); r {
	case RoleStudent, RoleCanteen, RoleAdmin:
		return r, true
	}
	return "", false
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID        string
	Role      Role
	CanteenID string
}

// ManagesCanteen reports whether the actor may run staff operations for canteenID.
func (a Actor) ManagesCanteen(canteenID string) bool {
	if a.Role == RoleAdmin {
		return true
	}
	return a.Role == RoleCanteen && a.CanteenID != "" && a.CanteenID == canteenID
}

// Owns reports whether the actor is the student who placed the order.
func (a Actor) Owns(o *Order) bool {
	return a.Role == RoleStudent && a.ID != "" && a.ID == o.UserID
}

func (a Actor) CanView(o *Order) bool {
	return a.Owns(o) || a.ManagesCanteen(o.CanteenID)
}

// CancelledBy maps the actor's role onto the audit value stored on a cancelled order.
func (a Actor) CancelledBy() CancelledBy {
	switch a.Role {
	case RoleStudent:
		return CancelledByStudent
	case RoleCanteen:
		return CancelledByCanteen
	}
	return CancelledByAdmin
}
