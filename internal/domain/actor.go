package domain

type Role string

const (
	RoleGuest   Role = "guest"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleGuest, RoleManager, RoleAdmin:
		return true
	}
	return false
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   int64
	Role Role
}

// Staff reports whether the actor may act on any booking.
func (a Actor) Staff() bool { return a.Role == RoleAdmin || a.Role == RoleManager }

// CanAccess reports whether the actor owns the booking or is staff.
func (a Actor) CanAccess(b Booking) bool { return a.Staff() || a.ID == b.UserID }
