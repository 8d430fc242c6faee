package domain

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleCustomer
}

// Actor is the identity a request runs as. Services take it as an explicit
// argument; nothing reads identity from ambient state.
type Actor struct {
	UserID int64
	Role   Role
}

func (a Actor) Authenticated() bool {
	return a.UserID > 0
}

func (a Actor) IsAdmin() bool {
	return a.Authenticated() && a.Role == RoleAdmin
}

func (a Actor) RequireUser() error {
	if !a.Authenticated() {
		return ErrAuthRequired
	}
	return nil
}

func (a Actor) RequireAdmin() error {
	if !a.Authenticated() {
		return ErrAuthRequired
	}
	if a.Role != RoleAdmin {
		return ErrForbidden
	}
	return nil
}

// CanAccess reports whether the actor may act on a record owned by ownerID.
func (a Actor) CanAccess(ownerID int64) bool {
	return a.IsAdmin() || (a.Authenticated() && a.UserID == ownerID)
}
