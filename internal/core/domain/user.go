package domain

import "strings"

// Role flags what a user may see in the UI. Admins see every client and
// manage seller accounts; sellers only see their own clients.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleSeller Role = "seller"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleSeller
}

// AdminDisplayName is the name given to master accounts created on demand.
const AdminDisplayName = "Administrador"

// User models a seller or admin account. Identity is the email address.
type User struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
	Active bool   `json:"active"`
}

// IsAdmin reports whether the user carries the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// NormalizeEmail trims and lowercases an address. Every lookup and every
// uniqueness check goes through it.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
