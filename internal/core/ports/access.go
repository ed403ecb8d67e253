package ports

import "github.com/agendavendas/scheduling-api/internal/core/domain"

// Capability names an operation gated by role.
type Capability string

const (
	CapManageUsers    Capability = "users:manage"
	CapReadAllClients Capability = "clients:read-all"
)

// Actor is the identity a caller asserts. Nothing verifies it.
type Actor struct {
	UserID int64
	Role   domain.Role
}

// AccessPolicy decides whether actor may use capability. Implementations
// return domain.ErrForbidden to deny.
type AccessPolicy interface {
	Authorize(actor Actor, capability Capability) error
}
