package ports

import (
	"context"

	"github.com/agendavendas/scheduling-api/internal/core/domain"
)

// UserRepository persists user accounts. Emails reach it already
// normalized; implementations still compare them case-insensitively.
type UserRepository interface {
	// Create inserts a user and returns it with its assigned id.
	// Returns domain.ErrDuplicateKey when the email is taken.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	// FindByEmail returns domain.ErrUserNotFound when nobody matches.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// SetActive is idempotent; returns domain.ErrUserNotFound for unknown ids.
	SetActive(ctx context.Context, id int64, active bool) error
	// Promote marks the user as an active admin.
	Promote(ctx context.Context, id int64) error
	// Delete removes a user that owns no clients, otherwise it returns
	// domain.ErrUserHasClients.
	Delete(ctx context.Context, id int64) error
}
