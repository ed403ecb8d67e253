package ports

import (
	"context"

	"github.com/agendavendas/scheduling-api/internal/core/domain"
)

// CreateUserInput carries the fields for a new account. Role defaults to
// seller when empty.
type CreateUserInput struct {
	Name  string
	Email string
	Role  domain.Role
}

// UserService implements login and account management.
type UserService interface {
	Login(ctx context.Context, email string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	CreateUser(ctx context.Context, in CreateUserInput) (*domain.User, error)
	SetUserActive(ctx context.Context, id int64, active bool) error
	DeleteUser(ctx context.Context, id int64) error
}
