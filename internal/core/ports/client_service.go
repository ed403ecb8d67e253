package ports

import (
	"context"

	"github.com/agendavendas/scheduling-api/internal/core/domain"
)

// ListClientsInput selects whose clients to list. Admins get every client
// joined with its seller name; anyone else gets only SellerID's clients.
type ListClientsInput struct {
	SellerID int64
	Role     domain.Role
	Filter   domain.ClientFilter
}

// ClientView is a client plus the fields derived at read time.
type ClientView struct {
	domain.Client
	Classification domain.Classification
	WhatsAppURL    string
}

// ClientService implements the client lifecycle.
type ClientService interface {
	ListClients(ctx context.Context, in ListClientsInput) ([]ClientView, error)
	CreateClient(ctx context.Context, in domain.NewClient) (*ClientView, error)
	UpdateClient(ctx context.Context, id int64, ch domain.ClientChanges) (*ClientView, error)
	DeleteClient(ctx context.Context, id int64) error
}
