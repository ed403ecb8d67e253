package ports

import (
	"context"
	"time"

	"github.com/agendavendas/scheduling-api/internal/core/domain"
)

// ClientRepository persists client records.
//
// Listings are ordered by scheduled_at ascending with unscheduled clients
// last, then by created_at descending.
type ClientRepository interface {
	// Create stores a pending client with no conclusion time.
	// Returns domain.ErrSellerNotFound when the seller does not exist.
	Create(ctx context.Context, in domain.NewClient, createdAt time.Time) (*domain.Client, error)
	FindByID(ctx context.Context, id int64) (*domain.Client, error)
	ListBySeller(ctx context.Context, sellerID int64) ([]domain.Client, error)
	// ListAllWithSeller joins every client with its seller's name.
	ListAllWithSeller(ctx context.Context) ([]domain.Client, error)
	// Update replaces the editable fields. A non-nil concludedAt overwrites
	// the stored conclusion time; nil leaves it untouched.
	Update(ctx context.Context, id int64, ch domain.ClientChanges, concludedAt *time.Time) (*domain.Client, error)
	// Delete removes the client and returns the seller it belonged to.
	Delete(ctx context.Context, id int64) (sellerID int64, err error)
}
