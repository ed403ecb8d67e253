package ports

import (
	"context"

	"github.com/agendavendas/scheduling-api/internal/core/domain"
)

// Notifier pushes invalidation events to connected viewers. Publish is
// fire-and-forget from the caller's point of view: it must not block on
// slow receivers.
type Notifier interface {
	Publish(ctx context.Context, event domain.Event) error
}
