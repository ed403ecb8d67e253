package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/agendavendas/scheduling-api/internal/core/domain"
	"github.com/agendavendas/scheduling-api/internal/core/ports"
)

// publish sends ev after a committed mutation. A failed publish never
// fails the mutation; viewers resync on their next fetch.
func publish(ctx context.Context, n ports.Notifier, log zerolog.Logger, ev domain.Event) {
	if n == nil {
		return
	}
	if err := n.Publish(ctx, ev); err != nil {
		log.Warn().Err(err).Str("event", string(ev.Type)).Msg("notification publish failed")
	}
}
