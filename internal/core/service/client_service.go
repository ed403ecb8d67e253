package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/agendavendas/scheduling-api/internal/pkg/metrics"
	"github.com/agendavendas/scheduling-api/internal/core/domain"
	"github.com/agendavendas/scheduling-api/internal/core/ports"
)

// ClientService implements the client lifecycle. Every successful mutation
// publishes a CLIENT_UPDATED event hinting the owning seller.
type ClientService struct {
	repo     ports.ClientRepository
	notifier ports.Notifier
	contact  *ContactLinker
	loc      *time.Location
	now      func() time.Time
	log      zerolog.Logger
}

// NewClientService creates a ClientService. Calendar views and contact
// messages use loc; nil means UTC. contact may be nil, in which case
// responses carry no WhatsApp link.
func NewClientService(
	repo ports.ClientRepository,
	notifier ports.Notifier,
	contact *ContactLinker,
	loc *time.Location,
	log zerolog.Logger,
) *ClientService {
	if loc == nil {
		loc = time.UTC
	}
	return &ClientService{
		repo:     repo,
		notifier: notifier,
		contact:  contact,
		loc:      loc,
		now:      time.Now,
		log:      log,
	}
}

// WithClock replaces the time source. Used by tests.
func (s *ClientService) WithClock(now func() time.Time) *ClientService {
	s.now = now
	return s
}

// ListClients returns every client for admins and the caller's own clients
// otherwise, filtered by the requested view.
func (s *ClientService) ListClients(ctx context.Context, in ports.ListClientsInput) ([]ports.ClientView, error) {
	if !in.Filter.View.Valid() {
		return nil, domain.InvalidField("view", "must be one of: today day week month unscheduled history")
	}

	var (
		clients []domain.Client
		err     error
	)
	if in.Role == domain.RoleAdmin {
		clients, err = s.repo.ListAllWithSeller(ctx)
	} else {
		if in.SellerID <= 0 {
			return nil, domain.InvalidField("seller_id", "is required")
		}
		clients, err = s.repo.ListBySeller(ctx, in.SellerID)
	}
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}

	now := s.now()
	clients = in.Filter.Apply(clients, now, s.loc)

	views := make([]ports.ClientView, len(clients))
	for i := range clients {
		views[i] = s.view(clients[i], now)
	}
	return views, nil
}

// CreateClient stores a new pending lead for a seller.
func (s *ClientService) CreateClient(ctx context.Context, in domain.NewClient) (*ports.ClientView, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)

	var fields []string
	if in.SellerID <= 0 {
		fields = append(fields, "seller_id is required")
	}
	fields = append(fields, requireContact(in.Name, in.Phone)...)
	if len(fields) > 0 {
		return nil, domain.NewValidationError(fields...)
	}

	created, err := s.repo.Create(ctx, in, s.now().UTC())
	if err != nil {
		if errors.Is(err, domain.ErrSellerNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("create client: %w", err)
	}

	metrics.ClientMutationsTotal.WithLabelValues("create").Inc()
	s.log.Info().Int64("client_id", created.ID).Int64("seller_id", created.SellerID).Msg("client created")
	publish(ctx, s.notifier, s.log, domain.ClientUpdated(created.SellerID))

	v := s.view(*created, s.now())
	return &v, nil
}

// UpdateClient replaces a client's editable fields. Moving to completed
// stamps concluded_at with the current time. Reopening keeps the previous
// stamp: it is never cleared.
func (s *ClientService) UpdateClient(ctx context.Context, id int64, ch domain.ClientChanges) (*ports.ClientView, error) {
	ch.Name = strings.TrimSpace(ch.Name)
	ch.Phone = strings.TrimSpace(ch.Phone)

	fields := requireContact(ch.Name, ch.Phone)
	if !ch.Status.Valid() {
		fields = append(fields, "status must be one of: pending completed")
	}
	if len(fields) > 0 {
		return nil, domain.NewValidationError(fields...)
	}

	var concludedAt *time.Time
	if ch.Status == domain.ClientCompleted {
		t := s.now().UTC()
		concludedAt = &t
	}

	updated, err := s.repo.Update(ctx, id, ch, concludedAt)
	if err != nil {
		if errors.Is(err, domain.ErrClientNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update client: %w", err)
	}

	ev := s.log.Info().Int64("client_id", id).Str("status", string(updated.Status))
	if concludedAt != nil {
		metrics.ClientMutationsTotal.WithLabelValues("conclude").Inc()
		ev.Msg("client concluded")
	} else {
		metrics.ClientMutationsTotal.WithLabelValues("update").Inc()
		ev.Msg("client updated")
	}
	publish(ctx, s.notifier, s.log, domain.ClientUpdated(updated.SellerID))

	v := s.view(*updated, s.now())
	return &v, nil
}

// DeleteClient removes a client. The notification targets the seller the
// record belonged to, not the caller.
func (s *ClientService) DeleteClient(ctx context.Context, id int64) error {
	sellerID, err := s.repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrClientNotFound) {
			return err
		}
		return fmt.Errorf("delete client: %w", err)
	}

	metrics.ClientMutationsTotal.WithLabelValues("delete").Inc()
	s.log.Info().Int64("client_id", id).Int64("seller_id", sellerID).Msg("client deleted")
	publish(ctx, s.notifier, s.log, domain.ClientUpdated(sellerID))
	return nil
}

func (s *ClientService) view(c domain.Client, now time.Time) ports.ClientView {
	v := ports.ClientView{
		Client:         c,
		Classification: domain.Classify(&c, now),
	}
	if s.contact != nil {
		v.WhatsAppURL = s.contact.URL(&c)
	}
	return v
}

func requireContact(name, phone string) []string {
	var fields []string
	if name == "" {
		fields = append(fields, "name is required")
	}
	if phone == "" {
		fields = append(fields, "phone is required")
	}
	return fields
}
