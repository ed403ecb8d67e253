// Package notify fans change events out to every open websocket session.
// Delivery is best-effort and at most once: sessions that are not open or
// whose buffer is full are skipped.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/agendavendas/scheduling-api/internal/pkg/metrics"
	"github.com/agendavendas/scheduling-api/internal/core/domain"
)

// Hub is the registry of live sessions. It implements ports.Notifier.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	log      zerolog.Logger
}

// NewHub creates an empty connection registry.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		sessions: make(map[string]*Session),
		log:      log,
	}
}

// Register adds s to the registry.
func (h *Hub) Register(s *Session) {
	h.mu.Lock()
	h.sessions[s.ID()] = s
	h.mu.Unlock()
	metrics.SessionsOpen.Inc()
}

// Unregister removes the session with id. Unknown ids are ignored.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	_, ok := h.sessions[id]
	delete(h.sessions, id)
	h.mu.Unlock()
	if ok {
		metrics.SessionsOpen.Dec()
	}
}

// Len returns the number of registered sessions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Publish broadcasts ev. It never blocks on receivers.
func (h *Hub) Publish(_ context.Context, ev domain.Event) error {
	frame, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	h.Broadcast(frame)
	return nil
}

// Broadcast queues frame to every open session and returns how many
// accepted it. Iteration runs over a snapshot so sessions may come and go
// concurrently.
func (h *Hub) Broadcast(frame []byte) int {
	h.mu.RLock()
	snapshot := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		snapshot = append(snapshot, s)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, s := range snapshot {
		if s.State() != StateOpen {
			metrics.NotificationsDroppedTotal.WithLabelValues("session_not_open").Inc()
			continue
		}
		if !s.enqueue(frame) {
			metrics.NotificationsDroppedTotal.WithLabelValues("buffer_full").Inc()
			h.log.Warn().Str("session_id", s.ID()).Msg("session buffer full, notification dropped")
			continue
		}
		delivered++
	}
	metrics.NotificationsDeliveredTotal.Add(float64(delivered))
	return delivered
}

// Serve registers s, marks it open and blocks until the peer disconnects,
// the write side fails or ctx is cancelled. The session is closed and
// unregistered on return.
func (h *Hub) Serve(ctx context.Context, s *Session) {
	h.Register(s)
	defer h.Unregister(s.ID())
	defer s.Close()

	if !s.open() {
		return
	}
	log := h.log.With().Str("session_id", s.ID()).Logger()
	log.Debug().Msg("session opened")

	go func() {
		if err := s.writePump(); err != nil {
			log.Debug().Err(err).Msg("session write failed")
		}
		s.Close()
	}()
	go func() {
		select {
		case <-ctx.Done():
			s.Close()
		case <-s.Done():
		}
	}()

	if err := s.readPump(); err != nil && !isNormalClose(err) {
		log.Debug().Err(err).Msg("session read ended")
	}
	log.Debug().Msg("session closed")
}

// Shutdown closes every registered session.
func (h *Hub) Shutdown() {
	h.mu.RLock()
	snapshot := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		snapshot = append(snapshot, s)
	}
	h.mu.RUnlock()

	for _, s := range snapshot {
		s.Close()
	}
}

func isNormalClose(err error) bool {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		return ce.Code == websocket.CloseNormalClosure || ce.Code == websocket.CloseGoingAway
	}
	return false
}
