package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/agendavendas/scheduling-api/internal/core/domain"
)

type recordingSink struct {
	mu     sync.Mutex
	events []domain.Event
	block  chan struct{}
}

func (s *recordingSink) Publish(_ context.Context, ev domain.Event) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *recordingSink) snapshot() []domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Event(nil), s.events...)
}

func TestDispatcher_DeliversInOrderPerSeller(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(4, sink, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	for i := 0; i < 5; i++ {
		_ = d.Publish(ctx, domain.ClientUpdated(42))
	}
	_ = d.Publish(ctx, domain.UserUpdated())

	deadline := time.Now().Add(2 * time.Second)
	for len(sink.snapshot()) < 6 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	d.Wait()

	got := sink.snapshot()
	if len(got) != 6 {
		t.Fatalf("expected 6 deliveries, got %d", len(got))
	}
	clientEvents := 0
	for _, ev := range got {
		if ev.Type == domain.EventClientUpdated {
			clientEvents++
			if *ev.SellerID != 42 {
				t.Fatalf("unexpected seller hint %d", *ev.SellerID)
			}
		}
	}
	if clientEvents != 5 {
		t.Fatalf("expected 5 client events, got %d", clientEvents)
	}
}

func TestDispatcher_PublishNeverBlocks(t *testing.T) {
	sink := &recordingSink{block: make(chan struct{})}
	d := NewDispatcher(1, sink, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < channelBuffer*2; i++ {
			_ = d.Publish(ctx, domain.UserUpdated())
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a stalled sink")
	}

	close(sink.block)
	cancel()
	d.Wait()
}

func TestDispatcher_ShardIndexIsStable(t *testing.T) {
	d := NewDispatcher(8, &recordingSink{}, zerolog.Nop())

	a := d.shardIndex(domain.ClientUpdated(7))
	b := d.shardIndex(domain.ClientUpdated(7))
	if a != b {
		t.Fatalf("same seller mapped to different workers: %d vs %d", a, b)
	}
	if idx := d.shardIndex(domain.UserUpdated()); idx != 0 {
		t.Fatalf("user events should use shard 0, got %d", idx)
	}
	if a < 0 || a >= 8 {
		t.Fatalf("index out of range: %d", a)
	}
}
