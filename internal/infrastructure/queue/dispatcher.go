// Package queue decouples request handling from notification delivery.
package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agendavendas/scheduling-api/internal/pkg/metrics"
	"github.com/agendavendas/scheduling-api/internal/core/domain"
	"github.com/agendavendas/scheduling-api/internal/core/ports"
)

const (
	defaultWorkers = 2
	channelBuffer  = 256
)

// Dispatcher implements ports.Notifier by queueing events for a fixed set
// of workers that forward them to sink. Events for the same seller land on
// the same worker and keep their order. Publish never blocks: when a
// worker queue is full the event is dropped.
type Dispatcher struct {
	workers []chan domain.Event
	sink    ports.Notifier
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, sink ports.Notifier, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.Event, numWorkers),
		sink:    sink,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.Event, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled;
// Wait blocks until they have.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() { d.wg.Wait() }

// Publish queues ev for delivery.
func (d *Dispatcher) Publish(_ context.Context, ev domain.Event) error {
	metrics.NotificationsPublishedTotal.WithLabelValues(string(ev.Type)).Inc()

	idx := d.shardIndex(ev)
	select {
	case d.workers[idx] <- ev:
		metrics.NotificationQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		metrics.NotificationsDroppedTotal.WithLabelValues("queue_full").Inc()
		d.log.Warn().Str("type", string(ev.Type)).Int("worker_id", idx).Msg("notification queue full, event dropped")
	}
	return nil
}

// shardIndex maps an event deterministically to a worker index. User
// events share shard 0.
func (d *Dispatcher) shardIndex(ev domain.Event) int {
	if ev.SellerID == nil {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(strconv.FormatInt(*ev.SellerID, 10)))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.Event) {
	defer d.wg.Done()
	depth := metrics.NotificationQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-ch:
			depth.Set(float64(len(ch)))
			if err := d.sink.Publish(ctx, ev); err != nil {
				d.log.Error().Err(err).
					Str("type", string(ev.Type)).
					Int("worker_id", id).
					Msg("notification delivery failed")
			}
		}
	}
}
