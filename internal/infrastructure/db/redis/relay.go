package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/agendavendas/scheduling-api/internal/core/domain"
)

// Broadcaster delivers a frame to the sessions of this process.
type Broadcaster interface {
	Broadcast(frame []byte) int
}

type publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// Relay implements ports.Notifier across processes. Events are published to
// a channel and every subscribed process, this one included, rebroadcasts
// them to its local sessions.
//
// While the subscription is down, events published here are also delivered
// to local sessions directly so this process's viewers keep receiving them.
type Relay struct {
	client     *redis.Client
	pub        publisher
	channel    string
	local      Broadcaster
	subscribed atomic.Bool
	log        zerolog.Logger
}

const (
	resubscribeBase = 200 * time.Millisecond
	resubscribeMax  = 30 * time.Second
)

var errSubscriptionClosed = errors.New("relay subscription closed")

// NewRelay returns a relay on channel; an empty channel uses the default.
// Call Run to start receiving.
func NewRelay(client *redis.Client, channel string, local Broadcaster, log zerolog.Logger) *Relay {
	if channel == "" {
		channel = defaultChannel
	}
	return &Relay{
		client:  client,
		pub:     client,
		channel: channel,
		local:   local,
		log:     log.With().Str("channel", channel).Logger(),
	}
}

// Publish sends ev to the channel. When Redis is unreachable, or this
// process is not subscribed, the event is delivered locally as well.
func (r *Relay) Publish(ctx context.Context, ev domain.Event) error {
	frame, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := r.pub.Publish(ctx, r.channel, frame).Err(); err != nil {
		r.local.Broadcast(frame)
		return fmt.Errorf("relay publish: %w", err)
	}
	if !r.subscribed.Load() {
		r.local.Broadcast(frame)
	}
	return nil
}

// Run keeps a subscription to the channel and rebroadcasts every message
// until ctx is cancelled. A failed or lost subscription is retried with
// capped exponential backoff.
func (r *Relay) Run(ctx context.Context) error {
	backoff := retry.WithCappedDuration(resubscribeMax, retry.NewExponential(resubscribeBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := r.listen(ctx)
		if ctx.Err() != nil {
			return nil
		}
		r.log.Warn().Err(err).Msg("relay subscription down, retrying")
		return retry.RetryableError(err)
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// Subscribed reports whether the relay currently receives from Redis.
func (r *Relay) Subscribed() bool { return r.subscribed.Load() }

func (r *Relay) listen(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("relay subscribe: %w", err)
	}
	r.subscribed.Store(true)
	defer r.subscribed.Store(false)
	r.log.Info().Msg("relay subscribed")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return errSubscriptionClosed
			}
			r.handle(msg.Payload)
		}
	}
}

// handle rebroadcasts a well-formed event and drops anything else.
func (r *Relay) handle(payload string) {
	var ev domain.Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil || !ev.Type.Valid() {
		r.log.Warn().Str("payload", payload).Msg("relay dropped malformed event")
		return
	}
	frame, err := json.Marshal(ev)
	if err != nil {
		return
	}
	r.local.Broadcast(frame)
}
