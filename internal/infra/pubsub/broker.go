// Package pubsub fans profile change events out to in-process subscribers.
package pubsub

import (
	"context"
	"log/slog"
	"sync"

	"profilemap/internal/domain/service"

	"go.uber.org/fx"
)

const subscriberBuffer = 32

// Broker implements both service.EventPublisher and service.EventSubscriber.
// Slow subscribers lose events instead of blocking publishers.
type Broker struct {
	mu     sync.RWMutex
	subs   map[int]chan *service.ProfileEvent
	nextID int
	closed bool
	logger *slog.Logger
}

// BrokerParams holds dependencies for Broker, injected by Fx
type BrokerParams struct {
	fx.In

	Lc     fx.Lifecycle
	Logger *slog.Logger
}

// NewBroker creates a broker and closes it when the application stops.
func NewBroker(params BrokerParams) *Broker {
	broker := NewInMemoryBroker(params.Logger)

	params.Lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			params.Logger.Info("Closing profile event broker")

			return broker.Close()
		},
	})

	return broker
}

// NewInMemoryBroker creates a broker without lifecycle hooks.
func NewInMemoryBroker(logger *slog.Logger) *Broker {
	return &Broker{
		subs:   make(map[int]chan *service.ProfileEvent),
		logger: logger,
	}
}

// PublishProfileEvent delivers event to every current subscriber.
func (b *Broker) PublishProfileEvent(ctx context.Context, event *service.ProfileEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil
	}

	for id, ch := range b.subs {
		select {
		case ch <- event:
		default:
			b.logger.WarnContext(ctx, "Dropping profile event for slow subscriber",
				slog.Int("subscriber", id),
				slog.String("type", string(event.Type)),
				slog.String("profile_id", event.ProfileID),
			)
		}
	}

	return nil
}

// Subscribe registers a new subscriber. The returned channel is closed by
// cancel or by Close.
func (b *Broker) Subscribe() (<-chan *service.ProfileEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan *service.ProfileEvent, subscriberBuffer)
	if b.closed {
		close(ch)

		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()

			if sub, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(sub)
			}
		})
	}

	return ch, cancel
}

// Close closes every subscription.
func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}

	return nil
}

// Module provides the broker under both event interfaces
//
//nolint:gochecknoglobals
var Module = fx.Options(
	fx.Provide(
		NewBroker,
		func(b *Broker) service.EventPublisher { return b },
		func(b *Broker) service.EventSubscriber { return b },
	),
)
