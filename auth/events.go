package auth

import (
	"context"
	"sync"
	"time"
)

// EventKind names a claim-lifecycle event.
type EventKind string

const (
	// EventLogin fires after a successful authentication, carrying the new claim.
	EventLogin EventKind = "auth.login"
	// EventLogout fires after a claim is revoked.
	EventLogout EventKind = "auth.logout"
	// EventTokenRefresh fires after a claim is replaced by a refresh.
	EventTokenRefresh EventKind = "auth.token_refresh"
)

// Event is the payload delivered to subscribers.
type Event struct {
	Kind       EventKind
	Claim      *Claim
	OccurredAt time.Time
	Metadata   map[string]any
}

// Subscriber handles a published event. Errors are logged by the bus and
// never propagate to the publisher.
type Subscriber func(ctx context.Context, event Event) error

// EventBus is an explicit, constructed-once dispatcher with typed subscriber
// lists per event kind. It is passed by reference to services that publish.
// Publishing with zero subscribers is a logged no-op, never an error: event
// dispatch must not be able to fail an auth operation.
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[EventKind][]Subscriber
	logger      Logger
}

// NewEventBus creates an empty bus.
func NewEventBus(opts ...EventBusOption) *EventBus {
	b := &EventBus{
		subscribers: map[EventKind][]Subscriber{},
		logger:      defLogger{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// EventBusOption configures an EventBus.
type EventBusOption func(*EventBus)

// WithEventLogger sets the bus logger.
func WithEventLogger(logger Logger) EventBusOption {
	return func(b *EventBus) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// Subscribe registers fn for the given event kind.
func (b *EventBus) Subscribe(kind EventKind, fn Subscriber) {
	if fn == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[kind] = append(b.subscribers[kind], fn)
}

// Publish delivers event to every subscriber of its kind, synchronously and
// in registration order. Subscriber failures are logged and swallowed.
func (b *EventBus) Publish(ctx context.Context, event Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	b.mu.RLock()
	subs := b.subscribers[event.Kind]
	b.mu.RUnlock()

	if len(subs) == 0 {
		b.logger.Debug("no subscribers for event %s", event.Kind)
		return
	}

	for _, fn := range subs {
		if err := fn(ctx, event); err != nil {
			b.logger.Warn("event subscriber error on %s: %v", event.Kind, err)
		}
	}
}
