// Package eventbus provides implementations of the EventBus interface.
// This package contains the synchronous event bus implementation.
package eventbus

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/tejashwikalptaru/studybeats/internal/domain"
	"github.com/tejashwikalptaru/studybeats/internal/ports"
)

// ErrClosed is returned by Close when the bus was already closed.
var ErrClosed = errors.New("event bus already closed")

// SyncEventBus is a synchronous implementation of the EventBus interface.
// Events are delivered on the publisher's goroutine, typed handlers first and
// wildcard handlers after, each group in subscription order.
//
// Thread-safety: This implementation is thread-safe. Handlers may subscribe,
// unsubscribe or publish from inside a handler without deadlocking.
//
// Performance: Since handlers are called synchronously, slow handlers will block
// the publisher. The session controller publishes from a dedicated dispatcher
// goroutine, so a slow view never stalls playback.
type SyncEventBus struct {
	logger *slog.Logger

	mu     sync.RWMutex
	subs   []subscription
	nextID uint64
	closed bool
}

// subscription is a single registered handler.
// all is set for wildcard subscriptions, in which case eventType is empty.
type subscription struct {
	id        domain.SubscriptionID
	eventType domain.EventType
	all       bool
	handler   domain.EventHandler
}

// NewSyncEventBus creates a new synchronous event bus.
// A nil logger discards handler panics and delivery traces.
func NewSyncEventBus(logger *slog.Logger) *SyncEventBus {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SyncEventBus{logger: logger.With(slog.String("component", "eventbus"))}
}

// Publish delivers event to every matching handler.
// Publishing a nil event or publishing on a closed bus is a no-op.
//
// Panics in handlers are recovered and logged, and do not stop delivery to
// the remaining handlers.
func (bus *SyncEventBus) Publish(event domain.Event) {
	if event == nil {
		return
	}

	bus.mu.RLock()
	if bus.closed {
		bus.mu.RUnlock()
		return
	}
	eventType := event.Type()
	typed := make([]domain.EventHandler, 0, len(bus.subs))
	wildcard := make([]domain.EventHandler, 0)
	for _, sub := range bus.subs {
		switch {
		case sub.all:
			wildcard = append(wildcard, sub.handler)
		case sub.eventType == eventType:
			typed = append(typed, sub.handler)
		}
	}
	bus.mu.RUnlock()

	for _, handler := range typed {
		bus.deliver(handler, event)
	}
	for _, handler := range wildcard {
		bus.deliver(handler, event)
	}
}

func (bus *SyncEventBus) deliver(handler domain.EventHandler, event domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			bus.logger.Error("event handler panicked",
				slog.Any("panic", r),
				slog.String("event_type", string(event.Type())))
		}
	}()
	handler(event)
}

// Subscribe registers a handler for events of the specified type.
// Returns a unique subscription ID, or an empty ID if the bus is closed.
//
// Panics if handler is nil.
func (bus *SyncEventBus) Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID {
	return bus.add(subscription{eventType: eventType, handler: handler}, "sub")
}

// SubscribeAll registers a handler that receives all events regardless of type.
// Returns a unique subscription ID, or an empty ID if the bus is closed.
//
// Panics if handler is nil.
func (bus *SyncEventBus) SubscribeAll(handler domain.EventHandler) domain.SubscriptionID {
	return bus.add(subscription{all: true, handler: handler}, "sub-all")
}

func (bus *SyncEventBus) add(sub subscription, prefix string) domain.SubscriptionID {
	if sub.handler == nil {
		panic("event handler cannot be nil")
	}

	bus.mu.Lock()
	defer bus.mu.Unlock()

	if bus.closed {
		bus.logger.Warn("subscribe on closed event bus ignored",
			slog.String("event_type", string(sub.eventType)))
		return ""
	}

	bus.nextID++
	sub.id = domain.SubscriptionID(fmt.Sprintf("%s-%d", prefix, bus.nextID))
	bus.subs = append(bus.subs, sub)
	return sub.id
}

// Unsubscribe removes a previously registered event handler.
// The relative order of the remaining handlers is preserved.
// If the subscription ID is invalid or already unsubscribed, this is a no-op.
func (bus *SyncEventBus) Unsubscribe(id domain.SubscriptionID) {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	bus.subs = slices.DeleteFunc(bus.subs, func(sub subscription) bool {
		return sub.id == id
	})
}

// HasSubscribers returns true if a publish of eventType would reach any handler.
func (bus *SyncEventBus) HasSubscribers(eventType domain.EventType) bool {
	bus.mu.RLock()
	defer bus.mu.RUnlock()

	return slices.ContainsFunc(bus.subs, func(sub subscription) bool {
		return sub.all || sub.eventType == eventType
	})
}

// Close drops all subscriptions. Later publishes are ignored.
//
// Returns ErrClosed if already closed.
func (bus *SyncEventBus) Close() error {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	if bus.closed {
		return ErrClosed
	}
	bus.closed = true
	bus.subs = nil
	return nil
}

// SubscriberCount returns the number of active subscriptions, typed and wildcard.
func (bus *SyncEventBus) SubscriberCount() int {
	bus.mu.RLock()
	defer bus.mu.RUnlock()
	return len(bus.subs)
}

// Verify that SyncEventBus implements the EventBus interface
var _ ports.EventBus = (*SyncEventBus)(nil)
