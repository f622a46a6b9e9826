// Package ports define the EventBus interface for event-driven communication.
// The event bus replaces callbacks and enables loose coupling between components.
package ports

import (
	"github.com/tejashwikalptaru/specviz/internal/domain"
)

// EventBus is the interface for publishing and subscribing to events.
//
// The media layer publishes its signals here and the playback controller consumes
// them; the controller in turn publishes state changes for the presenter.
//
// Example usage:
//
//	// In the media layer
//	bus.Publish(domain.NewMediaEndedEvent(path))
//
//	// In the presenter
//	subID := bus.Subscribe(domain.EventPlaybackStateChanged, func(event domain.Event) {
//	    e := event.(domain.PlaybackStateChangedEvent)
//	    view.SetPlayState(e.To == domain.StatePlaying)
//	})
//	defer bus.Unsubscribe(subID)
//
// Thread-safety: Implementations must be thread-safe.
type EventBus interface {
	// Publish publishes an event to all subscribers of that event type.
	// Handlers run synchronously on the publishing goroutine, in subscription order.
	Publish(event domain.Event)

	// Subscribe registers a handler for events of the specified type.
	// Returns a SubscriptionID that can be used to unsubscribe later.
	Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID

	// Unsubscribe removes a previously registered event handler.
	// Unknown IDs are ignored.
	Unsubscribe(id domain.SubscriptionID)

	// SubscribeAll registers a handler that receives all events regardless of type.
	// This is useful for logging and debugging.
	SubscribeAll(handler domain.EventHandler) domain.SubscriptionID

	// HasSubscribers returns true if there are any active subscriptions for the given event type.
	HasSubscribers(eventType domain.EventType) bool

	// Close shuts down the event bus and cleans up resources.
	Close() error
}
