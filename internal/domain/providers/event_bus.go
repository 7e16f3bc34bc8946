package providers

import (
	"context"

	"github.com/docsched/backend/internal/domain/entities"
)

// EventBus defines the interface for publishing and consuming reservation
// lifecycle events. Publishing is fire-and-forget from the booking core's
// point of view.
type EventBus interface {
	// Publish publishes an event to all subscribers of a channel
	Publish(ctx context.Context, channel string, event *entities.ReservationEvent) error

	// Subscribe subscribes to events on a channel; the returned channel is
	// closed when ctx is cancelled
	Subscribe(ctx context.Context, channel string) (<-chan *entities.ReservationEvent, error)

	// Close shuts down the bus and all subscriptions
	Close() error
}
