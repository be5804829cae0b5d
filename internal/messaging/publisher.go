package messaging

import (
	"context"

	"github.com/sommelier-labs/cellars-indexer/internal/domain"
)

// Publisher defines the interface for publishing events to message queue
type Publisher interface {
	// PublishEvent publishes a cellar event to the message broker
	PublishEvent(ctx context.Context, event *domain.CellarEvent) error
	// Close closes the connection
	Close()
	// CloseChan returns a channel that is closed when the publisher is closed
	CloseChan() <-chan struct{}
}
