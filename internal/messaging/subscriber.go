package messaging

import (
	"context"

	"github.com/sommelier-labs/cellars-indexer/internal/domain"
)

// EventHandler is called for each cellar event as it arrives
type EventHandler func(event *domain.CellarEvent) error

// Subscriber defines the interface for subscribing to cellar events
type Subscriber interface {
	// SubscribeEvents subscribes to cellar contract logs and chain ticks.
	// fromBlock is the starting point for the subscription (0 for latest);
	// handler processes each event.
	SubscribeEvents(ctx context.Context, fromBlock uint64, handler EventHandler) error

	// GetLatestBlock returns the latest block number
	GetLatestBlock(ctx context.Context) (uint64, error)

	// Close closes the connection and cleans up resources
	Close()
}
