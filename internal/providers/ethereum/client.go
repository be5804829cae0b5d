package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/sommelier-labs/cellars-indexer/internal/adapter"
	"github.com/sommelier-labs/cellars-indexer/internal/domain"
)

type EthereumClient interface {
	// ParseEventLog parses an Ethereum log into a normalized cellar event.
	// Logs that are not relevant to any tracked cellar return (nil, nil).
	ParseEventLog(ctx context.Context, vLog types.Log) (*domain.CellarEvent, error)

	// SubscribeFilterLogs subscribes to filter logs
	SubscribeFilterLogs(ctx context.Context, query ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error)

	// SubscribeNewHead subscribes to new chain head notifications
	SubscribeNewHead(ctx context.Context, ch chan<- *types.Header) (ethereum.Subscription, error)

	// FilterLogs retrieves historical logs matching the query
	FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error)

	// HeaderByNumber returns a header by number
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)

	// Close closes the connection
	Close()
}

type ethereumClient struct {
	chainID  domain.Chain
	client   adapter.EthClient
	registry domain.Registry
	clock    adapter.Clock

	// a block usually carries several relevant logs, so the last
	// resolved header timestamp is kept to avoid repeat round trips
	mu            sync.Mutex
	lastBlockNum  uint64
	lastBlockTime time.Time
}

// NewClient creates an Ethereum client that parses logs for the tracked cellars
func NewClient(chainID domain.Chain, client adapter.EthClient, registry domain.Registry, clock adapter.Clock) EthereumClient {
	return &ethereumClient{
		chainID:  chainID,
		client:   client,
		registry: registry,
		clock:    clock,
	}
}

// SubscribeFilterLogs subscribes to filter logs
func (c *ethereumClient) SubscribeFilterLogs(ctx context.Context, query ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	return c.client.SubscribeFilterLogs(ctx, query, ch)
}

// SubscribeNewHead subscribes to new chain head notifications
func (c *ethereumClient) SubscribeNewHead(ctx context.Context, ch chan<- *types.Header) (ethereum.Subscription, error) {
	return c.client.SubscribeNewHead(ctx, ch)
}

// FilterLogs retrieves historical logs matching the query
func (c *ethereumClient) FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	return c.client.FilterLogs(ctx, query)
}

// HeaderByNumber returns a header by number
func (c *ethereumClient) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	return c.client.HeaderByNumber(ctx, number)
}

// blockTime resolves a block's timestamp, serving repeats from the cache
func (c *ethereumClient) blockTime(ctx context.Context, number uint64) (time.Time, error) {
	c.mu.Lock()
	if c.lastBlockNum == number && !c.lastBlockTime.IsZero() {
		t := c.lastBlockTime
		c.mu.Unlock()
		return t, nil
	}
	c.mu.Unlock()

	header, err := c.client.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get block %d: %w", number, err)
	}

	t := c.clock.Unix(int64(header.Time), 0) //nolint:gosec,G115 // header.Time is a uint64 from geth which is safe to cast

	c.mu.Lock()
	c.lastBlockNum = number
	c.lastBlockTime = t
	c.mu.Unlock()

	return t, nil
}

// Close closes the connection
func (c *ethereumClient) Close() {
	c.client.Close()
}
