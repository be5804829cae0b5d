package ethereum

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/sommelier-labs/cellars-indexer/internal/adapter"
	"github.com/sommelier-labs/cellars-indexer/internal/domain"
	"github.com/sommelier-labs/cellars-indexer/internal/logger"
	"github.com/sommelier-labs/cellars-indexer/internal/messaging"
)

// Config holds the configuration for Ethereum subscription
type Config struct {
	WebSocketURL string       // WebSocket URL (e.g., wss://mainnet.infura.io/ws/v3/YOUR_PROJECT_ID)
	ChainID      domain.Chain // e.g., "eip155:1" for Ethereum mainnet
}

type ethSubscriber struct {
	client   EthereumClient
	chainID  domain.Chain
	registry domain.Registry
	clock    adapter.Clock
}

// NewSubscriber creates a new Ethereum event subscriber for the tracked cellars
func NewSubscriber(cfg Config, ethereumClient EthereumClient, registry domain.Registry, clock adapter.Clock) (messaging.Subscriber, error) {
	if len(registry) == 0 {
		return nil, fmt.Errorf("registry has no cellars to track")
	}

	return &ethSubscriber{
		client:   ethereumClient,
		chainID:  cfg.ChainID,
		registry: registry,
		clock:    clock,
	}, nil
}

// watchedAddresses returns the cellar contracts plus USDC, whose transfer
// logs drive snapshot ticks
func (s *ethSubscriber) watchedAddresses() []common.Address {
	addrs := make([]common.Address, 0, len(s.registry)+1)
	for _, a := range s.registry.Addresses() {
		addrs = append(addrs, common.HexToAddress(a))
	}
	addrs = append(addrs, common.HexToAddress(domain.USDCAddress))
	return addrs
}

// SubscribeEvents subscribes to cellar contract logs and chain head ticks
func (s *ethSubscriber) SubscribeEvents(ctx context.Context, fromBlock uint64, handler messaging.EventHandler) error {
	query := ethereum.FilterQuery{
		Addresses: s.watchedAddresses(),
		Topics:    [][]common.Hash{cellarEventSignatures()},
	}
	if fromBlock > 0 {
		query.FromBlock = new(big.Int).SetUint64(fromBlock)
	}

	logs := make(chan types.Log)
	sub, err := s.client.SubscribeFilterLogs(ctx, query, logs)
	if err != nil {
		return fmt.Errorf("failed to subscribe to filter logs: %w", err)
	}
	defer func() {
		logger.InfoCtx(ctx, "Unsubscribing from cellar event logs")
		sub.Unsubscribe()
		logger.InfoCtx(ctx, "Unsubscribed from cellar event logs")
	}()

	heads := make(chan *types.Header)
	headSub, err := s.client.SubscribeNewHead(ctx, heads)
	if err != nil {
		return fmt.Errorf("failed to subscribe to new heads: %w", err)
	}
	defer headSub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-sub.Err():
			return fmt.Errorf("subscription error: %w", err)
		case err := <-headSub.Err():
			return fmt.Errorf("head subscription error: %w", err)
		case header := <-heads:
			event := &domain.CellarEvent{
				Chain:     s.chainID,
				Kind:      domain.EventKindBlockTick,
				Block:     header.Number.Uint64(),
				Timestamp: s.clock.Unix(int64(header.Time), 0), //nolint:gosec,G115 // header.Time is a uint64 from geth which is safe to cast
			}

			if err := handler(event); err != nil {
				logger.ErrorCtx(ctx, err, zap.String("message", "Error handling block tick"))
			}
		case vLog := <-logs:
			event, err := s.client.ParseEventLog(ctx, vLog)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.ErrorCtx(ctx, err, zap.String("message", "Error parsing log"))
				continue
			}

			if event == nil {
				continue
			}

			if err := handler(event); err != nil {
				logger.ErrorCtx(ctx, err, zap.String("message", "Error handling event"))
			}
		}
	}
}

// GetLatestBlock returns the latest block number
func (s *ethSubscriber) GetLatestBlock(ctx context.Context) (uint64, error) {
	header, err := s.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to get latest block: %w", err)
	}
	return header.Number.Uint64(), nil
}

// Close closes the connection
func (s *ethSubscriber) Close() {
	if s.client == nil {
		return
	}

	s.client.Close()
	logger.Info("Ethereum WebSocket connection closed")
}
