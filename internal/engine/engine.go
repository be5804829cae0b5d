// Package engine folds normalized cellar events into the aggregated
// entities. It is the single writer over the store; the indexer feeds it
// one event at a time in log order.
package engine

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/sommelier-labs/cellars-indexer/internal/chain"
	"github.com/sommelier-labs/cellars-indexer/internal/domain"
	"github.com/sommelier-labs/cellars-indexer/internal/entities"
	"github.com/sommelier-labs/cellars-indexer/internal/logger"
	"github.com/sommelier-labs/cellars-indexer/internal/pricing"
	"github.com/sommelier-labs/cellars-indexer/internal/store"
	"github.com/sommelier-labs/cellars-indexer/internal/store/schema"
)

// Engine applies cellar events and periodic snapshots to the entity store
type Engine struct {
	repo     *entities.Repository
	registry domain.Registry
	readers  map[domain.Generation]chain.VaultReader
	erc20    chain.ERC20Reader
	oracle   pricing.Oracle
}

// New creates an engine. The readers map must cover every generation
// present in the registry.
func New(
	repo *entities.Repository,
	registry domain.Registry,
	readers map[domain.Generation]chain.VaultReader,
	erc20 chain.ERC20Reader,
	oracle pricing.Oracle,
) *Engine {
	return &Engine{
		repo:     repo,
		registry: registry,
		readers:  readers,
		erc20:    erc20,
		oracle:   oracle,
	}
}

// Handle applies one event inside a single store transaction, so a
// failing handler leaves no partial state behind for the redelivery to
// double-count. Events must arrive in chain order; replays of an already
// applied record are absorbed by the immutable-row keys, but aggregate
// counters are not otherwise deduplicated.
func (e *Engine) Handle(ctx context.Context, event *domain.CellarEvent) error {
	return e.repo.Store().Transaction(ctx, func(st store.Store) error {
		tx := *e
		tx.repo = entities.NewRepository(st)
		return tx.apply(ctx, event)
	})
}

func (e *Engine) apply(ctx context.Context, event *domain.CellarEvent) error {
	switch event.Kind {
	case domain.EventKindBlockTick:
		return e.handleBlockTick(ctx, event)
	case domain.EventKindSnapshotTick:
		return e.handleSnapshotTick(ctx, event)
	case domain.EventKindDeposit:
		return e.handleDeposit(ctx, event)
	case domain.EventKindWithdraw:
		return e.handleWithdraw(ctx, event)
	case domain.EventKindAddLiquidity:
		return e.handleAddLiquidity(ctx, event)
	case domain.EventKindRemoveLiquidity:
		return e.handleRemoveLiquidity(ctx, event)
	case domain.EventKindDepositToPosition:
		return e.handleDepositToPosition(ctx, event)
	case domain.EventKindWithdrawFromPosition:
		return e.handleWithdrawFromPosition(ctx, event)
	case domain.EventKindTransfer:
		return e.handleTransfer(ctx, event)
	case domain.EventKindLiquidityLimitChanged:
		return e.handleLiquidityLimitChanged(ctx, event)
	case domain.EventKindDepositLimitChanged:
		return e.handleDepositLimitChanged(ctx, event)
	case domain.EventKindLiquidityRestrictionLifted:
		return e.handleLiquidityRestrictionLifted(ctx, event)
	default:
		return fmt.Errorf("%w: %s", domain.ErrUnknownEventKind, event.Kind)
	}
}

// token returns the cached ERC20 row, reading symbol and decimals from
// the chain on first sight. A token whose decimals getter reverts is
// pinned at zero and cached that way, so its amounts scale as whole
// units from then on; a missing symbol is tolerated.
func (e *Engine) token(ctx context.Context, address string) (*schema.TokenERC20, error) {
	address = domain.NormalizeAddress(address)

	token, err := e.repo.Store().GetTokenERC20(ctx, address)
	if err != nil {
		return nil, err
	}
	if token != nil {
		return token, nil
	}

	decimals, err := e.erc20.Decimals(ctx, address)
	if err != nil {
		if !errors.Is(err, chain.ErrReverted) {
			return nil, fmt.Errorf("failed to read decimals of %s: %w", address, err)
		}
		logger.WarnCtx(ctx, "token decimals reverted, caching as zero",
			zap.String("token", address))
		decimals = 0
	}

	symbol, err := e.erc20.Symbol(ctx, address)
	if err != nil {
		logger.WarnCtx(ctx, "failed to read token symbol",
			zap.String("token", address), zap.Error(err))
		symbol = ""
	}

	token = &schema.TokenERC20{
		ID:       address,
		Symbol:   symbol,
		Decimals: decimals,
	}
	if err := e.repo.Store().SaveTokenERC20(ctx, token); err != nil {
		return nil, err
	}
	return token, nil
}

// resolveAsset returns the cellar's underlying asset address, querying
// the vault when the cellar has not revealed it yet. Returns "" when the
// asset is still unknown; handlers that need it bail out quietly.
func (e *Engine) resolveAsset(ctx context.Context, cellar *schema.Cellar) string {
	if cellar.Asset != nil {
		return *cellar.Asset
	}

	cfg, ok := e.registry.Lookup(cellar.ID)
	if !ok {
		return ""
	}
	reader, ok := e.readers[cfg.Generation]
	if !ok {
		return ""
	}

	asset, err := reader.HoldingAsset(ctx, cellar.ID)
	if err != nil {
		if !errors.Is(err, chain.ErrUnsupported) {
			logger.WarnCtx(ctx, "failed to resolve cellar asset",
				zap.String("cellar", cellar.ID), zap.Error(err))
		}
		return ""
	}

	asset = domain.NormalizeAddress(asset)
	cellar.Asset = &asset
	return asset
}

// setAsset pins the cellar asset from an event carried token address
func (e *Engine) setAsset(cellar *schema.Cellar, token string) string {
	if cellar.Asset != nil {
		return *cellar.Asset
	}
	if token == "" {
		return ""
	}
	asset := domain.NormalizeAddress(token)
	cellar.Asset = &asset
	return asset
}
