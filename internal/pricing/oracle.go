// Package pricing quotes token prices in USD for position weighting.
// Quotes are cached per token and block so replays and multi-position
// snapshots do not hammer the price source.
package pricing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/sommelier-labs/cellars-indexer/internal/entities"
	"github.com/sommelier-labs/cellars-indexer/internal/store"
	"github.com/sommelier-labs/cellars-indexer/internal/store/schema"
)

// Source quotes a token's current USD unit price
type Source interface {
	UsdPrice(ctx context.Context, token string) (decimal.Decimal, error)
}

// Oracle quotes a token's USD unit price pinned to a block
type Oracle interface {
	UsdPrice(ctx context.Context, token string, block uint64) (decimal.Decimal, error)
}

type cachedOracle struct {
	store  store.Store
	source Source
}

// NewCachedOracle wraps a price source with a persistent per-block cache
func NewCachedOracle(st store.Store, source Source) Oracle {
	return &cachedOracle{store: st, source: source}
}

func (o *cachedOracle) UsdPrice(ctx context.Context, token string, block uint64) (decimal.Decimal, error) {
	id := entities.TokenPriceID(token, block)

	cached, err := o.store.GetTokenPrice(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	if cached != nil {
		return cached.PriceUSD, nil
	}

	price, err := o.source.UsdPrice(ctx, token)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to quote %s: %w", token, err)
	}

	err = o.store.SaveTokenPrice(ctx, &schema.TokenPrice{
		ID:       id,
		TokenID:  token,
		Block:    int64(block),
		PriceUSD: price,
	})
	if err != nil {
		return decimal.Zero, err
	}

	return price, nil
}

// StaticSource serves fixed prices, for tests and dry runs
type StaticSource map[string]decimal.Decimal

func (s StaticSource) UsdPrice(_ context.Context, token string) (decimal.Decimal, error) {
	price, ok := s[token]
	if !ok {
		return decimal.Zero, fmt.Errorf("no static price for %s", token)
	}
	return price, nil
}
