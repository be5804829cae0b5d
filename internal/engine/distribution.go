package engine

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/sommelier-labs/cellars-indexer/internal/bignum"
	"github.com/sommelier-labs/cellars-indexer/internal/chain"
	"github.com/sommelier-labs/cellars-indexer/internal/domain"
	"github.com/sommelier-labs/cellars-indexer/internal/store/schema"
)

// refreshPositions reads the cellar's position set and its USD weight
// distribution. When the position list itself cannot be read the stale
// set is kept. Balance failures degrade per generation: the second
// generation drops the whole distribution because a partial one would
// misstate the weights it reports, the third prices the failing position
// at zero and keeps the rest.
func (e *Engine) refreshPositions(ctx context.Context, reader chain.VaultReader, cfg domain.CellarConfig, cellar *schema.Cellar, block uint64) ([]string, []decimal.Decimal) {
	if cfg.Generation == domain.GenerationV1 {
		return cellar.Positions, cellar.PositionDistribution
	}

	positions, err := reader.Positions(ctx, cellar.ID)
	if err != nil {
		e.logReadFailure(ctx, cellar.ID, "positions", err)
		return cellar.Positions, cellar.PositionDistribution
	}

	values := make([]decimal.Decimal, len(positions))
	total := decimal.Zero
	for i, position := range positions {
		value, err := e.positionUsdValue(ctx, cellar.ID, position, block)
		if err != nil {
			e.logReadFailure(ctx, cellar.ID, "position value", err)
			if cfg.Generation == domain.GenerationV1_5 {
				return positions, []decimal.Decimal{}
			}
			value = decimal.Zero
		}
		values[i] = value
		total = total.Add(value)
	}

	weights := make([]decimal.Decimal, len(positions))
	for i := range weights {
		weights[i] = decimal.Zero
		if total.IsPositive() {
			weights[i] = values[i].Div(total)
		}
	}
	return positions, weights
}

// positionUsdValue prices the cellar's balance of one position token
func (e *Engine) positionUsdValue(ctx context.Context, cellar, position string, block uint64) (decimal.Decimal, error) {
	token, err := e.token(ctx, position)
	if err != nil {
		return decimal.Zero, err
	}

	balance, err := e.erc20.BalanceOf(ctx, position, cellar)
	if err != nil {
		return decimal.Zero, err
	}

	price, err := e.oracle.UsdPrice(ctx, position, block)
	if err != nil {
		return decimal.Zero, err
	}

	return bignum.AmountToDecimal(balance, uint8(token.Decimals)).Mul(price), nil
}
