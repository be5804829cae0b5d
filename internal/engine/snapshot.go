package engine

import (
	"context"
	"errors"
	"math/big"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sommelier-labs/cellars-indexer/internal/bignum"
	"github.com/sommelier-labs/cellars-indexer/internal/chain"
	"github.com/sommelier-labs/cellars-indexer/internal/domain"
	"github.com/sommelier-labs/cellars-indexer/internal/entities"
	"github.com/sommelier-labs/cellars-indexer/internal/logger"
	"github.com/sommelier-labs/cellars-indexer/internal/store/schema"
)

// vaultTotals is one observation of a cellar's on-chain balances,
// normalized to the canonical scale
type vaultTotals struct {
	active   *big.Int
	inactive *big.Int
	invested *big.Int
	// earningsZero is set when the active read reverted; the bucket then
	// reports zero earnings instead of a phantom loss
	earningsZero bool
}

// handleBlockTick runs a snapshot sweep when the chain head lands in the
// end-of-hour window and the platform cooldown has elapsed
func (e *Engine) handleBlockTick(ctx context.Context, event *domain.CellarEvent) error {
	now := event.Timestamp.Unix()
	if !withinSnapshotWindow(now) {
		return nil
	}

	platform, err := e.repo.LoadPlatform(ctx)
	if err != nil {
		return err
	}
	if platform.LatestSnapshotUpdatedAt != 0 && now-platform.LatestSnapshotUpdatedAt < domain.SnapshotIntervalSecs {
		return nil
	}

	e.snapshotAll(ctx, event)

	platform.LatestSnapshotUpdatedAt = now
	platform.LatestSnapshotUpdatedAtBlock = int64(event.Block)
	return e.repo.Store().SavePlatform(ctx, platform)
}

// handleSnapshotTick runs a sweep outside the end-of-hour window. The
// per-bucket cooldown still applies so a busy stablecoin cannot force
// continuous refreshes.
func (e *Engine) handleSnapshotTick(ctx context.Context, event *domain.CellarEvent) error {
	e.snapshotAll(ctx, event)
	return nil
}

func withinSnapshotWindow(ts int64) bool {
	return domain.SecondsPerHour-(ts%domain.SecondsPerHour) <= domain.SnapshotWindowSecs
}

// snapshotAll sweeps every registered cellar. A failing cellar is logged
// and skipped so one bad contract cannot stall the rest.
func (e *Engine) snapshotAll(ctx context.Context, event *domain.CellarEvent) {
	for _, address := range e.registry.Addresses() {
		cfg, _ := e.registry.Lookup(address)
		if event.Block < cfg.StartBlock {
			continue
		}
		if err := e.snapshotCellar(ctx, cfg, event); err != nil {
			logger.ErrorCtx(ctx, err, zap.String("cellar", address))
		}
	}
}

func (e *Engine) snapshotCellar(ctx context.Context, cfg domain.CellarConfig, event *domain.CellarEvent) error {
	cellar, err := e.repo.LoadCellar(ctx, cfg.Address)
	if err != nil {
		return err
	}

	asset := e.resolveAsset(ctx, cellar)
	if asset == "" {
		return nil
	}

	token, err := e.token(ctx, asset)
	if err != nil {
		return err
	}
	assetDecimals := uint8(token.Decimals)

	now := event.Timestamp.Unix()
	hour, err := e.repo.LoadCellarHourData(ctx, cellar.ID, asset, now)
	if err != nil {
		return err
	}
	if hour.UpdatedAt != 0 && now-hour.UpdatedAt < domain.BucketCooldownSecs {
		return nil
	}

	reader, ok := e.readers[cfg.Generation]
	if !ok {
		return errors.New("no vault reader for generation " + string(cfg.Generation))
	}

	totals := e.fetchTotals(ctx, reader, cfg, cellar, assetDecimals)
	shareValue := e.fetchShareValue(ctx, reader, cellar.ID)
	positions, distribution := e.refreshPositions(ctx, reader, cfg, cellar, event.Block)

	// an active balance drifting away from the event-tracked value means
	// yield accrued (or was lost) outside any handled event. A reverted
	// active read carries no observation, so no drift is recorded.
	if !totals.earningsZero && totals.active.Cmp(cellar.TvlActive.Big()) != 0 {
		delta := new(big.Int).Sub(totals.active, cellar.TvlActive.Big())
		err = e.repo.Store().CreateBalanceChange(ctx, &schema.BalanceChange{
			ID:        entities.BalanceChangeID(event.Block, cellar.ID),
			CellarID:  cellar.ID,
			Amount:    schema.NewBigIntFrom(delta),
			Block:     int64(event.Block),
			Timestamp: now,
		})
		if err != nil {
			return err
		}
	}

	prevHour, err := e.repo.GetPrevCellarHourData(ctx, cellar.ID, asset, now)
	if err != nil {
		return err
	}
	applyHourSnapshot(hour, prevHour, totals, shareValue, assetDecimals, distribution, now)

	day, err := e.repo.LoadCellarDayData(ctx, cellar.ID, asset, now)
	if err != nil {
		return err
	}
	prevDay, err := e.repo.GetPrevCellarDayData(ctx, cellar.ID, asset, now)
	if err != nil {
		return err
	}
	applyDaySnapshot(day, prevDay, totals, shareValue, assetDecimals, distribution, now)

	cellar.TvlActive.Assign(totals.active)
	cellar.TvlInactive.Assign(totals.inactive)
	recomputeTvlTotal(cellar)
	if shareValue != nil {
		cellar.ShareValue = schema.NewBigIntFrom(shareValue)
		cellar.ShareProfitRatio = shareProfitRatio(shareValue, assetDecimals)
	}
	cellar.Positions = positions
	cellar.PositionDistribution = distribution

	if err := e.repo.Store().SaveCellarHourData(ctx, hour); err != nil {
		return err
	}
	if err := e.repo.Store().SaveCellarDayData(ctx, day); err != nil {
		return err
	}
	return e.repo.Store().SaveCellar(ctx, cellar)
}

// fetchTotals reads the cellar's balances, degrading to zero on reverts.
// The first generation exposes active and holding sides directly; later
// generations report one total that is split by the holding token balance.
func (e *Engine) fetchTotals(ctx context.Context, reader chain.VaultReader, cfg domain.CellarConfig, cellar *schema.Cellar, assetDecimals uint8) *vaultTotals {
	totals := &vaultTotals{
		active:   new(big.Int),
		inactive: new(big.Int),
		invested: new(big.Int).Set(cellar.TvlInvested.Big()),
	}

	if cfg.Generation == domain.GenerationV1 {
		activeRaw, err := reader.TotalAssets(ctx, cellar.ID)
		if err != nil {
			e.logReadFailure(ctx, cellar.ID, "active total", err)
			totals.earningsZero = true
		} else {
			totals.active = bignum.NormalizeDecimals(activeRaw, assetDecimals)
		}

		holdingsRaw, err := reader.TotalHoldings(ctx, cellar.ID)
		if err != nil {
			e.logReadFailure(ctx, cellar.ID, "holdings total", err)
		} else {
			totals.inactive = bignum.NormalizeDecimals(holdingsRaw, assetDecimals)
		}
		return totals
	}

	totalRaw, err := reader.TotalAssets(ctx, cellar.ID)
	if err != nil {
		e.logReadFailure(ctx, cellar.ID, "asset total", err)
		totals.earningsZero = true
		return totals
	}
	total := bignum.NormalizeDecimals(totalRaw, assetDecimals)

	inactive := new(big.Int)
	holding, err := reader.HoldingAsset(ctx, cellar.ID)
	if err != nil {
		e.logReadFailure(ctx, cellar.ID, "holding position", err)
	} else if holdingToken, err := e.token(ctx, holding); err != nil {
		e.logReadFailure(ctx, cellar.ID, "holding token", err)
	} else if balance, err := e.erc20.BalanceOf(ctx, holding, cellar.ID); err != nil {
		e.logReadFailure(ctx, cellar.ID, "holding balance", err)
	} else {
		inactive = bignum.NormalizeDecimals(balance, uint8(holdingToken.Decimals))
	}

	totals.inactive = inactive
	totals.active = bignum.FloorZero(new(big.Int).Sub(total, inactive))
	return totals
}

// fetchShareValue prices one share in the asset's native decimals, nil
// when the read fails so stale values survive a bad block
func (e *Engine) fetchShareValue(ctx context.Context, reader chain.VaultReader, cellar string) *big.Int {
	shareValue, err := reader.ConvertToAssets(ctx, cellar, bignum.OneShare())
	if err != nil {
		e.logReadFailure(ctx, cellar, "share value", err)
		return nil
	}
	return shareValue
}

func (e *Engine) logReadFailure(ctx context.Context, cellar, what string, err error) {
	if errors.Is(err, chain.ErrReverted) {
		logger.DebugCtx(ctx, "vault read reverted",
			zap.String("cellar", cellar), zap.String("read", what))
		return
	}
	logger.WarnCtx(ctx, "vault read failed",
		zap.String("cellar", cellar), zap.String("read", what), zap.Error(err))
}

func applyHourSnapshot(hour, prev *schema.CellarHourData, totals *vaultTotals, shareValue *big.Int, assetDecimals uint8, distribution []decimal.Decimal, now int64) {
	hour.TvlActive.Assign(totals.active)
	hour.TvlInactive.Assign(totals.inactive)
	hour.TvlInvested.Assign(totals.invested)
	hour.TvlTotal.Assign(new(big.Int).Add(totals.active, totals.inactive))

	if totals.earningsZero || prev == nil {
		hour.Earnings.Assign(new(big.Int))
	} else {
		hour.Earnings.Assign(computeEarnings(totals, prev.TvlActive.Big(), prev.TvlInvested.Big()))
	}

	if shareValue != nil {
		hour.ShareValue.Assign(shareValue)
		updateCandle(hour.ShareValueLow, hour.ShareValueHigh, shareValue)
		hour.ShareProfitRatio = shareProfitRatio(shareValue, assetDecimals)
	}

	hour.PositionDistribution = distribution
	hour.UpdatedAt = now
}

func applyDaySnapshot(day, prev *schema.CellarDayData, totals *vaultTotals, shareValue *big.Int, assetDecimals uint8, distribution []decimal.Decimal, now int64) {
	day.TvlActive.Assign(totals.active)
	day.TvlInactive.Assign(totals.inactive)
	day.TvlInvested.Assign(totals.invested)
	day.TvlTotal.Assign(new(big.Int).Add(totals.active, totals.inactive))

	if totals.earningsZero || prev == nil {
		day.Earnings.Assign(new(big.Int))
	} else {
		day.Earnings.Assign(computeEarnings(totals, prev.TvlActive.Big(), prev.TvlInvested.Big()))
	}

	if shareValue != nil {
		day.ShareValue.Assign(shareValue)
		updateCandle(day.ShareValueLow, day.ShareValueHigh, shareValue)
		day.ShareProfitRatio = shareProfitRatio(shareValue, assetDecimals)
	}

	day.PositionDistribution = distribution
	day.UpdatedAt = now
}

// computeEarnings is the yield accrued since the previous bucket, floored
// at zero so principal movements never show as negative yield
func computeEarnings(totals *vaultTotals, prevActive, prevInvested *big.Int) *big.Int {
	current := new(big.Int).Sub(totals.active, totals.invested)
	previous := new(big.Int).Sub(prevActive, prevInvested)
	return bignum.FloorZero(current.Sub(current, previous))
}

// updateCandle widens the low/high candle with a new observation. The -1
// sentinel means the bucket has no observation yet.
func updateCandle(low, high *schema.BigInt, observed *big.Int) {
	if low.Big().Sign() < 0 || observed.Cmp(low.Big()) < 0 {
		low.Assign(observed)
	}
	if high.Big().Sign() < 0 || observed.Cmp(high.Big()) > 0 {
		high.Assign(observed)
	}
}

// shareProfitRatio is the gain of one share over par, in asset terms
func shareProfitRatio(shareValue *big.Int, assetDecimals uint8) decimal.Decimal {
	par := bignum.PowTen(assetDecimals)
	diff := new(big.Int).Sub(shareValue, par)
	return decimal.NewFromBigInt(diff, -int32(assetDecimals))
}
