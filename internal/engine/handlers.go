package engine

import (
	"context"
	"math/big"

	"go.uber.org/zap"

	"github.com/sommelier-labs/cellars-indexer/internal/bignum"
	"github.com/sommelier-labs/cellars-indexer/internal/domain"
	"github.com/sommelier-labs/cellars-indexer/internal/entities"
	"github.com/sommelier-labs/cellars-indexer/internal/logger"
	"github.com/sommelier-labs/cellars-indexer/internal/store/schema"
)

// liquidityEntities bundles the rows every liquidity handler touches
type liquidityEntities struct {
	cellar        *schema.Cellar
	wallet        *schema.Wallet
	walletCreated bool
	walletCellar  *schema.WalletCellarData
	walletDay     *schema.WalletDayData
	day           *schema.CellarDayData
	hour          *schema.CellarHourData
}

func (e *Engine) loadLiquidityEntities(ctx context.Context, event *domain.CellarEvent, cellar *schema.Cellar, asset string) (*liquidityEntities, error) {
	ts := event.Timestamp.Unix()

	wallet, created, err := e.repo.LoadWallet(ctx, event.Wallet)
	if err != nil {
		return nil, err
	}
	walletCellar, err := e.repo.LoadWalletCellarData(ctx, wallet.ID, cellar.ID)
	if err != nil {
		return nil, err
	}
	walletDay, err := e.repo.LoadWalletDayData(ctx, wallet.ID, ts)
	if err != nil {
		return nil, err
	}
	day, err := e.repo.LoadCellarDayData(ctx, cellar.ID, asset, ts)
	if err != nil {
		return nil, err
	}
	hour, err := e.repo.LoadCellarHourData(ctx, cellar.ID, asset, ts)
	if err != nil {
		return nil, err
	}

	le := &liquidityEntities{
		cellar:        cellar,
		wallet:        wallet,
		walletCreated: created,
		walletCellar:  walletCellar,
		walletDay:     walletDay,
		day:           day,
		hour:          hour,
	}
	if created {
		cellar.NumWalletsAllTime++
		cellar.NumWalletsActive++
		day.NumWallets++
		hour.NumWallets++
	}
	return le, nil
}

func (e *Engine) saveLiquidityEntities(ctx context.Context, le *liquidityEntities) error {
	st := e.repo.Store()
	if err := st.SaveWallet(ctx, le.wallet); err != nil {
		return err
	}
	if err := st.SaveWalletCellarData(ctx, le.walletCellar); err != nil {
		return err
	}
	if err := st.SaveWalletDayData(ctx, le.walletDay); err != nil {
		return err
	}
	if err := st.SaveCellarDayData(ctx, le.day); err != nil {
		return err
	}
	if err := st.SaveCellarHourData(ctx, le.hour); err != nil {
		return err
	}
	return st.SaveCellar(ctx, le.cellar)
}

func recomputeTvlTotal(cellar *schema.Cellar) {
	total := new(big.Int).Add(cellar.TvlActive.Big(), cellar.TvlInactive.Big())
	cellar.TvlTotal.Assign(total)
}

// normalize rescales an event amount from the token's native decimals to
// the canonical scale
func (e *Engine) normalize(ctx context.Context, token string, amount *big.Int) (*big.Int, error) {
	tok, err := e.token(ctx, token)
	if err != nil {
		return nil, err
	}
	return bignum.NormalizeDecimals(amount, uint8(tok.Decimals)), nil
}

func (e *Engine) handleDeposit(ctx context.Context, event *domain.CellarEvent) error {
	cellar, err := e.repo.LoadCellar(ctx, event.Cellar)
	if err != nil {
		return err
	}

	asset := e.resolveAsset(ctx, cellar)
	if asset == "" {
		logger.DebugCtx(ctx, "skipping deposit for cellar with unknown asset",
			zap.String("cellar", cellar.ID))
		return nil
	}

	amount, err := e.normalize(ctx, asset, event.Amount)
	if err != nil {
		return err
	}

	le, err := e.loadLiquidityEntities(ctx, event, cellar, asset)
	if err != nil {
		return err
	}

	cellar.AddedLiquidityAllTime.Incr(amount)
	cellar.TvlActive.Incr(amount)
	cellar.CurrentDeposits.Incr(amount)
	recomputeTvlTotal(cellar)

	le.wallet.TotalDeposits.Incr(amount)
	le.wallet.CurrentDeposits.Incr(amount)
	le.walletCellar.TotalDeposits.Incr(amount)
	le.walletCellar.CurrentDeposits.Incr(amount)

	le.day.AddedLiquidity.Incr(amount)
	le.hour.AddedLiquidity.Incr(amount)
	le.walletDay.AddedLiquidity.Incr(amount)

	err = e.repo.Store().CreateDepositWithdrawEvent(ctx, &schema.DepositWithdrawEvent{
		ID:        event.TxHash,
		CellarID:  cellar.ID,
		WalletID:  le.wallet.ID,
		Amount:    schema.NewBigIntFrom(amount),
		TxID:      event.TxHash,
		Block:     int64(event.Block),
		Timestamp: event.Timestamp.Unix(),
	})
	if err != nil {
		return err
	}

	return e.saveLiquidityEntities(ctx, le)
}

func (e *Engine) handleWithdraw(ctx context.Context, event *domain.CellarEvent) error {
	cellar, err := e.repo.LoadCellar(ctx, event.Cellar)
	if err != nil {
		return err
	}
	// a withdrawal cannot precede the deposit that revealed the asset
	if cellar.Asset == nil {
		logger.WarnCtx(ctx, "skipping withdraw for cellar with unknown asset",
			zap.String("cellar", cellar.ID))
		return nil
	}
	asset := *cellar.Asset

	amount, err := e.normalize(ctx, asset, event.Amount)
	if err != nil {
		return err
	}

	le, err := e.loadLiquidityEntities(ctx, event, cellar, asset)
	if err != nil {
		return err
	}

	cellar.RemovedLiquidityAllTime.Incr(amount)
	cellar.TvlActive.DecrFloorZero(amount)
	cellar.CurrentDeposits.DecrFloorZero(amount)
	recomputeTvlTotal(cellar)

	le.wallet.TotalWithdrawals.Incr(amount)
	le.wallet.CurrentDeposits.DecrFloorZero(amount)
	le.walletCellar.TotalWithdrawals.Incr(amount)
	le.walletCellar.CurrentDeposits.DecrFloorZero(amount)

	le.day.RemovedLiquidity.Incr(amount)
	le.hour.RemovedLiquidity.Incr(amount)
	le.walletDay.RemovedLiquidity.Incr(amount)

	err = e.repo.Store().CreateDepositWithdrawEvent(ctx, &schema.DepositWithdrawEvent{
		ID:        event.TxHash,
		CellarID:  cellar.ID,
		WalletID:  le.wallet.ID,
		Amount:    schema.NewBigIntFrom(new(big.Int).Neg(amount)),
		TxID:      event.TxHash,
		Block:     int64(event.Block),
		Timestamp: event.Timestamp.Unix(),
	})
	if err != nil {
		return err
	}

	return e.saveLiquidityEntities(ctx, le)
}

func (e *Engine) handleAddLiquidity(ctx context.Context, event *domain.CellarEvent) error {
	cellar, err := e.repo.LoadCellar(ctx, event.Cellar)
	if err != nil {
		return err
	}

	asset := e.setAsset(cellar, event.Token)
	if asset == "" {
		asset = e.resolveAsset(ctx, cellar)
	}
	if asset == "" {
		return nil
	}

	amount, err := e.normalize(ctx, asset, event.Amount)
	if err != nil {
		return err
	}

	le, err := e.loadLiquidityEntities(ctx, event, cellar, asset)
	if err != nil {
		return err
	}

	// first-generation liquidity lands in the holding pool
	cellar.AddedLiquidityAllTime.Incr(amount)
	cellar.TvlInactive.Incr(amount)
	cellar.CurrentDeposits.Incr(amount)
	recomputeTvlTotal(cellar)

	le.wallet.TotalDeposits.Incr(amount)
	le.wallet.CurrentDeposits.Incr(amount)
	le.walletCellar.TotalDeposits.Incr(amount)
	le.walletCellar.CurrentDeposits.Incr(amount)

	le.day.AddedLiquidity.Incr(amount)
	le.hour.AddedLiquidity.Incr(amount)
	le.walletDay.AddedLiquidity.Incr(amount)

	err = e.repo.Store().CreateAddRemoveEvent(ctx, &schema.AddRemoveEvent{
		ID:        entities.AddRemoveID(event.Timestamp.Unix(), le.wallet.ID),
		CellarID:  cellar.ID,
		WalletID:  le.wallet.ID,
		Amount:    schema.NewBigIntFrom(amount),
		TxID:      event.TxHash,
		Block:     int64(event.Block),
		Timestamp: event.Timestamp.Unix(),
	})
	if err != nil {
		return err
	}

	return e.saveLiquidityEntities(ctx, le)
}

func (e *Engine) handleRemoveLiquidity(ctx context.Context, event *domain.CellarEvent) error {
	cellar, err := e.repo.LoadCellar(ctx, event.Cellar)
	if err != nil {
		return err
	}

	asset := e.setAsset(cellar, event.Token)
	if asset == "" {
		return nil
	}

	amount, err := e.normalize(ctx, asset, event.Amount)
	if err != nil {
		return err
	}

	le, err := e.loadLiquidityEntities(ctx, event, cellar, asset)
	if err != nil {
		return err
	}

	cellar.RemovedLiquidityAllTime.Incr(amount)
	cellar.TvlInactive.DecrFloorZero(amount)
	cellar.CurrentDeposits.DecrFloorZero(amount)
	recomputeTvlTotal(cellar)

	le.wallet.TotalWithdrawals.Incr(amount)
	le.wallet.CurrentDeposits.DecrFloorZero(amount)
	le.walletCellar.TotalWithdrawals.Incr(amount)
	le.walletCellar.CurrentDeposits.DecrFloorZero(amount)

	le.day.RemovedLiquidity.Incr(amount)
	le.hour.RemovedLiquidity.Incr(amount)
	le.walletDay.RemovedLiquidity.Incr(amount)

	err = e.repo.Store().CreateAddRemoveEvent(ctx, &schema.AddRemoveEvent{
		ID:        entities.AddRemoveID(event.Timestamp.Unix(), le.wallet.ID),
		CellarID:  cellar.ID,
		WalletID:  le.wallet.ID,
		Amount:    schema.NewBigIntFrom(new(big.Int).Neg(amount)),
		TxID:      event.TxHash,
		Block:     int64(event.Block),
		Timestamp: event.Timestamp.Unix(),
	})
	if err != nil {
		return err
	}

	return e.saveLiquidityEntities(ctx, le)
}

func (e *Engine) handleDepositToPosition(ctx context.Context, event *domain.CellarEvent) error {
	cellar, err := e.repo.LoadCellar(ctx, event.Cellar)
	if err != nil {
		return err
	}

	// the position token doubles as the asset reveal for first-generation
	// cellars
	position := e.setAsset(cellar, event.Token)
	if position == "" {
		return nil
	}

	amount, err := e.normalize(ctx, position, event.Amount)
	if err != nil {
		return err
	}

	cellar.TvlActive.Incr(amount)
	cellar.TvlInactive.DecrFloorZero(amount)
	cellar.TvlInvested.Incr(amount)
	recomputeTvlTotal(cellar)

	err = e.repo.Store().CreateDepositWithdrawAaveEvent(ctx, &schema.DepositWithdrawAaveEvent{
		ID:        entities.PositionEventID(event.TxHash, event.LogIndex),
		CellarID:  cellar.ID,
		Position:  position,
		Amount:    schema.NewBigIntFrom(amount),
		TxID:      event.TxHash,
		Block:     int64(event.Block),
		Timestamp: event.Timestamp.Unix(),
	})
	if err != nil {
		return err
	}

	return e.repo.Store().SaveCellar(ctx, cellar)
}

func (e *Engine) handleWithdrawFromPosition(ctx context.Context, event *domain.CellarEvent) error {
	cellar, err := e.repo.LoadCellar(ctx, event.Cellar)
	if err != nil {
		return err
	}
	if cellar.Asset == nil {
		logger.WarnCtx(ctx, "skipping position withdraw for cellar with unknown asset",
			zap.String("cellar", cellar.ID))
		return nil
	}

	position := domain.NormalizeAddress(event.Token)
	if position == "" {
		position = *cellar.Asset
	}

	amount, err := e.normalize(ctx, position, event.Amount)
	if err != nil {
		return err
	}

	cellar.TvlActive.DecrFloorZero(amount)
	cellar.TvlInactive.Incr(amount)
	cellar.TvlInvested.DecrFloorZero(amount)
	recomputeTvlTotal(cellar)

	err = e.repo.Store().CreateDepositWithdrawAaveEvent(ctx, &schema.DepositWithdrawAaveEvent{
		ID:        entities.PositionEventID(event.TxHash, event.LogIndex),
		CellarID:  cellar.ID,
		Position:  position,
		Amount:    schema.NewBigIntFrom(new(big.Int).Neg(amount)),
		TxID:      event.TxHash,
		Block:     int64(event.Block),
		Timestamp: event.Timestamp.Unix(),
	})
	if err != nil {
		return err
	}

	return e.repo.Store().SaveCellar(ctx, cellar)
}

func (e *Engine) handleTransfer(ctx context.Context, event *domain.CellarEvent) error {
	// a zero-to-zero transfer moves nothing and must not register the
	// zero address as a wallet
	if event.From == domain.ZeroAddress && event.To == domain.ZeroAddress {
		return nil
	}

	cellar, err := e.repo.LoadCellar(ctx, event.Cellar)
	if err != nil {
		return err
	}

	switch {
	case event.IsMint():
		if err := e.applyShareCredit(ctx, event, cellar, event.To); err != nil {
			return err
		}
		cellar.SharesTotal.Incr(event.Amount)

	case event.IsBurn():
		if err := e.applyShareDebit(ctx, event, cellar, event.From); err != nil {
			return err
		}
		cellar.SharesTotal.DecrFloorZero(event.Amount)

	default:
		if err := e.applyShareDebit(ctx, event, cellar, event.From); err != nil {
			return err
		}
		if err := e.applyShareCredit(ctx, event, cellar, event.To); err != nil {
			return err
		}
	}

	return e.repo.Store().SaveCellar(ctx, cellar)
}

// applyShareCredit adds shares to the receiving wallet, registering the
// wallet on first sight
func (e *Engine) applyShareCredit(ctx context.Context, event *domain.CellarEvent, cellar *schema.Cellar, address string) error {
	wallet, created, err := e.repo.LoadWallet(ctx, address)
	if err != nil {
		return err
	}
	if created {
		cellar.NumWalletsAllTime++
		cellar.NumWalletsActive++
		if err := e.bumpBucketWallets(ctx, cellar, event.Timestamp.Unix()); err != nil {
			return err
		}
	}

	share, err := e.repo.LoadCellarShare(ctx, wallet.ID, cellar.ID)
	if err != nil {
		return err
	}
	share.Balance.Incr(event.Amount)

	if err := e.repo.Store().SaveWallet(ctx, wallet); err != nil {
		return err
	}
	if err := e.repo.Store().SaveCellarShare(ctx, share); err != nil {
		return err
	}
	return e.recordShareTransfer(ctx, event, cellar.ID, wallet.ID)
}

// applyShareDebit removes shares from the sending wallet and retires the
// wallet from the active count when its balance empties
func (e *Engine) applyShareDebit(ctx context.Context, event *domain.CellarEvent, cellar *schema.Cellar, address string) error {
	wallet, _, err := e.repo.LoadWallet(ctx, address)
	if err != nil {
		return err
	}

	share, err := e.repo.LoadCellarShare(ctx, wallet.ID, cellar.ID)
	if err != nil {
		return err
	}
	share.Balance.DecrFloorZero(event.Amount)
	if share.Balance.IsZero() && cellar.NumWalletsActive > 0 {
		cellar.NumWalletsActive--
	}

	if err := e.repo.Store().SaveWallet(ctx, wallet); err != nil {
		return err
	}
	if err := e.repo.Store().SaveCellarShare(ctx, share); err != nil {
		return err
	}
	return e.recordShareTransfer(ctx, event, cellar.ID, wallet.ID)
}

func (e *Engine) recordShareTransfer(ctx context.Context, event *domain.CellarEvent, cellar, wallet string) error {
	ts := event.Timestamp.Unix()
	return e.repo.Store().CreateCellarShareTransfer(ctx, &schema.CellarShareTransfer{
		ID:        entities.ShareTransferID(ts, cellar, wallet, event.LogIndex),
		CellarID:  cellar,
		WalletID:  wallet,
		From:      domain.NormalizeAddress(event.From),
		To:        domain.NormalizeAddress(event.To),
		Amount:    schema.NewBigIntFrom(event.Amount),
		TxHash:    event.TxHash,
		LogIndex:  int64(event.LogIndex),
		Block:     int64(event.Block),
		Timestamp: ts,
	})
}

// bumpBucketWallets counts a newly seen wallet into the current day and
// hour buckets. Skipped while the cellar asset is still unknown since
// bucket keys embed it.
func (e *Engine) bumpBucketWallets(ctx context.Context, cellar *schema.Cellar, ts int64) error {
	if cellar.Asset == nil {
		return nil
	}

	day, err := e.repo.LoadCellarDayData(ctx, cellar.ID, *cellar.Asset, ts)
	if err != nil {
		return err
	}
	hour, err := e.repo.LoadCellarHourData(ctx, cellar.ID, *cellar.Asset, ts)
	if err != nil {
		return err
	}

	day.NumWallets++
	hour.NumWallets++

	if err := e.repo.Store().SaveCellarDayData(ctx, day); err != nil {
		return err
	}
	return e.repo.Store().SaveCellarHourData(ctx, hour)
}

func (e *Engine) handleLiquidityLimitChanged(ctx context.Context, event *domain.CellarEvent) error {
	cellar, err := e.repo.LoadCellar(ctx, event.Cellar)
	if err != nil {
		return err
	}
	cellar.LiquidityLimit = schema.NewBigIntFrom(event.Limit)
	return e.repo.Store().SaveCellar(ctx, cellar)
}

func (e *Engine) handleDepositLimitChanged(ctx context.Context, event *domain.CellarEvent) error {
	cellar, err := e.repo.LoadCellar(ctx, event.Cellar)
	if err != nil {
		return err
	}
	cellar.DepositLimit = schema.NewBigIntFrom(event.Limit)
	return e.repo.Store().SaveCellar(ctx, cellar)
}

func (e *Engine) handleLiquidityRestrictionLifted(ctx context.Context, event *domain.CellarEvent) error {
	cellar, err := e.repo.LoadCellar(ctx, event.Cellar)
	if err != nil {
		return err
	}
	cellar.LiquidityLimit = nil
	return e.repo.Store().SaveCellar(ctx, cellar)
}
