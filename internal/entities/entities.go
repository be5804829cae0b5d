// Package entities holds the load-or-create constructors for the cellar
// aggregates. Entity keys are part of the external contract: downstream
// consumers address rows by these exact formats.
package entities

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/sommelier-labs/cellars-indexer/internal/domain"
	"github.com/sommelier-labs/cellars-indexer/internal/store"
	"github.com/sommelier-labs/cellars-indexer/internal/store/schema"
)

// DefaultCellarName seeds newly discovered cellars until a metadata
// refresh supplies the real name
const DefaultCellarName = "AaveStablecoinCellar"

// DayStart floors an epoch-second timestamp to the start of its UTC day
func DayStart(timestamp int64) int64 {
	return timestamp - (timestamp % domain.SecondsPerDay)
}

// HourStart floors an epoch-second timestamp to the start of its hour
func HourStart(timestamp int64) int64 {
	return timestamp - (timestamp % domain.SecondsPerHour)
}

// BucketID builds a cellar day/hour bucket key
func BucketID(cellar, asset string, bucketStart int64) string {
	return fmt.Sprintf("%s-%s-%d", cellar, asset, bucketStart)
}

// WalletDayID builds a wallet day bucket key
func WalletDayID(dayStart int64, wallet string) string {
	return fmt.Sprintf("%d-%s", dayStart, wallet)
}

// ShareID builds a cellar share key
func ShareID(wallet, cellar string) string {
	return fmt.Sprintf("%s-%s", wallet, cellar)
}

// ShareTransferID builds a share transfer record key. The log index
// disambiguates multiple transfers touching the same wallet in the same
// second.
func ShareTransferID(timestamp int64, cellar, wallet string, logIndex uint) string {
	return fmt.Sprintf("%d-%s-%s-%d", timestamp, cellar, wallet, logIndex)
}

// AddRemoveID builds a liquidity event record key
func AddRemoveID(timestamp int64, wallet string) string {
	return fmt.Sprintf("%d-%s", timestamp, wallet)
}

// PositionEventID builds a position deposit/withdraw record key
func PositionEventID(txHash string, logIndex uint) string {
	return fmt.Sprintf("%s-%d", txHash, logIndex)
}

// BalanceChangeID builds a balance change record key
func BalanceChangeID(block uint64, cellar string) string {
	return fmt.Sprintf("%d-%s", block, cellar)
}

// TokenPriceID builds a token price cache key
func TokenPriceID(token string, block uint64) string {
	return fmt.Sprintf("%s-%d", token, block)
}

// Repository wraps a Store with the load-or-create constructors.
// Loads never persist the freshly created entity; the handler saves
// everything it touched at the end of the invocation.
type Repository struct {
	store store.Store
}

// NewRepository creates a repository over the given store
func NewRepository(st store.Store) *Repository {
	return &Repository{store: st}
}

// Store exposes the underlying store for direct record inserts
func (r *Repository) Store() store.Store {
	return r.store
}

// LoadCellar returns the cellar aggregate, creating it with canonical
// zero values on first sight. The asset stays nil until a position
// deposit reveals it.
func (r *Repository) LoadCellar(ctx context.Context, address string) (*schema.Cellar, error) {
	address = domain.NormalizeAddress(address)
	cellar, err := r.store.GetCellar(ctx, address)
	if err != nil {
		return nil, err
	}
	if cellar != nil {
		return cellar, nil
	}

	return &schema.Cellar{
		ID:                      address,
		Name:                    DefaultCellarName,
		TvlActive:               schema.NewBigInt(0),
		TvlInactive:             schema.NewBigInt(0),
		TvlInvested:             schema.NewBigInt(0),
		TvlTotal:                schema.NewBigInt(0),
		CurrentDeposits:         schema.NewBigInt(0),
		AddedLiquidityAllTime:   schema.NewBigInt(0),
		RemovedLiquidityAllTime: schema.NewBigInt(0),
		SharesTotal:             schema.NewBigInt(0),
		ShareProfitRatio:        decimal.Zero,
	}, nil
}

// LoadWallet returns the wallet aggregate. The created flag tells the
// caller to bump the owning cellar's wallet counters exactly once.
func (r *Repository) LoadWallet(ctx context.Context, address string) (wallet *schema.Wallet, created bool, err error) {
	address = domain.NormalizeAddress(address)
	wallet, err = r.store.GetWallet(ctx, address)
	if err != nil {
		return nil, false, err
	}
	if wallet != nil {
		return wallet, false, nil
	}

	return &schema.Wallet{
		ID:               address,
		TotalDeposits:    schema.NewBigInt(0),
		CurrentDeposits:  schema.NewBigInt(0),
		TotalWithdrawals: schema.NewBigInt(0),
	}, true, nil
}

// LoadWalletCellarData returns the wallet's per-cellar totals
func (r *Repository) LoadWalletCellarData(ctx context.Context, wallet, cellar string) (*schema.WalletCellarData, error) {
	id := ShareID(wallet, cellar)
	data, err := r.store.GetWalletCellarData(ctx, id)
	if err != nil {
		return nil, err
	}
	if data != nil {
		return data, nil
	}

	return &schema.WalletCellarData{
		ID:               id,
		WalletID:         wallet,
		CellarID:         cellar,
		TotalDeposits:    schema.NewBigInt(0),
		CurrentDeposits:  schema.NewBigInt(0),
		TotalWithdrawals: schema.NewBigInt(0),
	}, nil
}

// LoadCellarShare returns the wallet's share balance in a cellar
func (r *Repository) LoadCellarShare(ctx context.Context, wallet, cellar string) (*schema.CellarShare, error) {
	id := ShareID(wallet, cellar)
	share, err := r.store.GetCellarShare(ctx, id)
	if err != nil {
		return nil, err
	}
	if share != nil {
		return share, nil
	}

	return &schema.CellarShare{
		ID:       id,
		WalletID: wallet,
		CellarID: cellar,
		Balance:  schema.NewBigInt(0),
	}, nil
}

// LoadCellarDayData returns the daily bucket for the given timestamp,
// seeding candles with the -1 sentinel
func (r *Repository) LoadCellarDayData(ctx context.Context, cellar, asset string, timestamp int64) (*schema.CellarDayData, error) {
	start := DayStart(timestamp)
	id := BucketID(cellar, asset, start)
	data, err := r.store.GetCellarDayData(ctx, id)
	if err != nil {
		return nil, err
	}
	if data != nil {
		return data, nil
	}

	return &schema.CellarDayData{
		ID:               id,
		CellarID:         cellar,
		AssetID:          asset,
		Date:             start,
		AddedLiquidity:   schema.NewBigInt(0),
		RemovedLiquidity: schema.NewBigInt(0),
		TvlActive:        schema.NewBigInt(0),
		TvlInactive:      schema.NewBigInt(0),
		TvlInvested:      schema.NewBigInt(0),
		TvlTotal:         schema.NewBigInt(0),
		Earnings:         schema.NewBigInt(0),
		ShareValue:       schema.NewBigInt(0),
		ShareValueLow:    schema.NewBigInt(-1),
		ShareValueHigh:   schema.NewBigInt(-1),
		ShareProfitRatio: decimal.Zero,
	}, nil
}

// GetPrevCellarDayData fetches the previous day's bucket, nil if absent
func (r *Repository) GetPrevCellarDayData(ctx context.Context, cellar, asset string, timestamp int64) (*schema.CellarDayData, error) {
	prevStart := DayStart(timestamp) - domain.SecondsPerDay
	return r.store.GetCellarDayData(ctx, BucketID(cellar, asset, prevStart))
}

// LoadCellarHourData returns the hourly bucket for the given timestamp
func (r *Repository) LoadCellarHourData(ctx context.Context, cellar, asset string, timestamp int64) (*schema.CellarHourData, error) {
	start := HourStart(timestamp)
	id := BucketID(cellar, asset, start)
	data, err := r.store.GetCellarHourData(ctx, id)
	if err != nil {
		return nil, err
	}
	if data != nil {
		return data, nil
	}

	return &schema.CellarHourData{
		ID:               id,
		CellarID:         cellar,
		AssetID:          asset,
		Date:             start,
		AddedLiquidity:   schema.NewBigInt(0),
		RemovedLiquidity: schema.NewBigInt(0),
		TvlActive:        schema.NewBigInt(0),
		TvlInactive:      schema.NewBigInt(0),
		TvlInvested:      schema.NewBigInt(0),
		TvlTotal:         schema.NewBigInt(0),
		Earnings:         schema.NewBigInt(0),
		ShareValue:       schema.NewBigInt(0),
		ShareValueLow:    schema.NewBigInt(-1),
		ShareValueHigh:   schema.NewBigInt(-1),
		ShareProfitRatio: decimal.Zero,
	}, nil
}

// GetPrevCellarHourData fetches the previous hour's bucket, nil if absent
func (r *Repository) GetPrevCellarHourData(ctx context.Context, cellar, asset string, timestamp int64) (*schema.CellarHourData, error) {
	prevStart := HourStart(timestamp) - domain.SecondsPerHour
	return r.store.GetCellarHourData(ctx, BucketID(cellar, asset, prevStart))
}

// LoadWalletDayData returns the wallet's daily bucket
func (r *Repository) LoadWalletDayData(ctx context.Context, wallet string, timestamp int64) (*schema.WalletDayData, error) {
	start := DayStart(timestamp)
	id := WalletDayID(start, wallet)
	data, err := r.store.GetWalletDayData(ctx, id)
	if err != nil {
		return nil, err
	}
	if data != nil {
		return data, nil
	}

	return &schema.WalletDayData{
		ID:               id,
		WalletID:         wallet,
		Date:             start,
		AddedLiquidity:   schema.NewBigInt(0),
		RemovedLiquidity: schema.NewBigInt(0),
	}, nil
}

// LoadPlatform returns the platform singleton
func (r *Repository) LoadPlatform(ctx context.Context) (*schema.Platform, error) {
	platform, err := r.store.GetPlatform(ctx)
	if err != nil {
		return nil, err
	}
	if platform != nil {
		return platform, nil
	}

	return &schema.Platform{ID: schema.PlatformID}, nil
}
