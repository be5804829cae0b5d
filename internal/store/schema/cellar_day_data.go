package schema

import "github.com/shopspring/decimal"

// CellarDayData is a per-cellar daily bucket. Liquidity counters
// accumulate from events; the remaining fields are written by the
// snapshot engine, copied from the freshest hour bucket.
type CellarDayData struct {
	// ID is "{cellarAddress}-{assetAddress}-{dayStartEpochSeconds}"
	ID       string `gorm:"column:id;primaryKey;type:text"`
	CellarID string `gorm:"column:cellar_id;not null;index;type:text"`
	// AssetID pins the bucket to the asset the cellar held at the time;
	// an asset rotation starts fresh buckets
	AssetID string `gorm:"column:asset_id;not null;type:text"`
	// Date is the bucket start as epoch seconds, floored to the day
	Date int64 `gorm:"column:date;not null;index"`

	AddedLiquidity   *BigInt `gorm:"column:added_liquidity;not null"`
	RemovedLiquidity *BigInt `gorm:"column:removed_liquidity;not null"`
	NumWallets       int32   `gorm:"column:num_wallets;not null"`

	TvlActive   *BigInt `gorm:"column:tvl_active;not null"`
	TvlInactive *BigInt `gorm:"column:tvl_inactive;not null"`
	TvlInvested *BigInt `gorm:"column:tvl_invested;not null"`
	TvlTotal    *BigInt `gorm:"column:tvl_total;not null"`
	Earnings    *BigInt `gorm:"column:earnings;not null"`

	// Share value candle in native asset decimals. Low and high start at
	// the -1 sentinel meaning "no observation yet".
	ShareValue     *BigInt `gorm:"column:share_value;not null"`
	ShareValueLow  *BigInt `gorm:"column:share_value_low;not null"`
	ShareValueHigh *BigInt `gorm:"column:share_value_high;not null"`

	ShareProfitRatio     decimal.Decimal   `gorm:"column:share_profit_ratio;type:numeric;not null"`
	PositionDistribution []decimal.Decimal `gorm:"column:position_distribution;serializer:json;type:jsonb"`

	// UpdatedAt is the epoch-second stamp of the last snapshot write,
	// zero if the bucket has never been snapshotted
	UpdatedAt int64 `gorm:"column:updated_at;not null"`
}

// TableName specifies the table name for the CellarDayData model
func (CellarDayData) TableName() string {
	return "cellar_day_data"
}
