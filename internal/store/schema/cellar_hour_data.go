package schema

import "github.com/shopspring/decimal"

// CellarHourData is a per-cellar hourly bucket, same shape as the daily
// one. The snapshot engine computes hour buckets first; daily buckets
// copy from them.
type CellarHourData struct {
	// ID is "{cellarAddress}-{assetAddress}-{hourStartEpochSeconds}"
	ID       string `gorm:"column:id;primaryKey;type:text"`
	CellarID string `gorm:"column:cellar_id;not null;index;type:text"`
	AssetID  string `gorm:"column:asset_id;not null;type:text"`
	// Date is the bucket start as epoch seconds, floored to the hour
	Date int64 `gorm:"column:date;not null;index"`

	AddedLiquidity   *BigInt `gorm:"column:added_liquidity;not null"`
	RemovedLiquidity *BigInt `gorm:"column:removed_liquidity;not null"`
	NumWallets       int32   `gorm:"column:num_wallets;not null"`

	TvlActive   *BigInt `gorm:"column:tvl_active;not null"`
	TvlInactive *BigInt `gorm:"column:tvl_inactive;not null"`
	TvlInvested *BigInt `gorm:"column:tvl_invested;not null"`
	TvlTotal    *BigInt `gorm:"column:tvl_total;not null"`
	Earnings    *BigInt `gorm:"column:earnings;not null"`

	ShareValue     *BigInt `gorm:"column:share_value;not null"`
	ShareValueLow  *BigInt `gorm:"column:share_value_low;not null"`
	ShareValueHigh *BigInt `gorm:"column:share_value_high;not null"`

	ShareProfitRatio     decimal.Decimal   `gorm:"column:share_profit_ratio;type:numeric;not null"`
	PositionDistribution []decimal.Decimal `gorm:"column:position_distribution;serializer:json;type:jsonb"`

	UpdatedAt int64 `gorm:"column:updated_at;not null"`
}

// TableName specifies the table name for the CellarHourData model
func (CellarHourData) TableName() string {
	return "cellar_hour_data"
}
