package schema

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cellar is the top-level aggregate for one vault contract. All TVL and
// liquidity amounts are held at the canonical 18-decimal scale.
type Cellar struct {
	// ID is the cellar contract address (lowercase hex)
	ID string `gorm:"column:id;primaryKey;type:text"`
	// Name is a human-readable label
	Name string `gorm:"column:name;not null;type:text"`
	// Asset is the underlying token address. Unknown until the first
	// position deposit reveals it; asset-dependent handlers bail out
	// while it is nil.
	Asset *string `gorm:"column:asset;type:text"`

	// DepositLimit and LiquidityLimit mirror the contract parameters.
	// Nil means unrestricted.
	DepositLimit   *BigInt `gorm:"column:deposit_limit"`
	LiquidityLimit *BigInt `gorm:"column:liquidity_limit"`

	TvlActive   *BigInt `gorm:"column:tvl_active;not null"`
	TvlInactive *BigInt `gorm:"column:tvl_inactive;not null"`
	TvlInvested *BigInt `gorm:"column:tvl_invested;not null"`
	TvlTotal    *BigInt `gorm:"column:tvl_total;not null"`

	CurrentDeposits         *BigInt `gorm:"column:current_deposits;not null"`
	AddedLiquidityAllTime   *BigInt `gorm:"column:added_liquidity_all_time;not null"`
	RemovedLiquidityAllTime *BigInt `gorm:"column:removed_liquidity_all_time;not null"`

	NumWalletsAllTime int32 `gorm:"column:num_wallets_all_time;not null"`
	NumWalletsActive  int32 `gorm:"column:num_wallets_active;not null"`

	SharesTotal *BigInt `gorm:"column:shares_total;not null"`
	// ShareValue is the asset value of one share in the asset's native
	// decimals, refreshed by the snapshot engine. Nil until first snapshot.
	ShareValue       *BigInt         `gorm:"column:share_value"`
	ShareProfitRatio decimal.Decimal `gorm:"column:share_profit_ratio;type:numeric;not null"`

	// Positions is the last known ordered position set. Kept stale when
	// a refresh reverts.
	Positions            []string          `gorm:"column:positions;serializer:json;type:jsonb"`
	PositionDistribution []decimal.Decimal `gorm:"column:position_distribution;serializer:json;type:jsonb"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;not null;default:now();type:timestamptz"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Cellar model
func (Cellar) TableName() string {
	return "cellars"
}
