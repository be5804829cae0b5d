package schema

import "time"

// Wallet aggregates deposit activity for one address across all cellars
type Wallet struct {
	// ID is the wallet address (lowercase hex)
	ID string `gorm:"column:id;primaryKey;type:text"`

	TotalDeposits    *BigInt `gorm:"column:total_deposits;not null"`
	CurrentDeposits  *BigInt `gorm:"column:current_deposits;not null"`
	TotalWithdrawals *BigInt `gorm:"column:total_withdrawals;not null"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;not null;default:now();type:timestamptz"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Wallet model
func (Wallet) TableName() string {
	return "wallets"
}
