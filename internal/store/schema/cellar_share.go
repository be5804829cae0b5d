package schema

import "time"

// CellarShare tracks a wallet's live share balance in one cellar
type CellarShare struct {
	// ID is "{walletAddress}-{cellarAddress}"
	ID       string `gorm:"column:id;primaryKey;type:text"`
	WalletID string `gorm:"column:wallet_id;not null;index;type:text"`
	CellarID string `gorm:"column:cellar_id;not null;index;type:text"`

	// Balance is in share units (18 decimals)
	Balance *BigInt `gorm:"column:balance;not null"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;not null;default:now();type:timestamptz"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the CellarShare model
func (CellarShare) TableName() string {
	return "cellar_shares"
}
