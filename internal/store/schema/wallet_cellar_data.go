package schema

import "time"

// WalletCellarData breaks a wallet's deposit totals down per cellar
type WalletCellarData struct {
	// ID is "{walletAddress}-{cellarAddress}"
	ID       string `gorm:"column:id;primaryKey;type:text"`
	WalletID string `gorm:"column:wallet_id;not null;index;type:text"`
	CellarID string `gorm:"column:cellar_id;not null;index;type:text"`

	TotalDeposits    *BigInt `gorm:"column:total_deposits;not null"`
	CurrentDeposits  *BigInt `gorm:"column:current_deposits;not null"`
	TotalWithdrawals *BigInt `gorm:"column:total_withdrawals;not null"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;not null;default:now();type:timestamptz"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the WalletCellarData model
func (WalletCellarData) TableName() string {
	return "wallet_cellar_data"
}
