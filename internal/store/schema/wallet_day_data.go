package schema

// WalletDayData is a per-wallet daily liquidity bucket
type WalletDayData struct {
	// ID is "{dayStartEpochSeconds}-{walletAddress}"
	ID       string `gorm:"column:id;primaryKey;type:text"`
	WalletID string `gorm:"column:wallet_id;not null;index;type:text"`
	// Date is the bucket start as epoch seconds, floored to the day
	Date int64 `gorm:"column:date;not null;index"`

	AddedLiquidity   *BigInt `gorm:"column:added_liquidity;not null"`
	RemovedLiquidity *BigInt `gorm:"column:removed_liquidity;not null"`
}

// TableName specifies the table name for the WalletDayData model
func (WalletDayData) TableName() string {
	return "wallet_day_data"
}
