package schema

// CellarShareTransfer is an immutable record of one share mint, burn or
// wallet-to-wallet transfer. Replays of the same log are absorbed by the
// primary key.
type CellarShareTransfer struct {
	// ID is "{timestamp}-{cellarAddress}-{walletAddress}-{logIndex}"
	ID       string `gorm:"column:id;primaryKey;type:text"`
	CellarID string `gorm:"column:cellar_id;not null;index;type:text"`
	WalletID string `gorm:"column:wallet_id;not null;index;type:text"`

	From string `gorm:"column:from_address;not null;type:text"`
	To   string `gorm:"column:to_address;not null;type:text"`
	// Amount is in share units (18 decimals)
	Amount *BigInt `gorm:"column:amount;not null"`

	TxHash    string `gorm:"column:tx_hash;not null;type:text"`
	LogIndex  int64  `gorm:"column:log_index;not null"`
	Block     int64  `gorm:"column:block;not null"`
	Timestamp int64  `gorm:"column:timestamp;not null"`
}

// TableName specifies the table name for the CellarShareTransfer model
func (CellarShareTransfer) TableName() string {
	return "cellar_share_transfers"
}
