package schema

// AddRemoveEvent is an immutable record of a first-generation liquidity
// event. Withdrawals carry a negative amount.
type AddRemoveEvent struct {
	// ID is "{timestamp}-{walletAddress}"
	ID       string `gorm:"column:id;primaryKey;type:text"`
	CellarID string `gorm:"column:cellar_id;not null;index;type:text"`
	WalletID string `gorm:"column:wallet_id;not null;index;type:text"`

	// Amount is normalized to 18 decimals, signed
	Amount *BigInt `gorm:"column:amount;not null"`

	TxID      string `gorm:"column:tx_id;not null;type:text"`
	Block     int64  `gorm:"column:block;not null"`
	Timestamp int64  `gorm:"column:timestamp;not null"`
}

func (AddRemoveEvent) TableName() string {
	return "add_remove_events"
}

// DepositWithdrawEvent is an immutable record of an ERC-4626 deposit or
// withdrawal. Withdrawals carry a negative amount.
type DepositWithdrawEvent struct {
	// ID is the transaction hash
	ID       string `gorm:"column:id;primaryKey;type:text"`
	CellarID string `gorm:"column:cellar_id;not null;index;type:text"`
	WalletID string `gorm:"column:wallet_id;not null;index;type:text"`

	// Amount is normalized to 18 decimals, signed
	Amount *BigInt `gorm:"column:amount;not null"`

	TxID      string `gorm:"column:tx_id;not null;type:text"`
	Block     int64  `gorm:"column:block;not null"`
	Timestamp int64  `gorm:"column:timestamp;not null"`
}

func (DepositWithdrawEvent) TableName() string {
	return "deposit_withdraw_events"
}

// DepositWithdrawAaveEvent is an immutable record of capital moving
// between the holding pool and the yield position. Withdrawals carry a
// negative amount.
type DepositWithdrawAaveEvent struct {
	// ID is "{txHash}-{logIndex}"
	ID       string `gorm:"column:id;primaryKey;type:text"`
	CellarID string `gorm:"column:cellar_id;not null;index;type:text"`

	// Position is the token address the capital moved into or out of
	Position string `gorm:"column:position;not null;type:text"`
	// Amount is normalized to 18 decimals, signed
	Amount *BigInt `gorm:"column:amount;not null"`

	TxID      string `gorm:"column:tx_id;not null;type:text"`
	Block     int64  `gorm:"column:block;not null"`
	Timestamp int64  `gorm:"column:timestamp;not null"`
}

func (DepositWithdrawAaveEvent) TableName() string {
	return "deposit_withdraw_aave_events"
}

// BalanceChange records the delta of a cellar's active TVL observed
// between two successful snapshot reads
type BalanceChange struct {
	// ID is "{block}-{cellarAddress}"
	ID       string `gorm:"column:id;primaryKey;type:text"`
	CellarID string `gorm:"column:cellar_id;not null;index;type:text"`

	// Amount is the signed active-TVL delta, 18 decimals
	Amount *BigInt `gorm:"column:amount;not null"`

	Block     int64 `gorm:"column:block;not null"`
	Timestamp int64 `gorm:"column:timestamp;not null"`
}

func (BalanceChange) TableName() string {
	return "balance_changes"
}
