package schema

import "time"

// TokenERC20 caches symbol and decimals for tokens seen as cellar assets
// or positions
type TokenERC20 struct {
	// ID is the token contract address (lowercase hex)
	ID string `gorm:"column:id;primaryKey;type:text"`

	Symbol   string `gorm:"column:symbol;not null;type:text"`
	Decimals int32  `gorm:"column:decimals;not null"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the TokenERC20 model
func (TokenERC20) TableName() string {
	return "tokens_erc20"
}
