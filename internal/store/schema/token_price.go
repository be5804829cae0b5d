package schema

import "github.com/shopspring/decimal"

// TokenPrice caches a USD price per token per block so repeated pricing
// within one snapshot run costs a single oracle call
type TokenPrice struct {
	// ID is "{tokenAddress}-{block}"
	ID      string `gorm:"column:id;primaryKey;type:text"`
	TokenID string `gorm:"column:token_id;not null;index;type:text"`
	Block   int64  `gorm:"column:block;not null"`

	// PriceUSD is the USD price of one whole token
	PriceUSD decimal.Decimal `gorm:"column:price_usd;type:numeric;not null"`
}

// TableName specifies the table name for the TokenPrice model
func (TokenPrice) TableName() string {
	return "token_prices"
}
