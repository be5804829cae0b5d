package schema

import (
	"database/sql/driver"
	"fmt"
	"math/big"
)

// BigInt is an arbitrary-precision integer column stored as numeric(78,0),
// wide enough for any uint256 amount. It carries big.Int's JSON encoding.
type BigInt struct {
	big.Int
}

// NewBigInt creates a BigInt from an int64
func NewBigInt(x int64) *BigInt {
	b := &BigInt{}
	b.SetInt64(x)
	return b
}

// NewBigIntFrom copies a big.Int into a BigInt. A nil input yields zero.
func NewBigIntFrom(v *big.Int) *BigInt {
	b := &BigInt{}
	if v != nil {
		b.Int.Set(v)
	}
	return b
}

// Big returns the underlying big.Int for read-only arithmetic
func (b *BigInt) Big() *big.Int {
	return &b.Int
}

// Incr adds v in place
func (b *BigInt) Incr(v *big.Int) {
	b.Int.Add(&b.Int, v)
}

// Decr subtracts v in place
func (b *BigInt) Decr(v *big.Int) {
	b.Int.Sub(&b.Int, v)
}

// DecrFloorZero subtracts v in place, clamping the result at zero
func (b *BigInt) DecrFloorZero(v *big.Int) {
	b.Int.Sub(&b.Int, v)
	if b.Int.Sign() < 0 {
		b.Int.SetInt64(0)
	}
}

// Assign overwrites the value in place
func (b *BigInt) Assign(v *big.Int) {
	b.Int.Set(v)
}

// IsZero reports whether the value is exactly zero
func (b *BigInt) IsZero() bool {
	return b.Int.Sign() == 0
}

// Value implements driver.Valuer. Postgres accepts the decimal string
// form for numeric columns.
func (b *BigInt) Value() (driver.Value, error) {
	if b == nil {
		return nil, nil
	}
	return b.Int.String(), nil
}

// Scan implements sql.Scanner
func (b *BigInt) Scan(src interface{}) error {
	if src == nil {
		b.Int.SetInt64(0)
		return nil
	}

	switch v := src.(type) {
	case int64:
		b.Int.SetInt64(v)
		return nil
	case []byte:
		return b.setString(string(v))
	case string:
		return b.setString(v)
	default:
		return fmt.Errorf("unsupported source type for BigInt: %T", src)
	}
}

func (b *BigInt) setString(s string) error {
	if _, ok := b.Int.SetString(s, 10); !ok {
		return fmt.Errorf("invalid numeric value for BigInt: %q", s)
	}
	return nil
}

// GormDataType tells gorm the column type for migrations
func (BigInt) GormDataType() string {
	return "numeric(78,0)"
}
