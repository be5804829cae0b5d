// Package bignum holds the fixed-point scaling helpers used when folding
// raw on-chain amounts into aggregated entities. Asset amounts are stored
// at a canonical 18-decimal scale regardless of the token's native scale.
package bignum

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/sommelier-labs/cellars-indexer/internal/domain"
)

var ten = big.NewInt(10)

// ConvertDecimals rescales v from one fixed-point scale to another.
// Scaling up multiplies by a power of ten, scaling down divides with
// truncation toward zero. The input is never mutated.
func ConvertDecimals(v *big.Int, from, to uint8) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	if from == to {
		return new(big.Int).Set(v)
	}

	if to > from {
		factor := new(big.Int).Exp(ten, big.NewInt(int64(to-from)), nil)
		return new(big.Int).Mul(v, factor)
	}

	factor := new(big.Int).Exp(ten, big.NewInt(int64(from-to)), nil)
	return new(big.Int).Quo(v, factor)
}

// NormalizeDecimals rescales v from its native scale to the canonical one
func NormalizeDecimals(v *big.Int, from uint8) *big.Int {
	return ConvertDecimals(v, from, domain.CanonicalDecimals)
}

// AmountToDecimal converts a raw amount into human units for pricing.
// Zero-decimal tokens are not priced.
func AmountToDecimal(v *big.Int, decimals uint8) decimal.Decimal {
	if v == nil || decimals < 1 {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(v, -int32(decimals))
}

// FloorZero clamps a big integer at zero, returning a copy
func FloorZero(v *big.Int) *big.Int {
	if v == nil || v.Sign() < 0 {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}

// OneShare is one cellar share at the canonical scale (10^18)
func OneShare() *big.Int {
	return new(big.Int).Exp(ten, big.NewInt(domain.CanonicalDecimals), nil)
}

// PowTen returns 10^n
func PowTen(n uint8) *big.Int {
	return new(big.Int).Exp(ten, big.NewInt(int64(n)), nil)
}
