package schema

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBigIntScan(t *testing.T) {
	tests := []struct {
		name        string
		src         interface{}
		expected    string
		expectError bool
	}{
		{
			name:     "nil becomes zero",
			src:      nil,
			expected: "0",
		},
		{
			name:     "int64",
			src:      int64(42),
			expected: "42",
		},
		{
			name:     "decimal string",
			src:      "115792089237316195423570985008687907853269984665640564039457584007913129639935",
			expected: "115792089237316195423570985008687907853269984665640564039457584007913129639935",
		},
		{
			name:     "bytes",
			src:      []byte("-1000000000000000000"),
			expected: "-1000000000000000000",
		},
		{
			name:        "garbage string",
			src:         "not a number",
			expectError: true,
		},
		{
			name:        "unsupported type",
			src:         3.14,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b BigInt
			err := b.Scan(tt.src)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, b.Big().String())
		})
	}
}

func TestBigIntValue(t *testing.T) {
	b := NewBigInt(12345)
	v, err := b.Value()
	require.NoError(t, err)
	assert.Equal(t, "12345", v)

	var nilBig *BigInt
	v, err = nilBig.Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestBigIntArithmetic(t *testing.T) {
	b := NewBigInt(100)
	b.Incr(big.NewInt(50))
	assert.Equal(t, "150", b.Big().String())

	b.Decr(big.NewInt(200))
	assert.Equal(t, "-50", b.Big().String())

	b.Assign(big.NewInt(10))
	b.DecrFloorZero(big.NewInt(25))
	assert.True(t, b.IsZero())

	b.Assign(big.NewInt(30))
	b.DecrFloorZero(big.NewInt(25))
	assert.Equal(t, "5", b.Big().String())
}

func TestNewBigIntFrom(t *testing.T) {
	src := big.NewInt(777)
	b := NewBigIntFrom(src)
	assert.Equal(t, "777", b.Big().String())

	// The copy is independent of the source
	src.SetInt64(1)
	assert.Equal(t, "777", b.Big().String())

	assert.True(t, NewBigIntFrom(nil).IsZero())
}
