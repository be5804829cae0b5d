package domain_test

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sommelier-labs/cellars-indexer/internal/domain"
)

func TestCellarEventValid(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name  string
		event domain.CellarEvent
		want  bool
	}{
		{
			name: "valid deposit",
			event: domain.CellarEvent{
				Chain:     domain.ChainEthereumMainnet,
				Kind:      domain.EventKindDeposit,
				Cellar:    "0x7bad5df5e61151163c75420ee9106ac5f27ece5b",
				Wallet:    "0x1111111111111111111111111111111111111111",
				Amount:    big.NewInt(1000),
				Block:     14650000,
				Timestamp: now,
			},
			want: true,
		},
		{
			name: "deposit without wallet",
			event: domain.CellarEvent{
				Kind:   domain.EventKindDeposit,
				Cellar: "0x7bad5df5e61151163c75420ee9106ac5f27ece5b",
				Amount: big.NewInt(1000),
				Block:  14650000,
			},
			want: false,
		},
		{
			name: "transfer without amount",
			event: domain.CellarEvent{
				Kind:   domain.EventKindTransfer,
				Cellar: "0x7bad5df5e61151163c75420ee9106ac5f27ece5b",
				From:   domain.ZeroAddress,
				To:     "0x1111111111111111111111111111111111111111",
				Block:  14650000,
			},
			want: false,
		},
		{
			name: "block tick needs no cellar",
			event: domain.CellarEvent{
				Kind:  domain.EventKindBlockTick,
				Block: 14650000,
			},
			want: true,
		},
		{
			name: "limit change without limit",
			event: domain.CellarEvent{
				Kind:   domain.EventKindDepositLimitChanged,
				Cellar: "0x7bad5df5e61151163c75420ee9106ac5f27ece5b",
				Block:  14650000,
			},
			want: false,
		},
		{
			name: "unknown kind",
			event: domain.CellarEvent{
				Kind:  domain.EventKind("mystery"),
				Block: 14650000,
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.event.Valid())
		})
	}
}

func TestMintBurnClassification(t *testing.T) {
	wallet := "0x1111111111111111111111111111111111111111"

	mint := domain.CellarEvent{Kind: domain.EventKindTransfer, From: domain.ZeroAddress, To: wallet}
	assert.True(t, mint.IsMint())
	assert.False(t, mint.IsBurn())

	burn := domain.CellarEvent{Kind: domain.EventKindTransfer, From: wallet, To: domain.ZeroAddress}
	assert.False(t, burn.IsMint())
	assert.True(t, burn.IsBurn())

	plain := domain.CellarEvent{Kind: domain.EventKindTransfer, From: wallet, To: "0x2222222222222222222222222222222222222222"}
	assert.False(t, plain.IsMint())
	assert.False(t, plain.IsBurn())

	// both endpoints zero is neither
	degenerate := domain.CellarEvent{Kind: domain.EventKindTransfer, From: domain.ZeroAddress, To: domain.ZeroAddress}
	assert.False(t, degenerate.IsMint())
	assert.False(t, degenerate.IsBurn())
}

func TestNormalizeAddress(t *testing.T) {
	assert.Equal(t,
		"0x7bad5df5e61151163c75420ee9106ac5f27ece5b",
		domain.NormalizeAddress("0x7baD5DF5E61151163c75420EE9106AC5F27ecE5B"))
}

func TestRegistryLookup(t *testing.T) {
	reg := domain.NewRegistry(domain.DefaultCellars())

	cfg, ok := reg.Lookup("0x7baD5DF5E61151163c75420EE9106AC5F27ecE5B")
	assert.True(t, ok)
	assert.Equal(t, domain.GenerationV1, cfg.Generation)

	_, ok = reg.Lookup("0x000000000000000000000000000000000000dead")
	assert.False(t, ok)
}
