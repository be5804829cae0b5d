package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/sommelier-labs/cellars-indexer/internal/adapter"
	"github.com/sommelier-labs/cellars-indexer/internal/domain"
)

// VaultReader reads the per-generation vault state used by the snapshot
// engine. Amounts come back in the contract's native decimals; the caller
// normalizes with the entity decimals it already tracks.
type VaultReader interface {
	// ConvertToAssets values a share amount in the underlying asset's
	// native decimals
	ConvertToAssets(ctx context.Context, cellar string, shares *big.Int) (*big.Int, error)

	// TotalAssets returns the vault's asset total. For the first
	// generation this is the active (invested) side only; later
	// generations report the full balance.
	TotalAssets(ctx context.Context, cellar string) (*big.Int, error)

	// TotalHoldings returns the uninvested asset balance. Only the first
	// generation exposes it; later generations return ErrUnsupported.
	TotalHoldings(ctx context.Context, cellar string) (*big.Int, error)

	// HoldingAsset resolves the token the vault currently holds deposits
	// in. The first generation learns its asset from position deposit
	// events instead and returns ErrUnsupported.
	HoldingAsset(ctx context.Context, cellar string) (string, error)

	// Positions returns the ordered position token addresses, empty for
	// generations without a position list
	Positions(ctx context.Context, cellar string) ([]string, error)
}

// NewVaultReader picks the reader matching a cellar's contract generation
func NewVaultReader(client adapter.EthClient, generation domain.Generation) (VaultReader, error) {
	switch generation {
	case domain.GenerationV1:
		return &vaultV1{caller{client: client}}, nil
	case domain.GenerationV1_5:
		return &vaultV1_5{caller{client: client}}, nil
	case domain.GenerationV2:
		return &vaultV2{caller{client: client}}, nil
	default:
		return nil, fmt.Errorf("unknown vault generation: %s", generation)
	}
}
