package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Second generation ERC-4626 vault. Reports one combined asset total and
// lists positions as token addresses directly.
var vaultV1_5ABI = mustABI(`[
	{"constant":true,"inputs":[],"name":"totalAssets","outputs":[{"name":"","type":"uint256"}],"payable":false,"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"holdingPosition","outputs":[{"name":"","type":"address"}],"payable":false,"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"getPositions","outputs":[{"name":"","type":"address[]"}],"payable":false,"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[{"name":"shares","type":"uint256"}],"name":"convertToAssets","outputs":[{"name":"","type":"uint256"}],"payable":false,"stateMutability":"view","type":"function"}
]`)

type vaultV1_5 struct {
	caller
}

func (v *vaultV1_5) ConvertToAssets(ctx context.Context, cellar string, shares *big.Int) (*big.Int, error) {
	var assets *big.Int
	if err := v.call(ctx, vaultV1_5ABI, cellar, &assets, "convertToAssets", shares); err != nil {
		return nil, err
	}
	return assets, nil
}

func (v *vaultV1_5) TotalAssets(ctx context.Context, cellar string) (*big.Int, error) {
	var total *big.Int
	if err := v.call(ctx, vaultV1_5ABI, cellar, &total, "totalAssets"); err != nil {
		return nil, err
	}
	return total, nil
}

func (v *vaultV1_5) TotalHoldings(_ context.Context, _ string) (*big.Int, error) {
	return nil, ErrUnsupported
}

func (v *vaultV1_5) HoldingAsset(ctx context.Context, cellar string) (string, error) {
	var holding common.Address
	if err := v.call(ctx, vaultV1_5ABI, cellar, &holding, "holdingPosition"); err != nil {
		return "", err
	}
	return normalizeAddr(holding), nil
}

func (v *vaultV1_5) Positions(ctx context.Context, cellar string) ([]string, error) {
	var positions []common.Address
	if err := v.call(ctx, vaultV1_5ABI, cellar, &positions, "getPositions"); err != nil {
		return nil, err
	}

	out := make([]string, 0, len(positions))
	for _, p := range positions {
		out = append(out, normalizeAddr(p))
	}
	return out, nil
}
