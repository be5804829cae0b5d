package chain

import (
	"context"
	"math/big"
)

// First generation Aave stablecoin vault. Exposes the active and
// inactive sides as separate totals and has no position list; the
// underlying asset is only learned from position deposit events.
var vaultV1ABI = mustABI(`[
	{"constant":true,"inputs":[],"name":"totalBalance","outputs":[{"name":"","type":"uint256"}],"payable":false,"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"totalHoldings","outputs":[{"name":"","type":"uint256"}],"payable":false,"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[{"name":"shares","type":"uint256"}],"name":"convertToAssets","outputs":[{"name":"","type":"uint256"}],"payable":false,"stateMutability":"view","type":"function"}
]`)

type vaultV1 struct {
	caller
}

func (v *vaultV1) ConvertToAssets(ctx context.Context, cellar string, shares *big.Int) (*big.Int, error) {
	var assets *big.Int
	if err := v.call(ctx, vaultV1ABI, cellar, &assets, "convertToAssets", shares); err != nil {
		return nil, err
	}
	return assets, nil
}

func (v *vaultV1) TotalAssets(ctx context.Context, cellar string) (*big.Int, error) {
	var total *big.Int
	if err := v.call(ctx, vaultV1ABI, cellar, &total, "totalBalance"); err != nil {
		return nil, err
	}
	return total, nil
}

func (v *vaultV1) TotalHoldings(ctx context.Context, cellar string) (*big.Int, error) {
	var holdings *big.Int
	if err := v.call(ctx, vaultV1ABI, cellar, &holdings, "totalHoldings"); err != nil {
		return nil, err
	}
	return holdings, nil
}

func (v *vaultV1) HoldingAsset(_ context.Context, _ string) (string, error) {
	return "", ErrUnsupported
}

func (v *vaultV1) Positions(_ context.Context, _ string) ([]string, error) {
	return nil, nil
}
