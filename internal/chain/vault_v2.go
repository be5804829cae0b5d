package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Third generation adaptor-based vault. Positions are registry indexes;
// the held token hides inside the position's adaptor data.
var vaultV2ABI = mustABI(`[
	{"constant":true,"inputs":[],"name":"totalAssets","outputs":[{"name":"","type":"uint256"}],"payable":false,"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"holdingPosition","outputs":[{"name":"","type":"uint32"}],"payable":false,"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"getCreditPositions","outputs":[{"name":"","type":"uint32[]"}],"payable":false,"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[{"name":"position","type":"uint32"}],"name":"getPositionData","outputs":[{"name":"adaptor","type":"address"},{"name":"isDebt","type":"bool"},{"name":"adaptorData","type":"bytes"},{"name":"configurationData","type":"bytes"}],"payable":false,"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[{"name":"shares","type":"uint256"}],"name":"convertToAssets","outputs":[{"name":"","type":"uint256"}],"payable":false,"stateMutability":"view","type":"function"}
]`)

type vaultV2 struct {
	caller
}

type positionData struct {
	Adaptor           common.Address
	IsDebt            bool
	AdaptorData       []byte
	ConfigurationData []byte
}

func (v *vaultV2) ConvertToAssets(ctx context.Context, cellar string, shares *big.Int) (*big.Int, error) {
	var assets *big.Int
	if err := v.call(ctx, vaultV2ABI, cellar, &assets, "convertToAssets", shares); err != nil {
		return nil, err
	}
	return assets, nil
}

func (v *vaultV2) TotalAssets(ctx context.Context, cellar string) (*big.Int, error) {
	var total *big.Int
	if err := v.call(ctx, vaultV2ABI, cellar, &total, "totalAssets"); err != nil {
		return nil, err
	}
	return total, nil
}

func (v *vaultV2) TotalHoldings(_ context.Context, _ string) (*big.Int, error) {
	return nil, ErrUnsupported
}

func (v *vaultV2) HoldingAsset(ctx context.Context, cellar string) (string, error) {
	var index uint32
	if err := v.call(ctx, vaultV2ABI, cellar, &index, "holdingPosition"); err != nil {
		return "", err
	}
	return v.positionToken(ctx, cellar, index)
}

func (v *vaultV2) Positions(ctx context.Context, cellar string) ([]string, error) {
	var indexes []uint32
	if err := v.call(ctx, vaultV2ABI, cellar, &indexes, "getCreditPositions"); err != nil {
		return nil, err
	}

	out := make([]string, 0, len(indexes))
	for _, index := range indexes {
		token, err := v.positionToken(ctx, cellar, index)
		if err != nil {
			return nil, err
		}
		out = append(out, token)
	}
	return out, nil
}

// positionToken resolves a position index to the token address encoded
// in its adaptor data
func (v *vaultV2) positionToken(ctx context.Context, cellar string, index uint32) (string, error) {
	var data positionData
	if err := v.call(ctx, vaultV2ABI, cellar, &data, "getPositionData", index); err != nil {
		return "", err
	}
	return decodeAdaptorToken(data.AdaptorData)
}

// decodeAdaptorToken extracts the token address from ERC20-style adaptor
// data. The token sits in the first ABI word, left padded to 32 bytes.
func decodeAdaptorToken(adaptorData []byte) (string, error) {
	if len(adaptorData) < 32 {
		return "", fmt.Errorf("adaptor data too short: %d bytes", len(adaptorData))
	}
	return normalizeAddr(common.BytesToAddress(adaptorData[12:32])), nil
}
