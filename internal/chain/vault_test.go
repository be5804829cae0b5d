package chain

import (
	"context"
	"encoding/hex"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testVault  = "0x7bad5df5e61151163c75420ee9106ac5f27ece5b"
	testToken  = "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"
	testToken2 = "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2"
)

// stubEthClient answers contract calls from a calldata keyed table.
// Unknown calldata reverts.
type stubEthClient struct {
	responses map[string][]byte
	err       error
}

func (s *stubEthClient) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	resp, ok := s.responses[hex.EncodeToString(msg.Data)]
	if !ok {
		return nil, errors.New("execution reverted")
	}
	return resp, nil
}

func (s *stubEthClient) SubscribeFilterLogs(_ context.Context, _ ethereum.FilterQuery, _ chan<- types.Log) (ethereum.Subscription, error) {
	return nil, errors.New("not implemented")
}

func (s *stubEthClient) SubscribeNewHead(_ context.Context, _ chan<- *types.Header) (ethereum.Subscription, error) {
	return nil, errors.New("not implemented")
}

func (s *stubEthClient) FilterLogs(_ context.Context, _ ethereum.FilterQuery) ([]types.Log, error) {
	return nil, errors.New("not implemented")
}

func (s *stubEthClient) HeaderByNumber(_ context.Context, _ *big.Int) (*types.Header, error) {
	return nil, errors.New("not implemented")
}

func (s *stubEthClient) Close() {}

func calldata(t *testing.T, contractABI abi.ABI, method string, args ...interface{}) string {
	t.Helper()
	data, err := contractABI.Pack(method, args...)
	require.NoError(t, err)
	return hex.EncodeToString(data)
}

func returndata(t *testing.T, contractABI abi.ABI, method string, values ...interface{}) []byte {
	t.Helper()
	data, err := contractABI.Methods[method].Outputs.Pack(values...)
	require.NoError(t, err)
	return data
}

func TestVaultV1Totals(t *testing.T) {
	client := &stubEthClient{responses: map[string][]byte{
		calldata(t, vaultV1ABI, "totalBalance"):  returndata(t, vaultV1ABI, "totalBalance", big.NewInt(5_000_000)),
		calldata(t, vaultV1ABI, "totalHoldings"): returndata(t, vaultV1ABI, "totalHoldings", big.NewInt(1_250_000)),
	}}
	reader := &vaultV1{caller{client: client}}
	ctx := context.Background()

	total, err := reader.TotalAssets(ctx, testVault)
	require.NoError(t, err)
	assert.Equal(t, "5000000", total.String())

	holdings, err := reader.TotalHoldings(ctx, testVault)
	require.NoError(t, err)
	assert.Equal(t, "1250000", holdings.String())

	_, err = reader.HoldingAsset(ctx, testVault)
	assert.ErrorIs(t, err, ErrUnsupported)

	positions, err := reader.Positions(ctx, testVault)
	require.NoError(t, err)
	assert.Empty(t, positions)
}

func TestVaultV1ConvertToAssetsRevert(t *testing.T) {
	reader := &vaultV1{caller{client: &stubEthClient{}}}

	_, err := reader.ConvertToAssets(context.Background(), testVault, big.NewInt(1))
	assert.ErrorIs(t, err, ErrReverted)
}

func TestVaultV1_5Positions(t *testing.T) {
	client := &stubEthClient{responses: map[string][]byte{
		calldata(t, vaultV1_5ABI, "getPositions"): returndata(t, vaultV1_5ABI, "getPositions",
			[]common.Address{common.HexToAddress(testToken), common.HexToAddress(testToken2)}),
		calldata(t, vaultV1_5ABI, "holdingPosition"): returndata(t, vaultV1_5ABI, "holdingPosition",
			common.HexToAddress(testToken)),
	}}
	reader := &vaultV1_5{caller{client: client}}
	ctx := context.Background()

	positions, err := reader.Positions(ctx, testVault)
	require.NoError(t, err)
	assert.Equal(t, []string{testToken, testToken2}, positions)

	holding, err := reader.HoldingAsset(ctx, testVault)
	require.NoError(t, err)
	assert.Equal(t, testToken, holding)

	_, err = reader.TotalHoldings(ctx, testVault)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestVaultV2HoldingAsset(t *testing.T) {
	adaptorData := common.LeftPadBytes(common.HexToAddress(testToken).Bytes(), 32)

	client := &stubEthClient{responses: map[string][]byte{
		calldata(t, vaultV2ABI, "holdingPosition"): returndata(t, vaultV2ABI, "holdingPosition", uint32(3)),
		calldata(t, vaultV2ABI, "getPositionData", uint32(3)): returndata(t, vaultV2ABI, "getPositionData",
			common.HexToAddress("0x1111111111111111111111111111111111111111"), false, adaptorData, []byte{}),
	}}
	reader := &vaultV2{caller{client: client}}

	holding, err := reader.HoldingAsset(context.Background(), testVault)
	require.NoError(t, err)
	assert.Equal(t, testToken, holding)
}

func TestVaultV2Positions(t *testing.T) {
	pad := func(addr string) []byte {
		return common.LeftPadBytes(common.HexToAddress(addr).Bytes(), 32)
	}
	adaptor := common.HexToAddress("0x1111111111111111111111111111111111111111")

	client := &stubEthClient{responses: map[string][]byte{
		calldata(t, vaultV2ABI, "getCreditPositions"): returndata(t, vaultV2ABI, "getCreditPositions",
			[]uint32{1, 2}),
		calldata(t, vaultV2ABI, "getPositionData", uint32(1)): returndata(t, vaultV2ABI, "getPositionData",
			adaptor, false, pad(testToken), []byte{}),
		calldata(t, vaultV2ABI, "getPositionData", uint32(2)): returndata(t, vaultV2ABI, "getPositionData",
			adaptor, false, pad(testToken2), []byte{}),
	}}
	reader := &vaultV2{caller{client: client}}

	positions, err := reader.Positions(context.Background(), testVault)
	require.NoError(t, err)
	assert.Equal(t, []string{testToken, testToken2}, positions)
}

func TestDecodeAdaptorToken(t *testing.T) {
	data := common.LeftPadBytes(common.HexToAddress(testToken).Bytes(), 32)
	token, err := decodeAdaptorToken(data)
	require.NoError(t, err)
	assert.Equal(t, testToken, token)

	_, err = decodeAdaptorToken([]byte{0x01, 0x02})
	assert.Error(t, err)
}

func TestERC20Reader(t *testing.T) {
	owner := common.HexToAddress(testVault)
	client := &stubEthClient{responses: map[string][]byte{
		calldata(t, erc20ABI, "symbol"):             returndata(t, erc20ABI, "symbol", "USDC"),
		calldata(t, erc20ABI, "decimals"):           returndata(t, erc20ABI, "decimals", uint8(6)),
		calldata(t, erc20ABI, "balanceOf", owner):   returndata(t, erc20ABI, "balanceOf", big.NewInt(42)),
	}}
	reader := NewERC20Reader(client)
	ctx := context.Background()

	symbol, err := reader.Symbol(ctx, testToken)
	require.NoError(t, err)
	assert.Equal(t, "USDC", symbol)

	decimals, err := reader.Decimals(ctx, testToken)
	require.NoError(t, err)
	assert.Equal(t, int32(6), decimals)

	balance, err := reader.BalanceOf(ctx, testToken, testVault)
	require.NoError(t, err)
	assert.Equal(t, "42", balance.String())
}

func TestNewVaultReaderUnknownGeneration(t *testing.T) {
	_, err := NewVaultReader(&stubEthClient{}, "v9")
	assert.Error(t, err)
}
