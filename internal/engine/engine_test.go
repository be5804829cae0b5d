package engine

import (
	"context"
	"math/big"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/sommelier-labs/cellars-indexer/internal/chain"
	"github.com/sommelier-labs/cellars-indexer/internal/domain"
	"github.com/sommelier-labs/cellars-indexer/internal/entities"
	"github.com/sommelier-labs/cellars-indexer/internal/logger"
	"github.com/sommelier-labs/cellars-indexer/internal/pricing"
	"github.com/sommelier-labs/cellars-indexer/internal/store"
)

const (
	testCellar  = "0x7bad5df5e61151163c75420ee9106ac5f27ece5b"
	testWallet  = "0x1111111111111111111111111111111111111111"
	testWallet2 = "0x2222222222222222222222222222222222222222"
	// testDAI is absent from the fake token metadata, so its reads revert
	testDAI  = "0x3333333333333333333333333333333333333333"
	testUSDC = "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"
	testWETH = "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{Debug: true}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// fakeVault serves canned answers for the vault read set
type fakeVault struct {
	totalAssets     *big.Int
	totalAssetsErr  error
	totalHoldings   *big.Int
	totalHoldingsErr error
	holdingAsset    string
	holdingAssetErr error
	positions       []string
	positionsErr    error
	shareValue      *big.Int
	shareValueErr   error
}

func (f *fakeVault) ConvertToAssets(_ context.Context, _ string, _ *big.Int) (*big.Int, error) {
	if f.shareValueErr != nil {
		return nil, f.shareValueErr
	}
	return new(big.Int).Set(f.shareValue), nil
}

func (f *fakeVault) TotalAssets(_ context.Context, _ string) (*big.Int, error) {
	if f.totalAssetsErr != nil {
		return nil, f.totalAssetsErr
	}
	return new(big.Int).Set(f.totalAssets), nil
}

func (f *fakeVault) TotalHoldings(_ context.Context, _ string) (*big.Int, error) {
	if f.totalHoldingsErr != nil {
		return nil, f.totalHoldingsErr
	}
	if f.totalHoldings == nil {
		return nil, chain.ErrUnsupported
	}
	return new(big.Int).Set(f.totalHoldings), nil
}

func (f *fakeVault) HoldingAsset(_ context.Context, _ string) (string, error) {
	if f.holdingAssetErr != nil {
		return "", f.holdingAssetErr
	}
	if f.holdingAsset == "" {
		return "", chain.ErrUnsupported
	}
	return f.holdingAsset, nil
}

func (f *fakeVault) Positions(_ context.Context, _ string) ([]string, error) {
	if f.positionsErr != nil {
		return nil, f.positionsErr
	}
	return f.positions, nil
}

// fakeERC20 serves token metadata and balances from maps. Balance keys
// are "token|owner".
type fakeERC20 struct {
	decimals    map[string]int32
	balances    map[string]*big.Int
	balanceErrs map[string]error
}

func newFakeERC20() *fakeERC20 {
	return &fakeERC20{
		decimals:    map[string]int32{testUSDC: 6, testWETH: 18},
		balances:    make(map[string]*big.Int),
		balanceErrs: make(map[string]error),
	}
}

func (f *fakeERC20) Symbol(_ context.Context, token string) (string, error) {
	if token == testUSDC {
		return "USDC", nil
	}
	return "TOK", nil
}

func (f *fakeERC20) Decimals(_ context.Context, token string) (int32, error) {
	d, ok := f.decimals[token]
	if !ok {
		return 0, chain.ErrReverted
	}
	return d, nil
}

func (f *fakeERC20) BalanceOf(_ context.Context, token, owner string) (*big.Int, error) {
	key := token + "|" + owner
	if err := f.balanceErrs[key]; err != nil {
		return nil, err
	}
	if b, ok := f.balances[key]; ok {
		return new(big.Int).Set(b), nil
	}
	return new(big.Int), nil
}

func (f *fakeERC20) setBalance(token, owner string, balance *big.Int) {
	f.balances[token+"|"+owner] = balance
}

type fixture struct {
	store  store.Store
	repo   *entities.Repository
	vault  *fakeVault
	erc20  *fakeERC20
	prices pricing.StaticSource
	engine *Engine
}

func newFixture(t *testing.T, generation domain.Generation) *fixture {
	t.Helper()

	st := store.NewMemoryStore()
	repo := entities.NewRepository(st)
	vault := &fakeVault{
		totalAssets: new(big.Int),
		shareValue:  new(big.Int),
	}
	erc20 := newFakeERC20()
	prices := pricing.StaticSource{
		testUSDC: decimal.NewFromInt(1),
		testWETH: decimal.NewFromInt(2000),
	}

	registry := domain.NewRegistry([]domain.CellarConfig{
		{Address: testCellar, Generation: generation, StartBlock: 100},
	})
	readers := map[domain.Generation]chain.VaultReader{generation: vault}

	return &fixture{
		store:  st,
		repo:   repo,
		vault:  vault,
		erc20:  erc20,
		prices: prices,
		engine: New(repo, registry, readers, erc20, pricing.NewCachedOracle(st, prices)),
	}
}

func (f *fixture) handle(t *testing.T, event *domain.CellarEvent) {
	t.Helper()
	require.NoError(t, f.engine.Handle(context.Background(), event))
}

// usdc converts whole USDC into raw 6-decimal units
func usdc(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1_000_000))
}

// canonical converts whole units into the 18-decimal canonical scale
func canonical(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

func depositEvent(wallet string, amount *big.Int, ts int64) *domain.CellarEvent {
	return &domain.CellarEvent{
		Chain:     domain.ChainEthereumMainnet,
		Kind:      domain.EventKindDeposit,
		Cellar:    testCellar,
		Wallet:    wallet,
		Amount:    amount,
		TxHash:    "0xdeposit",
		Block:     200,
		Timestamp: time.Unix(ts, 0),
	}
}

func withdrawEvent(wallet string, amount *big.Int, ts int64) *domain.CellarEvent {
	return &domain.CellarEvent{
		Chain:     domain.ChainEthereumMainnet,
		Kind:      domain.EventKindWithdraw,
		Cellar:    testCellar,
		Wallet:    wallet,
		Amount:    amount,
		TxHash:    "0xwithdraw",
		Block:     201,
		Timestamp: time.Unix(ts, 0),
	}
}

func transferEvent(from, to string, amount *big.Int, ts int64, logIndex uint) *domain.CellarEvent {
	return &domain.CellarEvent{
		Chain:     domain.ChainEthereumMainnet,
		Kind:      domain.EventKindTransfer,
		Cellar:    testCellar,
		From:      from,
		To:        to,
		Amount:    amount,
		TxHash:    "0xtransfer",
		Block:     202,
		LogIndex:  logIndex,
		Timestamp: time.Unix(ts, 0),
	}
}

func blockTickEvent(block uint64, ts int64) *domain.CellarEvent {
	return &domain.CellarEvent{
		Chain:     domain.ChainEthereumMainnet,
		Kind:      domain.EventKindBlockTick,
		Block:     block,
		Timestamp: time.Unix(ts, 0),
	}
}

func snapshotTickEvent(block uint64, ts int64) *domain.CellarEvent {
	return &domain.CellarEvent{
		Chain:     domain.ChainEthereumMainnet,
		Kind:      domain.EventKindSnapshotTick,
		Block:     block,
		Timestamp: time.Unix(ts, 0),
	}
}
