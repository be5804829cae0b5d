package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/sommelier-labs/cellars-indexer/internal/adapter"
	"github.com/sommelier-labs/cellars-indexer/internal/domain"
)

var erc20ABI = mustABI(`[
	{"constant":true,"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"payable":false,"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"payable":false,"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[{"name":"account","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"payable":false,"stateMutability":"view","type":"function"}
]`)

// ERC20Reader reads token metadata and balances
type ERC20Reader interface {
	// Symbol fetches the token symbol
	Symbol(ctx context.Context, token string) (string, error)

	// Decimals fetches the token decimal count
	Decimals(ctx context.Context, token string) (int32, error)

	// BalanceOf fetches the owner's balance in the token's native decimals
	BalanceOf(ctx context.Context, token, owner string) (*big.Int, error)
}

type erc20Reader struct {
	caller
}

// NewERC20Reader creates an ERC20 reader over the given node connection
func NewERC20Reader(client adapter.EthClient) ERC20Reader {
	return &erc20Reader{caller{client: client}}
}

func (r *erc20Reader) Symbol(ctx context.Context, token string) (string, error) {
	var symbol string
	if err := r.call(ctx, erc20ABI, token, &symbol, "symbol"); err != nil {
		return "", err
	}
	return symbol, nil
}

func (r *erc20Reader) Decimals(ctx context.Context, token string) (int32, error) {
	var decimals uint8
	if err := r.call(ctx, erc20ABI, token, &decimals, "decimals"); err != nil {
		return 0, err
	}
	return int32(decimals), nil
}

func (r *erc20Reader) BalanceOf(ctx context.Context, token, owner string) (*big.Int, error) {
	var balance *big.Int
	err := r.call(ctx, erc20ABI, token, &balance, "balanceOf", common.HexToAddress(owner))
	if err != nil {
		return nil, err
	}
	if balance == nil {
		return nil, fmt.Errorf("balanceOf on %s returned no value", token)
	}
	return balance, nil
}

// normalizeAddr lowercases a geth address for entity keys
func normalizeAddr(addr common.Address) string {
	return domain.NormalizeAddress(addr.Hex())
}
