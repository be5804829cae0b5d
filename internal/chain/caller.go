// Package chain reads vault and token state from the Ethereum node. Each
// vault generation gets its own reader because the contract surfaces
// diverged between releases.
package chain

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/sommelier-labs/cellars-indexer/internal/adapter"
)

// caller packs a view call, executes it against the latest block and
// surfaces contract reverts as ErrReverted
type caller struct {
	client adapter.EthClient
}

func (c *caller) call(ctx context.Context, contractABI abi.ABI, contract string, out interface{}, method string, args ...interface{}) error {
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return fmt.Errorf("failed to pack %s call: %w", method, err)
	}

	addr := common.HexToAddress(contract)
	result, err := c.client.CallContract(ctx, ethereum.CallMsg{
		To:   &addr,
		Data: data,
	}, nil)
	if err != nil {
		if isRevertError(err) {
			return fmt.Errorf("%s on %s: %w", method, contract, ErrReverted)
		}
		return fmt.Errorf("failed to call %s on %s: %w", method, contract, err)
	}
	// Some nodes report a revert as an empty return instead of an error
	if len(result) == 0 {
		return fmt.Errorf("%s on %s: %w", method, contract, ErrReverted)
	}

	if err := contractABI.UnpackIntoInterface(out, method, result); err != nil {
		return fmt.Errorf("failed to unpack %s result: %w", method, err)
	}

	return nil
}

func isRevertError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "execution reverted")
}

func mustABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(fmt.Sprintf("invalid ABI definition: %v", err))
	}
	return parsed
}
