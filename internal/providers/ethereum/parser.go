package ethereum

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/sommelier-labs/cellars-indexer/internal/domain"
)

// Event signatures
var (
	// Transfer event signature, shared by the USDC contract and the
	// cellar share tokens
	// Transfer(address indexed from, address indexed to, uint256 value)
	transferEventSignature = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

	// First-generation cellars carry the asset token in the event.
	// Deposit(address indexed caller, address indexed owner, address indexed token, uint256 assets, uint256 shares)
	depositV1EventSignature = crypto.Keccak256Hash([]byte("Deposit(address,address,address,uint256,uint256)"))

	// ERC-4626 Deposit(address indexed caller, address indexed owner, uint256 assets, uint256 shares)
	depositEventSignature = crypto.Keccak256Hash([]byte("Deposit(address,address,uint256,uint256)"))

	// Withdraw(address indexed caller, address indexed receiver, address indexed owner, uint256 assets, uint256 shares)
	// The first-generation shape is Withdraw(receiver, owner, token, assets, shares)
	// which hashes identically, so the cellar generation decides how the
	// third topic is read.
	withdrawEventSignature = crypto.Keccak256Hash([]byte("Withdraw(address,address,address,uint256,uint256)"))

	// Capital moves between the holding pool and the yield position
	// DepositToAave(address indexed position, uint256 assets)
	depositToAaveEventSignature = crypto.Keccak256Hash([]byte("DepositToAave(address,uint256)"))

	// WithdrawFromAave(address indexed position, uint256 assets)
	withdrawFromAaveEventSignature = crypto.Keccak256Hash([]byte("WithdrawFromAave(address,uint256)"))

	// LiquidityLimitChanged(uint256 oldLimit, uint256 newLimit)
	liquidityLimitEventSignature = crypto.Keccak256Hash([]byte("LiquidityLimitChanged(uint256,uint256)"))

	// DepositLimitChanged(uint256 oldLimit, uint256 newLimit)
	depositLimitEventSignature = crypto.Keccak256Hash([]byte("DepositLimitChanged(uint256,uint256)"))

	// LiquidityRestrictionRemoved()
	liquidityRestrictionEventSignature = crypto.Keccak256Hash([]byte("LiquidityRestrictionRemoved()"))
)

// cellarEventSignatures is the topic filter for the log subscription
func cellarEventSignatures() []common.Hash {
	return []common.Hash{
		transferEventSignature,
		depositV1EventSignature,
		depositEventSignature,
		withdrawEventSignature,
		depositToAaveEventSignature,
		withdrawFromAaveEventSignature,
		liquidityLimitEventSignature,
		depositLimitEventSignature,
		liquidityRestrictionEventSignature,
	}
}

// ParseEventLog parses an Ethereum log into a normalized cellar event.
// USDC transfers become snapshot ticks; everything else must come from a
// tracked cellar or the log is dropped with (nil, nil).
func (c *ethereumClient) ParseEventLog(ctx context.Context, vLog types.Log) (*domain.CellarEvent, error) {
	if len(vLog.Topics) == 0 {
		return nil, nil
	}

	timestamp, err := c.blockTime(ctx, vLog.BlockNumber)
	if err != nil {
		return nil, err
	}

	address := domain.NormalizeAddress(vLog.Address.Hex())

	// USDC transfer ticks carry no payload of their own, they only nudge
	// the snapshot engine between chain head windows
	if address == domain.USDCAddress {
		if vLog.Topics[0] != transferEventSignature {
			return nil, nil
		}
		return &domain.CellarEvent{
			Chain:     c.chainID,
			Kind:      domain.EventKindSnapshotTick,
			TxHash:    vLog.TxHash.Hex(),
			Block:     vLog.BlockNumber,
			TxIndex:   uint64(vLog.TxIndex),
			LogIndex:  vLog.Index,
			Timestamp: timestamp,
		}, nil
	}

	cfg, ok := c.registry.Lookup(address)
	if !ok {
		return nil, nil
	}

	event := &domain.CellarEvent{
		Chain:     c.chainID,
		Cellar:    address,
		TxHash:    vLog.TxHash.Hex(),
		Block:     vLog.BlockNumber,
		TxIndex:   uint64(vLog.TxIndex),
		LogIndex:  vLog.Index,
		Timestamp: timestamp,
	}

	switch vLog.Topics[0] {
	case transferEventSignature:
		// Transfer(address indexed from, address indexed to, uint256 value)
		if len(vLog.Topics) != 3 {
			return nil, fmt.Errorf("invalid Transfer event: expected 3 topics, got %d", len(vLog.Topics))
		}
		if len(vLog.Data) < 32 {
			return nil, fmt.Errorf("invalid Transfer event: insufficient data")
		}

		event.Kind = domain.EventKindTransfer
		event.From = topicAddress(vLog.Topics[1])
		event.To = topicAddress(vLog.Topics[2])
		event.Amount = new(big.Int).SetBytes(vLog.Data[0:32])

	case depositV1EventSignature:
		// Deposit(address indexed caller, address indexed owner, address indexed token, uint256 assets, uint256 shares)
		if len(vLog.Topics) != 4 {
			return nil, fmt.Errorf("invalid Deposit event: expected 4 topics, got %d", len(vLog.Topics))
		}
		if len(vLog.Data) < 64 {
			return nil, fmt.Errorf("invalid Deposit event: insufficient data")
		}

		event.Kind = domain.EventKindAddLiquidity
		event.Wallet = topicAddress(vLog.Topics[2])
		event.Token = topicAddress(vLog.Topics[3])
		event.Amount = new(big.Int).SetBytes(vLog.Data[0:32])
		event.Shares = new(big.Int).SetBytes(vLog.Data[32:64])

	case depositEventSignature:
		// Deposit(address indexed caller, address indexed owner, uint256 assets, uint256 shares)
		if len(vLog.Topics) != 3 {
			return nil, fmt.Errorf("invalid Deposit event: expected 3 topics, got %d", len(vLog.Topics))
		}
		if len(vLog.Data) < 64 {
			return nil, fmt.Errorf("invalid Deposit event: insufficient data")
		}

		event.Kind = domain.EventKindDeposit
		event.Wallet = topicAddress(vLog.Topics[2])
		event.Amount = new(big.Int).SetBytes(vLog.Data[0:32])
		event.Shares = new(big.Int).SetBytes(vLog.Data[32:64])

	case withdrawEventSignature:
		// Withdraw(address indexed caller, address indexed receiver, address indexed owner, uint256 assets, uint256 shares)
		// First-generation cellars reuse this hash with (receiver, owner, token)
		if len(vLog.Topics) != 4 {
			return nil, fmt.Errorf("invalid Withdraw event: expected 4 topics, got %d", len(vLog.Topics))
		}
		if len(vLog.Data) < 64 {
			return nil, fmt.Errorf("invalid Withdraw event: insufficient data")
		}

		if cfg.Generation == domain.GenerationV1 {
			event.Kind = domain.EventKindRemoveLiquidity
			event.Wallet = topicAddress(vLog.Topics[2])
			event.Token = topicAddress(vLog.Topics[3])
		} else {
			event.Kind = domain.EventKindWithdraw
			event.Wallet = topicAddress(vLog.Topics[3])
		}
		event.Amount = new(big.Int).SetBytes(vLog.Data[0:32])
		event.Shares = new(big.Int).SetBytes(vLog.Data[32:64])

	case depositToAaveEventSignature:
		// DepositToAave(address indexed position, uint256 assets)
		if len(vLog.Topics) != 2 {
			return nil, fmt.Errorf("invalid DepositToAave event: expected 2 topics, got %d", len(vLog.Topics))
		}
		if len(vLog.Data) < 32 {
			return nil, fmt.Errorf("invalid DepositToAave event: insufficient data")
		}

		event.Kind = domain.EventKindDepositToPosition
		event.Token = topicAddress(vLog.Topics[1])
		event.Amount = new(big.Int).SetBytes(vLog.Data[0:32])

	case withdrawFromAaveEventSignature:
		// WithdrawFromAave(address indexed position, uint256 assets)
		if len(vLog.Topics) != 2 {
			return nil, fmt.Errorf("invalid WithdrawFromAave event: expected 2 topics, got %d", len(vLog.Topics))
		}
		if len(vLog.Data) < 32 {
			return nil, fmt.Errorf("invalid WithdrawFromAave event: insufficient data")
		}

		event.Kind = domain.EventKindWithdrawFromPosition
		event.Token = topicAddress(vLog.Topics[1])
		event.Amount = new(big.Int).SetBytes(vLog.Data[0:32])

	case liquidityLimitEventSignature:
		// LiquidityLimitChanged(uint256 oldLimit, uint256 newLimit)
		if len(vLog.Data) < 64 {
			return nil, fmt.Errorf("invalid LiquidityLimitChanged event: insufficient data")
		}

		event.Kind = domain.EventKindLiquidityLimitChanged
		event.Limit = new(big.Int).SetBytes(vLog.Data[32:64])

	case depositLimitEventSignature:
		// DepositLimitChanged(uint256 oldLimit, uint256 newLimit)
		if len(vLog.Data) < 64 {
			return nil, fmt.Errorf("invalid DepositLimitChanged event: insufficient data")
		}

		event.Kind = domain.EventKindDepositLimitChanged
		event.Limit = new(big.Int).SetBytes(vLog.Data[32:64])

	case liquidityRestrictionEventSignature:
		// LiquidityRestrictionRemoved()
		event.Kind = domain.EventKindLiquidityRestrictionLifted

	default:
		return nil, nil
	}

	return event, nil
}

// topicAddress extracts a lowercase hex address from an indexed topic
func topicAddress(topic common.Hash) string {
	return domain.NormalizeAddress(common.BytesToAddress(topic.Bytes()).Hex())
}
