package domain

import (
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Chain represents the blockchain network identifier using CAIP-2 format
type Chain string

const (
	ChainEthereumMainnet Chain = "eip155:1"
	ChainEthereumSepolia Chain = "eip155:11155111"
)

// Generation identifies which contract family a cellar belongs to. The
// on-chain read set differs per generation, the aggregation rules do not.
type Generation string

const (
	GenerationV1   Generation = "v1"
	GenerationV1_5 Generation = "v1.5"
	GenerationV2   Generation = "v2"
)

// IsValidGeneration checks if a generation tag is known
func IsValidGeneration(g Generation) bool {
	return g == GenerationV1 || g == GenerationV1_5 || g == GenerationV2
}

// EventKind represents the type of cellar event
type EventKind string

const (
	// Liquidity events emitted by the first-generation cellar contracts
	EventKindAddLiquidity    EventKind = "add_liquidity"
	EventKindRemoveLiquidity EventKind = "remove_liquidity"

	// ERC-4626 share events
	EventKindDeposit  EventKind = "deposit"
	EventKindWithdraw EventKind = "withdraw"

	// Capital moving between the holding pool and the yield position
	EventKindDepositToPosition    EventKind = "deposit_to_position"
	EventKindWithdrawFromPosition EventKind = "withdraw_from_position"

	// Share token transfers (mint/burn/wallet-to-wallet)
	EventKindTransfer EventKind = "transfer"

	// Cellar parameter changes
	EventKindLiquidityLimitChanged      EventKind = "liquidity_limit_changed"
	EventKindDepositLimitChanged        EventKind = "deposit_limit_changed"
	EventKindLiquidityRestrictionLifted EventKind = "liquidity_restriction_lifted"

	// Chain head ticks drive the snapshot engine. Stablecoin transfer
	// ticks piggyback snapshots between head windows.
	EventKindBlockTick    EventKind = "block_tick"
	EventKindSnapshotTick EventKind = "snapshot_tick"
)

// CellarEvent is the normalized event format published to NATS by the
// emitter and consumed by the indexer.
type CellarEvent struct {
	Chain     Chain     `json:"chain"`
	Kind      EventKind `json:"kind"`
	Cellar    string    `json:"cellar"` // cellar contract address (lowercase hex)
	Wallet    string    `json:"wallet,omitempty"`
	From      string    `json:"from,omitempty"` // transfer only
	To        string    `json:"to,omitempty"`   // transfer only
	Token     string    `json:"token,omitempty"`
	Amount    *big.Int  `json:"amount,omitempty"` // raw on-chain units
	Shares    *big.Int  `json:"shares,omitempty"`
	Limit     *big.Int  `json:"limit,omitempty"` // parameter changes
	TxHash    string    `json:"tx_hash,omitempty"`
	Block     uint64    `json:"block"`
	TxIndex   uint64    `json:"tx_index"`
	LogIndex  uint      `json:"log_index"`
	Timestamp time.Time `json:"timestamp"`
}

// Valid performs a minimal sanity check before an event is published
func (e *CellarEvent) Valid() bool {
	if e.Kind == "" || e.Block == 0 {
		return false
	}

	switch e.Kind {
	case EventKindBlockTick, EventKindSnapshotTick:
		return true
	case EventKindTransfer:
		return e.Cellar != "" && e.From != "" && e.To != "" && e.Amount != nil
	case EventKindLiquidityLimitChanged, EventKindDepositLimitChanged:
		return e.Cellar != "" && e.Limit != nil
	case EventKindLiquidityRestrictionLifted:
		return e.Cellar != ""
	case EventKindAddLiquidity, EventKindRemoveLiquidity,
		EventKindDeposit, EventKindWithdraw:
		return e.Cellar != "" && e.Wallet != "" && e.Amount != nil
	case EventKindDepositToPosition, EventKindWithdrawFromPosition:
		return e.Cellar != "" && e.Amount != nil
	default:
		return false
	}
}

// IsMint reports whether a transfer event mints new shares. A transfer
// between two zero addresses is neither a mint nor a burn.
func (e *CellarEvent) IsMint() bool {
	return e.From == ZeroAddress && e.To != ZeroAddress
}

// IsBurn reports whether a transfer event burns shares
func (e *CellarEvent) IsBurn() bool {
	return e.To == ZeroAddress && e.From != ZeroAddress
}

// NormalizeAddress lowercases a hex address so entity keys are stable
// regardless of the checksum casing a provider returns.
func NormalizeAddress(address string) string {
	if common.IsHexAddress(address) {
		return strings.ToLower(common.HexToAddress(address).Hex())
	}
	return strings.ToLower(address)
}
