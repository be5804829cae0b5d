package store

import (
	"context"

	"github.com/sommelier-labs/cellars-indexer/internal/store/schema"
)

// Store defines the interface for database operations. Get methods
// return (nil, nil) when the record does not exist; Save methods upsert;
// Create methods insert immutable rows and silently skip duplicates so
// event replays stay idempotent.
type Store interface {
	// Transaction runs fn against a store whose writes commit together
	// and roll back together when fn errors
	Transaction(ctx context.Context, fn func(Store) error) error

	GetCellar(ctx context.Context, id string) (*schema.Cellar, error)
	SaveCellar(ctx context.Context, cellar *schema.Cellar) error

	GetWallet(ctx context.Context, id string) (*schema.Wallet, error)
	SaveWallet(ctx context.Context, wallet *schema.Wallet) error

	GetWalletCellarData(ctx context.Context, id string) (*schema.WalletCellarData, error)
	SaveWalletCellarData(ctx context.Context, data *schema.WalletCellarData) error

	GetWalletDayData(ctx context.Context, id string) (*schema.WalletDayData, error)
	SaveWalletDayData(ctx context.Context, data *schema.WalletDayData) error

	GetCellarShare(ctx context.Context, id string) (*schema.CellarShare, error)
	SaveCellarShare(ctx context.Context, share *schema.CellarShare) error

	GetCellarDayData(ctx context.Context, id string) (*schema.CellarDayData, error)
	SaveCellarDayData(ctx context.Context, data *schema.CellarDayData) error

	GetCellarHourData(ctx context.Context, id string) (*schema.CellarHourData, error)
	SaveCellarHourData(ctx context.Context, data *schema.CellarHourData) error

	GetTokenERC20(ctx context.Context, id string) (*schema.TokenERC20, error)
	SaveTokenERC20(ctx context.Context, token *schema.TokenERC20) error

	GetPlatform(ctx context.Context) (*schema.Platform, error)
	SavePlatform(ctx context.Context, platform *schema.Platform) error

	GetTokenPrice(ctx context.Context, id string) (*schema.TokenPrice, error)
	SaveTokenPrice(ctx context.Context, price *schema.TokenPrice) error

	CreateCellarShareTransfer(ctx context.Context, transfer *schema.CellarShareTransfer) error
	GetCellarShareTransfer(ctx context.Context, id string) (*schema.CellarShareTransfer, error)
	CreateAddRemoveEvent(ctx context.Context, event *schema.AddRemoveEvent) error
	GetAddRemoveEvent(ctx context.Context, id string) (*schema.AddRemoveEvent, error)
	CreateDepositWithdrawEvent(ctx context.Context, event *schema.DepositWithdrawEvent) error
	GetDepositWithdrawEvent(ctx context.Context, id string) (*schema.DepositWithdrawEvent, error)
	CreateDepositWithdrawAaveEvent(ctx context.Context, event *schema.DepositWithdrawAaveEvent) error
	GetDepositWithdrawAaveEvent(ctx context.Context, id string) (*schema.DepositWithdrawAaveEvent, error)
	CreateBalanceChange(ctx context.Context, change *schema.BalanceChange) error
	GetBalanceChange(ctx context.Context, id string) (*schema.BalanceChange, error)

	// GetBlockCursor retrieves the last processed block number for a chain
	GetBlockCursor(ctx context.Context, chain string) (uint64, error)
	// SetBlockCursor stores the last processed block number for a chain
	SetBlockCursor(ctx context.Context, chain string, blockNumber uint64) error
}
