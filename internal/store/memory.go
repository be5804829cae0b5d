package store

import (
	"context"
	"sync"

	"github.com/sommelier-labs/cellars-indexer/internal/store/schema"
)

// memoryStore is an in-memory Store used by unit tests and dry runs.
// The engine is single-writer so a coarse mutex is enough.
type memoryStore struct {
	mu sync.RWMutex

	cellars          map[string]*schema.Cellar
	wallets          map[string]*schema.Wallet
	walletCellarData map[string]*schema.WalletCellarData
	walletDayData    map[string]*schema.WalletDayData
	shares           map[string]*schema.CellarShare
	dayData          map[string]*schema.CellarDayData
	hourData         map[string]*schema.CellarHourData
	tokens           map[string]*schema.TokenERC20
	prices           map[string]*schema.TokenPrice
	platform         *schema.Platform

	shareTransfers map[string]*schema.CellarShareTransfer
	addRemove      map[string]*schema.AddRemoveEvent
	depositWith    map[string]*schema.DepositWithdrawEvent
	positionEvents map[string]*schema.DepositWithdrawAaveEvent
	balanceChanges map[string]*schema.BalanceChange

	cursors map[string]uint64
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() Store {
	return &memoryStore{
		cellars:          make(map[string]*schema.Cellar),
		wallets:          make(map[string]*schema.Wallet),
		walletCellarData: make(map[string]*schema.WalletCellarData),
		walletDayData:    make(map[string]*schema.WalletDayData),
		shares:           make(map[string]*schema.CellarShare),
		dayData:          make(map[string]*schema.CellarDayData),
		hourData:         make(map[string]*schema.CellarHourData),
		tokens:           make(map[string]*schema.TokenERC20),
		prices:           make(map[string]*schema.TokenPrice),
		shareTransfers:   make(map[string]*schema.CellarShareTransfer),
		addRemove:        make(map[string]*schema.AddRemoveEvent),
		depositWith:      make(map[string]*schema.DepositWithdrawEvent),
		positionEvents:   make(map[string]*schema.DepositWithdrawAaveEvent),
		balanceChanges:   make(map[string]*schema.BalanceChange),
		cursors:          make(map[string]uint64),
	}
}

// Transaction applies fn to the store directly. The memory store backs
// single-writer unit tests that assert end state, so it does not
// isolate or roll back.
func (s *memoryStore) Transaction(_ context.Context, fn func(Store) error) error {
	return fn(s)
}

func (s *memoryStore) GetCellar(_ context.Context, id string) (*schema.Cellar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cellars[id], nil
}

func (s *memoryStore) SaveCellar(_ context.Context, cellar *schema.Cellar) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cellars[cellar.ID] = cellar
	return nil
}

func (s *memoryStore) GetWallet(_ context.Context, id string) (*schema.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.wallets[id], nil
}

func (s *memoryStore) SaveWallet(_ context.Context, wallet *schema.Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wallets[wallet.ID] = wallet
	return nil
}

func (s *memoryStore) GetWalletCellarData(_ context.Context, id string) (*schema.WalletCellarData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.walletCellarData[id], nil
}

func (s *memoryStore) SaveWalletCellarData(_ context.Context, data *schema.WalletCellarData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.walletCellarData[data.ID] = data
	return nil
}

func (s *memoryStore) GetWalletDayData(_ context.Context, id string) (*schema.WalletDayData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.walletDayData[id], nil
}

func (s *memoryStore) SaveWalletDayData(_ context.Context, data *schema.WalletDayData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.walletDayData[data.ID] = data
	return nil
}

func (s *memoryStore) GetCellarShare(_ context.Context, id string) (*schema.CellarShare, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.shares[id], nil
}

func (s *memoryStore) SaveCellarShare(_ context.Context, share *schema.CellarShare) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shares[share.ID] = share
	return nil
}

func (s *memoryStore) GetCellarDayData(_ context.Context, id string) (*schema.CellarDayData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dayData[id], nil
}

func (s *memoryStore) SaveCellarDayData(_ context.Context, data *schema.CellarDayData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dayData[data.ID] = data
	return nil
}

func (s *memoryStore) GetCellarHourData(_ context.Context, id string) (*schema.CellarHourData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hourData[id], nil
}

func (s *memoryStore) SaveCellarHourData(_ context.Context, data *schema.CellarHourData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hourData[data.ID] = data
	return nil
}

func (s *memoryStore) GetTokenERC20(_ context.Context, id string) (*schema.TokenERC20, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens[id], nil
}

func (s *memoryStore) SaveTokenERC20(_ context.Context, token *schema.TokenERC20) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token.ID] = token
	return nil
}

func (s *memoryStore) GetPlatform(_ context.Context) (*schema.Platform, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.platform, nil
}

func (s *memoryStore) SavePlatform(_ context.Context, platform *schema.Platform) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.platform = platform
	return nil
}

func (s *memoryStore) GetTokenPrice(_ context.Context, id string) (*schema.TokenPrice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prices[id], nil
}

func (s *memoryStore) SaveTokenPrice(_ context.Context, price *schema.TokenPrice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[price.ID] = price
	return nil
}

func (s *memoryStore) CreateCellarShareTransfer(_ context.Context, transfer *schema.CellarShareTransfer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.shareTransfers[transfer.ID]; ok {
		return nil
	}
	s.shareTransfers[transfer.ID] = transfer
	return nil
}

func (s *memoryStore) CreateAddRemoveEvent(_ context.Context, event *schema.AddRemoveEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.addRemove[event.ID]; ok {
		return nil
	}
	s.addRemove[event.ID] = event
	return nil
}

func (s *memoryStore) CreateDepositWithdrawEvent(_ context.Context, event *schema.DepositWithdrawEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.depositWith[event.ID]; ok {
		return nil
	}
	s.depositWith[event.ID] = event
	return nil
}

func (s *memoryStore) CreateDepositWithdrawAaveEvent(_ context.Context, event *schema.DepositWithdrawAaveEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.positionEvents[event.ID]; ok {
		return nil
	}
	s.positionEvents[event.ID] = event
	return nil
}

func (s *memoryStore) CreateBalanceChange(_ context.Context, change *schema.BalanceChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.balanceChanges[change.ID]; ok {
		return nil
	}
	s.balanceChanges[change.ID] = change
	return nil
}

func (s *memoryStore) GetCellarShareTransfer(_ context.Context, id string) (*schema.CellarShareTransfer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.shareTransfers[id], nil
}

func (s *memoryStore) GetAddRemoveEvent(_ context.Context, id string) (*schema.AddRemoveEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addRemove[id], nil
}

func (s *memoryStore) GetDepositWithdrawEvent(_ context.Context, id string) (*schema.DepositWithdrawEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.depositWith[id], nil
}

func (s *memoryStore) GetDepositWithdrawAaveEvent(_ context.Context, id string) (*schema.DepositWithdrawAaveEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.positionEvents[id], nil
}

func (s *memoryStore) GetBalanceChange(_ context.Context, id string) (*schema.BalanceChange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balanceChanges[id], nil
}

func (s *memoryStore) GetBlockCursor(_ context.Context, chain string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cursors[chain], nil
}

func (s *memoryStore) SetBlockCursor(_ context.Context, chain string, blockNumber uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursors[chain] = blockNumber
	return nil
}
