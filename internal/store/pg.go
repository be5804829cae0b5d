package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sommelier-labs/cellars-indexer/internal/store/schema"
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// Migrate creates or updates all cellar tables
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&schema.Cellar{},
		&schema.Wallet{},
		&schema.WalletCellarData{},
		&schema.WalletDayData{},
		&schema.CellarShare{},
		&schema.CellarShareTransfer{},
		&schema.CellarDayData{},
		&schema.CellarHourData{},
		&schema.TokenERC20{},
		&schema.TokenPrice{},
		&schema.Platform{},
		&schema.AddRemoveEvent{},
		&schema.DepositWithdrawEvent{},
		&schema.DepositWithdrawAaveEvent{},
		&schema.BalanceChange{},
		&schema.KeyValueStore{},
	)
}

// ConfigureConnectionPool configures the connection pool settings for a
// GORM database connection. Zero values fall back to defaults.
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

func (s *pgStore) Transaction(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&pgStore{db: tx})
	})
}

func (s *pgStore) GetCellar(ctx context.Context, id string) (*schema.Cellar, error) {
	var cellar schema.Cellar
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&cellar).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cellar: %w", err)
	}
	return &cellar, nil
}

func (s *pgStore) SaveCellar(ctx context.Context, cellar *schema.Cellar) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(cellar).Error
	if err != nil {
		return fmt.Errorf("failed to save cellar: %w", err)
	}
	return nil
}

func (s *pgStore) GetWallet(ctx context.Context, id string) (*schema.Wallet, error) {
	var wallet schema.Wallet
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&wallet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &wallet, nil
}

func (s *pgStore) SaveWallet(ctx context.Context, wallet *schema.Wallet) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(wallet).Error
	if err != nil {
		return fmt.Errorf("failed to save wallet: %w", err)
	}
	return nil
}

func (s *pgStore) GetWalletCellarData(ctx context.Context, id string) (*schema.WalletCellarData, error) {
	var data schema.WalletCellarData
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&data).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get wallet cellar data: %w", err)
	}
	return &data, nil
}

func (s *pgStore) SaveWalletCellarData(ctx context.Context, data *schema.WalletCellarData) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(data).Error
	if err != nil {
		return fmt.Errorf("failed to save wallet cellar data: %w", err)
	}
	return nil
}

func (s *pgStore) GetWalletDayData(ctx context.Context, id string) (*schema.WalletDayData, error) {
	var data schema.WalletDayData
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&data).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get wallet day data: %w", err)
	}
	return &data, nil
}

func (s *pgStore) SaveWalletDayData(ctx context.Context, data *schema.WalletDayData) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(data).Error
	if err != nil {
		return fmt.Errorf("failed to save wallet day data: %w", err)
	}
	return nil
}

func (s *pgStore) GetCellarShare(ctx context.Context, id string) (*schema.CellarShare, error) {
	var share schema.CellarShare
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&share).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cellar share: %w", err)
	}
	return &share, nil
}

func (s *pgStore) SaveCellarShare(ctx context.Context, share *schema.CellarShare) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(share).Error
	if err != nil {
		return fmt.Errorf("failed to save cellar share: %w", err)
	}
	return nil
}

func (s *pgStore) GetCellarDayData(ctx context.Context, id string) (*schema.CellarDayData, error) {
	var data schema.CellarDayData
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&data).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cellar day data: %w", err)
	}
	return &data, nil
}

func (s *pgStore) SaveCellarDayData(ctx context.Context, data *schema.CellarDayData) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(data).Error
	if err != nil {
		return fmt.Errorf("failed to save cellar day data: %w", err)
	}
	return nil
}

func (s *pgStore) GetCellarHourData(ctx context.Context, id string) (*schema.CellarHourData, error) {
	var data schema.CellarHourData
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&data).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cellar hour data: %w", err)
	}
	return &data, nil
}

func (s *pgStore) SaveCellarHourData(ctx context.Context, data *schema.CellarHourData) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(data).Error
	if err != nil {
		return fmt.Errorf("failed to save cellar hour data: %w", err)
	}
	return nil
}

func (s *pgStore) GetTokenERC20(ctx context.Context, id string) (*schema.TokenERC20, error) {
	var token schema.TokenERC20
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get erc20 token: %w", err)
	}
	return &token, nil
}

func (s *pgStore) SaveTokenERC20(ctx context.Context, token *schema.TokenERC20) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(token).Error
	if err != nil {
		return fmt.Errorf("failed to save erc20 token: %w", err)
	}
	return nil
}

func (s *pgStore) GetPlatform(ctx context.Context) (*schema.Platform, error) {
	var platform schema.Platform
	err := s.db.WithContext(ctx).Where("id = ?", schema.PlatformID).First(&platform).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get platform: %w", err)
	}
	return &platform, nil
}

func (s *pgStore) SavePlatform(ctx context.Context, platform *schema.Platform) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(platform).Error
	if err != nil {
		return fmt.Errorf("failed to save platform: %w", err)
	}
	return nil
}

func (s *pgStore) GetTokenPrice(ctx context.Context, id string) (*schema.TokenPrice, error) {
	var price schema.TokenPrice
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&price).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get token price: %w", err)
	}
	return &price, nil
}

func (s *pgStore) SaveTokenPrice(ctx context.Context, price *schema.TokenPrice) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(price).Error
	if err != nil {
		return fmt.Errorf("failed to save token price: %w", err)
	}
	return nil
}

func (s *pgStore) CreateCellarShareTransfer(ctx context.Context, transfer *schema.CellarShareTransfer) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(transfer).Error
	if err != nil {
		return fmt.Errorf("failed to create cellar share transfer: %w", err)
	}
	return nil
}

func (s *pgStore) GetCellarShareTransfer(ctx context.Context, id string) (*schema.CellarShareTransfer, error) {
	var transfer schema.CellarShareTransfer
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&transfer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cellar share transfer: %w", err)
	}
	return &transfer, nil
}

func (s *pgStore) CreateAddRemoveEvent(ctx context.Context, event *schema.AddRemoveEvent) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(event).Error
	if err != nil {
		return fmt.Errorf("failed to create add/remove event: %w", err)
	}
	return nil
}

func (s *pgStore) GetAddRemoveEvent(ctx context.Context, id string) (*schema.AddRemoveEvent, error) {
	var event schema.AddRemoveEvent
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get add/remove event: %w", err)
	}
	return &event, nil
}

func (s *pgStore) CreateDepositWithdrawEvent(ctx context.Context, event *schema.DepositWithdrawEvent) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(event).Error
	if err != nil {
		return fmt.Errorf("failed to create deposit/withdraw event: %w", err)
	}
	return nil
}

func (s *pgStore) GetDepositWithdrawEvent(ctx context.Context, id string) (*schema.DepositWithdrawEvent, error) {
	var event schema.DepositWithdrawEvent
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get deposit/withdraw event: %w", err)
	}
	return &event, nil
}

func (s *pgStore) CreateDepositWithdrawAaveEvent(ctx context.Context, event *schema.DepositWithdrawAaveEvent) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(event).Error
	if err != nil {
		return fmt.Errorf("failed to create position event: %w", err)
	}
	return nil
}

func (s *pgStore) GetDepositWithdrawAaveEvent(ctx context.Context, id string) (*schema.DepositWithdrawAaveEvent, error) {
	var event schema.DepositWithdrawAaveEvent
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get position event: %w", err)
	}
	return &event, nil
}

func (s *pgStore) CreateBalanceChange(ctx context.Context, change *schema.BalanceChange) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(change).Error
	if err != nil {
		return fmt.Errorf("failed to create balance change: %w", err)
	}
	return nil
}

func (s *pgStore) GetBalanceChange(ctx context.Context, id string) (*schema.BalanceChange, error) {
	var change schema.BalanceChange
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&change).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get balance change: %w", err)
	}
	return &change, nil
}
