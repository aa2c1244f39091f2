// internal/store/wallet_postgres.go
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/digital-marketplace/internal/models"
)

// GormWalletStore applies every balance change as one conditional UPDATE,
// so concurrent writers on the same row serialize in postgres.
type GormWalletStore struct {
	db   *gorm.DB
	opts walletOptions
}

func NewGormWalletStore(db *gorm.DB, opts ...WalletOption) *GormWalletStore {
	return &GormWalletStore{db: db, opts: newWalletOptions(opts)}
}

func (s *GormWalletStore) Create(ctx context.Context, ownerID int64) (*models.Wallet, error) {
	now := time.Now()
	wallet := &models.Wallet{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Balance:     decimal.Zero,
		CreatedAt:   now,
		LastUpdated: now,
	}

	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "owner_id"}}, DoNothing: true}).
		Create(wallet)
	if result.Error != nil {
		return nil, models.PersistenceError("create wallet", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, models.WalletAlreadyExistsError(ownerID)
	}

	return wallet, nil
}

func (s *GormWalletStore) Get(ctx context.Context, ownerID int64) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := s.db.WithContext(ctx).Where("owner_id = ?", ownerID).First(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.WalletNotFoundError(ownerID)
		}
		return nil, models.PersistenceError("get wallet", err)
	}
	return &wallet, nil
}

func (s *GormWalletStore) GetByID(ctx context.Context, walletID uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := s.db.WithContext(ctx).First(&wallet, "id = ?", walletID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.WalletIDNotFoundError(walletID)
		}
		return nil, models.PersistenceError("get wallet", err)
	}
	return &wallet, nil
}

func (s *GormWalletStore) Credit(ctx context.Context, ownerID int64, amount decimal.Decimal) (*models.Wallet, error) {
	if err := s.opts.checkCredit(amount); err != nil {
		return nil, err
	}
	return s.add(ctx, "credit wallet", ownerID, amount)
}

func (s *GormWalletStore) Refund(ctx context.Context, ownerID int64, amount decimal.Decimal) (*models.Wallet, error) {
	if !amount.IsPositive() {
		return nil, models.InvalidAmountError(amount)
	}
	return s.add(ctx, "refund wallet", ownerID, amount)
}

func (s *GormWalletStore) add(ctx context.Context, op string, ownerID int64, amount decimal.Decimal) (*models.Wallet, error) {
	var wallet models.Wallet
	result := s.db.WithContext(ctx).Model(&wallet).
		Clauses(clause.Returning{}).
		Where("owner_id = ?", ownerID).
		Updates(map[string]interface{}{
			"balance":      gorm.Expr("balance + ?", amount),
			"last_updated": time.Now(),
		})
	if result.Error != nil {
		return nil, models.PersistenceError(op, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, models.WalletNotFoundError(ownerID)
	}

	return &wallet, nil
}

func (s *GormWalletStore) Debit(ctx context.Context, ownerID int64, amount decimal.Decimal) (*models.Wallet, error) {
	if !amount.IsPositive() {
		return nil, models.InvalidAmountError(amount)
	}

	var wallet models.Wallet
	result := s.db.WithContext(ctx).Model(&wallet).
		Clauses(clause.Returning{}).
		Where("owner_id = ? AND balance >= ?", ownerID, amount).
		Updates(map[string]interface{}{
			"balance":      gorm.Expr("balance - ?", amount),
			"last_updated": time.Now(),
		})
	if result.Error != nil {
		return nil, models.PersistenceError("debit wallet", result.Error)
	}

	if result.RowsAffected == 0 {
		// Either the wallet is missing or the balance check failed.
		current, err := s.Get(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		return nil, models.InsufficientFundsError(ownerID, current.Balance, amount)
	}

	return &wallet, nil
}
