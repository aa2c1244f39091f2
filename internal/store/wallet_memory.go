// internal/store/wallet_memory.go
package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/javajoker/digital-marketplace/internal/models"
)

type MemoryWalletStore struct {
	mu      sync.Mutex
	opts    walletOptions
	byOwner map[int64]*models.Wallet
	byID    map[uuid.UUID]int64
}

func NewMemoryWalletStore(opts ...WalletOption) *MemoryWalletStore {
	return &MemoryWalletStore{
		opts:    newWalletOptions(opts),
		byOwner: make(map[int64]*models.Wallet),
		byID:    make(map[uuid.UUID]int64),
	}
}

func (s *MemoryWalletStore) Create(_ context.Context, ownerID int64) (*models.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byOwner[ownerID]; exists {
		return nil, models.WalletAlreadyExistsError(ownerID)
	}

	now := time.Now()
	wallet := &models.Wallet{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Balance:     decimal.Zero,
		CreatedAt:   now,
		LastUpdated: now,
	}
	s.byOwner[ownerID] = wallet
	s.byID[wallet.ID] = ownerID

	copied := *wallet
	return &copied, nil
}

func (s *MemoryWalletStore) Get(_ context.Context, ownerID int64) (*models.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wallet, exists := s.byOwner[ownerID]
	if !exists {
		return nil, models.WalletNotFoundError(ownerID)
	}
	copied := *wallet
	return &copied, nil
}

func (s *MemoryWalletStore) GetByID(_ context.Context, walletID uuid.UUID) (*models.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ownerID, exists := s.byID[walletID]
	if !exists {
		return nil, models.WalletIDNotFoundError(walletID)
	}
	copied := *s.byOwner[ownerID]
	return &copied, nil
}

func (s *MemoryWalletStore) Credit(_ context.Context, ownerID int64, amount decimal.Decimal) (*models.Wallet, error) {
	if err := s.opts.checkCredit(amount); err != nil {
		return nil, err
	}
	return s.add(ownerID, amount)
}

func (s *MemoryWalletStore) Refund(_ context.Context, ownerID int64, amount decimal.Decimal) (*models.Wallet, error) {
	if !amount.IsPositive() {
		return nil, models.InvalidAmountError(amount)
	}
	return s.add(ownerID, amount)
}

func (s *MemoryWalletStore) add(ownerID int64, amount decimal.Decimal) (*models.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wallet, exists := s.byOwner[ownerID]
	if !exists {
		return nil, models.WalletNotFoundError(ownerID)
	}
	wallet.Balance = wallet.Balance.Add(amount)
	wallet.LastUpdated = time.Now()

	copied := *wallet
	return &copied, nil
}

func (s *MemoryWalletStore) Debit(_ context.Context, ownerID int64, amount decimal.Decimal) (*models.Wallet, error) {
	if !amount.IsPositive() {
		return nil, models.InvalidAmountError(amount)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	wallet, exists := s.byOwner[ownerID]
	if !exists {
		return nil, models.WalletNotFoundError(ownerID)
	}
	if wallet.Balance.LessThan(amount) {
		return nil, models.InsufficientFundsError(ownerID, wallet.Balance, amount)
	}
	wallet.Balance = wallet.Balance.Sub(amount)
	wallet.LastUpdated = time.Now()

	copied := *wallet
	return &copied, nil
}
