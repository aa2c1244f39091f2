// internal/services/wallet_service.go
package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/digital-marketplace/internal/metrics"
	"github.com/javajoker/digital-marketplace/internal/models"
	"github.com/javajoker/digital-marketplace/internal/utils"
)

type WalletService struct {
	wallets  WalletStore
	topUpCap decimal.Decimal
	metrics  *metrics.Metrics
	logger   *logrus.Logger
}

type TopUpRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func NewWalletService(wallets WalletStore, topUpCap decimal.Decimal, m *metrics.Metrics, logger *logrus.Logger) *WalletService {
	return &WalletService{
		wallets:  wallets,
		topUpCap: topUpCap,
		metrics:  m,
		logger:   logger,
	}
}

func (s *WalletService) CreateWallet(ctx context.Context, ownerID int64) (*models.Wallet, error) {
	wallet, err := s.wallets.Create(ctx, ownerID)
	s.record("create", err)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"owner_id":  ownerID,
		"wallet_id": wallet.ID,
	}).Info("Wallet created")
	return wallet, nil
}

func (s *WalletService) GetWallet(ctx context.Context, ownerID int64) (*models.Wallet, error) {
	return s.wallets.Get(ctx, ownerID)
}

func (s *WalletService) GetWalletByID(ctx context.Context, walletID uuid.UUID) (*models.Wallet, error) {
	return s.wallets.GetByID(ctx, walletID)
}

// TopUp is the simulated balance load. It is an unconditional credit bounded
// by the per-operation cap.
func (s *WalletService) TopUp(ctx context.Context, ownerID int64, amount decimal.Decimal) (*models.Wallet, error) {
	if !utils.IsMoneyAmount(amount) {
		s.record("top_up", models.ErrInvalidAmount)
		return nil, models.InvalidAmountError(amount)
	}
	if amount.GreaterThan(s.topUpCap) {
		s.record("top_up", models.ErrAmountExceedsCap)
		return nil, models.AmountExceedsCapError(amount, s.topUpCap)
	}

	wallet, err := s.wallets.Credit(ctx, ownerID, amount)
	s.record("top_up", err)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"owner_id": ownerID,
		"amount":   amount.StringFixed(2),
		"balance":  wallet.Balance.StringFixed(2),
	}).Info("Wallet topped up")
	return wallet, nil
}

func (s *WalletService) record(op string, err error) {
	s.metrics.IncWalletOperation(op, resultLabel(err))
}

// resultLabel is "ok" or the error kind, for metric labels.
func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	if kind, ok := models.KindOf(err); ok {
		return string(kind)
	}
	return "error"
}
