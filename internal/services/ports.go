// internal/services/ports.go
package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/javajoker/digital-marketplace/internal/models"
	"github.com/javajoker/digital-marketplace/internal/utils"
)

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

// WalletStore owns wallet rows. Credit, Refund and Debit must be
// linearizable per owner and Debit must never leave a negative balance.
// Refund returns a previously debited amount and is not subject to the
// credit cap.
type WalletStore interface {
	Create(ctx context.Context, ownerID int64) (*models.Wallet, error)
	Get(ctx context.Context, ownerID int64) (*models.Wallet, error)
	GetByID(ctx context.Context, walletID uuid.UUID) (*models.Wallet, error)
	Credit(ctx context.Context, ownerID int64, amount decimal.Decimal) (*models.Wallet, error)
	Refund(ctx context.Context, ownerID int64, amount decimal.Decimal) (*models.Wallet, error)
	Debit(ctx context.Context, ownerID int64, amount decimal.Decimal) (*models.Wallet, error)
}

// CatalogLookup is the read-only view of the external catalog.
type CatalogLookup interface {
	GetAsset(ctx context.Context, assetID int64) (*models.Asset, error)
}

// SaleLedger is append-only. Reverse appends a reversal entry and returns
// the existing one when the sale was already reversed.
type SaleLedger interface {
	Append(ctx context.Context, sale *models.Sale) error
	Reverse(ctx context.Context, saleID uuid.UUID, reason string) (*models.Sale, error)
	Get(ctx context.Context, saleID uuid.UUID) (*models.Sale, error)
	List(ctx context.Context, filter models.SaleFilter, params utils.PaginationParams) ([]models.Sale, int64, error)
}

// AccessGrantStore enforces at most one grant per (buyer, asset).
type AccessGrantStore interface {
	Exists(ctx context.Context, buyerID, assetID int64) (bool, error)
	Create(ctx context.Context, buyerID, assetID int64, saleID uuid.UUID) (*models.AccessGrant, error)
	ListByBuyer(ctx context.Context, buyerID int64, params utils.PaginationParams) ([]models.AccessGrant, int64, error)
}

type NotificationStore interface {
	Create(ctx context.Context, notification *models.AdminNotification) error
	List(ctx context.Context, status models.NotificationStatus, params utils.PaginationParams) ([]models.AdminNotification, int64, error)
	MarkRead(ctx context.Context, id uuid.UUID) (*models.AdminNotification, error)
}

// Stores bundles one implementation of every port.
type Stores struct {
	Wallets       WalletStore
	Catalog       CatalogLookup
	Sales         SaleLedger
	Grants        AccessGrantStore
	Notifications NotificationStore

	// Ping reports storage health. Nil means always healthy.
	Ping func(ctx context.Context) error
}
