// internal/store/store.go
package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/javajoker/digital-marketplace/internal/database"
	"github.com/javajoker/digital-marketplace/internal/services"
)

// NewGormStores returns postgres-backed implementations of every port.
func NewGormStores(db *gorm.DB, walletOpts ...WalletOption) services.Stores {
	return services.Stores{
		Wallets:       NewGormWalletStore(db, walletOpts...),
		Catalog:       NewGormCatalog(db),
		Sales:         NewGormSaleLedger(db),
		Grants:        NewGormGrantStore(db),
		Notifications: NewGormNotificationStore(db),
		Ping: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return database.HealthCheck(ctx, sqlDB)
		},
	}
}

// MemoryStores holds the in-process implementations. The concrete catalog
// is exposed so callers can load assets into it.
type MemoryStores struct {
	Wallets       *MemoryWalletStore
	Catalog       *MemoryCatalog
	Sales         *MemorySaleLedger
	Grants        *MemoryGrantStore
	Notifications *MemoryNotificationStore
}

func NewMemoryStores(walletOpts ...WalletOption) *MemoryStores {
	return &MemoryStores{
		Wallets:       NewMemoryWalletStore(walletOpts...),
		Catalog:       NewMemoryCatalog(),
		Sales:         NewMemorySaleLedger(),
		Grants:        NewMemoryGrantStore(),
		Notifications: NewMemoryNotificationStore(),
	}
}

func (m *MemoryStores) Stores() services.Stores {
	return services.Stores{
		Wallets:       m.Wallets,
		Catalog:       m.Catalog,
		Sales:         m.Sales,
		Grants:        m.Grants,
		Notifications: m.Notifications,
	}
}
