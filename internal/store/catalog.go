// internal/store/catalog.go
package store

import (
	"context"
	"errors"
	"sync"

	"gorm.io/gorm"

	"github.com/javajoker/digital-marketplace/internal/models"
)

type GormCatalog struct {
	db *gorm.DB
}

func NewGormCatalog(db *gorm.DB) *GormCatalog {
	return &GormCatalog{db: db}
}

func (c *GormCatalog) GetAsset(ctx context.Context, assetID int64) (*models.Asset, error) {
	var asset models.Asset
	if err := c.db.WithContext(ctx).First(&asset, assetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.AssetNotFoundError(assetID)
		}
		return nil, models.PersistenceError("get asset", err)
	}
	return &asset, nil
}

type MemoryCatalog struct {
	mu     sync.RWMutex
	assets map[int64]models.Asset
}

func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{assets: make(map[int64]models.Asset)}
}

// Put inserts or replaces an asset snapshot.
func (c *MemoryCatalog) Put(asset models.Asset) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.assets[asset.ID] = asset
}

func (c *MemoryCatalog) GetAsset(_ context.Context, assetID int64) (*models.Asset, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	asset, exists := c.assets[assetID]
	if !exists {
		return nil, models.AssetNotFoundError(assetID)
	}
	return &asset, nil
}
