// internal/store/seed.go
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/digital-marketplace/internal/database"
	"github.com/javajoker/digital-marketplace/internal/models"
)

// SampleAssets is the development catalog. Artist 1 owns the assets; users
// 2 and 3 are buyers.
func SampleAssets() []models.Asset {
	now := time.Now().UTC()
	return []models.Asset{
		{ID: 1, OwnerID: 1, Title: "Sunset Over Dunes", Price: decimal.RequireFromString("30.00"), Status: models.AssetStatusPublished, FileKey: "assets/1/sunset-over-dunes.png", CreatedAt: now, UpdatedAt: now},
		{ID: 2, OwnerID: 1, Title: "Lo-fi Loop Pack", Price: decimal.RequireFromString("9.99"), Status: models.AssetStatusPublished, FileKey: "assets/2/lofi-loops.zip", CreatedAt: now, UpdatedAt: now},
		{ID: 3, OwnerID: 1, Title: "Work In Progress", Price: decimal.RequireFromString("15.00"), Status: models.AssetStatusDraft, FileKey: "assets/3/wip.psd", CreatedAt: now, UpdatedAt: now},
		{ID: 4, OwnerID: 1, Title: "Rejected Upload", Price: decimal.RequireFromString("5.00"), Status: models.AssetStatusRejected, FileKey: "assets/4/rejected.jpg", CreatedAt: now, UpdatedAt: now},
	}
}

// Seed loads the sample catalog into the memory catalog.
func (c *MemoryCatalog) Seed() {
	for _, asset := range SampleAssets() {
		c.Put(asset)
	}
}

// SeedCatalog inserts the sample catalog, leaving existing rows untouched.
func SeedCatalog(ctx context.Context, db *gorm.DB) error {
	logrus.Info("Seeding sample catalog...")

	return database.WithTransaction(db.WithContext(ctx), func(tx *gorm.DB) error {
		for _, asset := range SampleAssets() {
			asset := asset
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&asset).Error; err != nil {
				return fmt.Errorf("failed to seed asset %d: %w", asset.ID, err)
			}
		}
		return nil
	})
}
