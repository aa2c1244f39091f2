// internal/store/grant_postgres.go
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/digital-marketplace/internal/models"
	"github.com/javajoker/digital-marketplace/internal/utils"
)

type GormGrantStore struct {
	db *gorm.DB
}

func NewGormGrantStore(db *gorm.DB) *GormGrantStore {
	return &GormGrantStore{db: db}
}

func (s *GormGrantStore) Exists(ctx context.Context, buyerID, assetID int64) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.AccessGrant{}).
		Where("buyer_id = ? AND asset_id = ?", buyerID, assetID).
		Count(&count).Error
	if err != nil {
		return false, models.PersistenceError("check access grant", err)
	}
	return count > 0, nil
}

// Create relies on the unique (buyer_id, asset_id) index, so a concurrent
// insert of the same pair surfaces as GRANT_ALREADY_EXISTS.
func (s *GormGrantStore) Create(ctx context.Context, buyerID, assetID int64, saleID uuid.UUID) (*models.AccessGrant, error) {
	grant := &models.AccessGrant{
		ID:        uuid.New(),
		BuyerID:   buyerID,
		AssetID:   assetID,
		SaleID:    saleID,
		GrantedAt: time.Now().UTC(),
	}

	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "buyer_id"}, {Name: "asset_id"}},
			DoNothing: true,
		}).
		Create(grant)
	if result.Error != nil {
		return nil, models.PersistenceError("create access grant", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, models.GrantAlreadyExistsError(buyerID, assetID)
	}

	return grant, nil
}

func (s *GormGrantStore) ListByBuyer(ctx context.Context, buyerID int64, params utils.PaginationParams) ([]models.AccessGrant, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.AccessGrant{}).Where("buyer_id = ?", buyerID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, models.PersistenceError("count access grants", err)
	}

	var grants []models.AccessGrant
	err := utils.ApplyPagination(query.Order("granted_at "+params.Order), params).Find(&grants).Error
	if err != nil {
		return nil, 0, models.PersistenceError("list access grants", err)
	}

	return grants, total, nil
}
