// internal/store/sale_postgres.go
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/digital-marketplace/internal/models"
	"github.com/javajoker/digital-marketplace/internal/utils"
)

// GormSaleLedger only ever inserts rows.
type GormSaleLedger struct {
	db *gorm.DB
}

func NewGormSaleLedger(db *gorm.DB) *GormSaleLedger {
	return &GormSaleLedger{db: db}
}

func (l *GormSaleLedger) Append(ctx context.Context, sale *models.Sale) error {
	prepareSale(sale)
	if err := l.db.WithContext(ctx).Create(sale).Error; err != nil {
		return models.PersistenceError("append sale", err)
	}
	return nil
}

func (l *GormSaleLedger) Reverse(ctx context.Context, saleID uuid.UUID, reason string) (*models.Sale, error) {
	original, err := l.Get(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if original.IsReversal() {
		return nil, models.PersistenceError("reverse sale", errors.New("cannot reverse a reversal entry"))
	}

	reversal := newReversal(original, reason)
	result := l.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "reverses_id"}}, DoNothing: true}).
		Create(reversal)
	if result.Error != nil {
		return nil, models.PersistenceError("reverse sale", result.Error)
	}

	if result.RowsAffected == 0 {
		var existing models.Sale
		if err := l.db.WithContext(ctx).Where("reverses_id = ?", saleID).First(&existing).Error; err != nil {
			return nil, models.PersistenceError("load reversal", err)
		}
		return &existing, nil
	}

	return reversal, nil
}

func (l *GormSaleLedger) Get(ctx context.Context, saleID uuid.UUID) (*models.Sale, error) {
	var sale models.Sale
	if err := l.db.WithContext(ctx).First(&sale, "id = ?", saleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrRecordNotFound
		}
		return nil, models.PersistenceError("get sale", err)
	}
	return &sale, nil
}

func (l *GormSaleLedger) List(ctx context.Context, filter models.SaleFilter, params utils.PaginationParams) ([]models.Sale, int64, error) {
	query := l.db.WithContext(ctx).Model(&models.Sale{})

	if filter.BuyerID != nil {
		query = query.Where("buyer_id = ?", *filter.BuyerID)
	}
	if filter.SellerID != nil {
		query = query.Where("seller_id = ?", *filter.SellerID)
	}
	if filter.Kind != nil {
		query = query.Where("kind = ?", *filter.Kind)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, models.PersistenceError("count sales", err)
	}

	allowedSortFields := []string{"created_at", "price", "commission"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var sales []models.Sale
	if err := query.Find(&sales).Error; err != nil {
		return nil, 0, models.PersistenceError("list sales", err)
	}

	return sales, total, nil
}

// prepareSale assigns the server-side identity and timestamp of a new entry.
func prepareSale(sale *models.Sale) {
	if sale.ID == uuid.Nil {
		sale.ID = uuid.New()
	}
	if sale.Kind == "" {
		sale.Kind = models.SaleKindSale
	}
	sale.CreatedAt = time.Now().UTC()
}

func newReversal(original *models.Sale, reason string) *models.Sale {
	reversesID := original.ID
	reversal := &models.Sale{
		Kind:        models.SaleKindReversal,
		AssetID:     original.AssetID,
		BuyerID:     original.BuyerID,
		SellerID:    original.SellerID,
		Price:       original.Price,
		Commission:  original.Commission,
		ExternalRef: original.ExternalRef,
		ReversesID:  &reversesID,
		Reason:      reason,
	}
	prepareSale(reversal)
	return reversal
}
