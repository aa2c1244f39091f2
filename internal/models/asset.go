// internal/models/asset.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Asset is the catalog snapshot read by the purchase flow. Catalog CRUD
// lives outside this service; rows are only ever read here.
type Asset struct {
	ID        int64           `json:"id" gorm:"primaryKey"`
	OwnerID   int64           `json:"owner_id" gorm:"not null;index"`
	Title     string          `json:"title" gorm:"size:255;not null"`
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	Status    AssetStatus     `json:"status" gorm:"type:varchar(20);default:'draft';index"`
	FileKey   string          `json:"file_key,omitempty" gorm:"size:512"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (a *Asset) IsPublished() bool {
	return a.Status == AssetStatusPublished
}
