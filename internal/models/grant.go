// internal/models/grant.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type AccessGrant struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	BuyerID   int64     `json:"buyer_id" gorm:"not null;uniqueIndex:idx_access_grants_buyer_asset"`
	AssetID   int64     `json:"asset_id" gorm:"not null;uniqueIndex:idx_access_grants_buyer_asset;index"`
	SaleID    uuid.UUID `json:"sale_id" gorm:"type:uuid;not null;index"`
	GrantedAt time.Time `json:"granted_at" gorm:"not null"`
}
