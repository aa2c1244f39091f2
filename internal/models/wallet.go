// internal/models/wallet.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Wallet struct {
	ID          uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	OwnerID     int64           `json:"owner_id" gorm:"not null;uniqueIndex"`
	Balance     decimal.Decimal `json:"balance" gorm:"type:decimal(12,2);not null;default:0;check:balance >= 0"`
	CreatedAt   time.Time       `json:"created_at"`
	LastUpdated time.Time       `json:"last_updated" gorm:"autoUpdateTime"`
}
