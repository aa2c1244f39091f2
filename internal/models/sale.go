// internal/models/sale.go
package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sale is an append-only ledger entry. A reversal entry voids the sale
// named by ReversesID; at most one reversal exists per sale.
type Sale struct {
	BaseModel
	Kind        SaleKind        `json:"kind" gorm:"type:varchar(20);not null;default:'sale';index"`
	AssetID     int64           `json:"asset_id" gorm:"not null;index"`
	BuyerID     int64           `json:"buyer_id" gorm:"not null;index"`
	SellerID    int64           `json:"seller_id" gorm:"not null;index"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	Commission  decimal.Decimal `json:"commission" gorm:"type:decimal(12,2);not null"`
	ExternalRef string          `json:"external_ref,omitempty" gorm:"size:100"`
	ReversesID  *uuid.UUID      `json:"reverses_id,omitempty" gorm:"type:uuid;uniqueIndex"`
	Reason      string          `json:"reason,omitempty" gorm:"type:text"`
}

func (s *Sale) IsReversal() bool {
	return s.Kind == SaleKindReversal
}

// SellerNet is the part of the price left after the commission.
func (s *Sale) SellerNet() decimal.Decimal {
	return s.Price.Sub(s.Commission)
}

type SaleFilter struct {
	BuyerID  *int64
	SellerID *int64
	Kind     *SaleKind
}
