// internal/services/sale_service.go
package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/javajoker/digital-marketplace/internal/models"
	"github.com/javajoker/digital-marketplace/internal/utils"
)

// SaleService answers ledger queries. Writes only happen in PurchaseService.
type SaleService struct {
	sales SaleLedger
}

func NewSaleService(sales SaleLedger) *SaleService {
	return &SaleService{sales: sales}
}

func (s *SaleService) GetSale(ctx context.Context, saleID uuid.UUID) (*models.Sale, error) {
	return s.sales.Get(ctx, saleID)
}

func (s *SaleService) ListSales(ctx context.Context, params utils.PaginationParams) ([]models.Sale, int64, error) {
	return s.sales.List(ctx, models.SaleFilter{}, params)
}

func (s *SaleService) ListByBuyer(ctx context.Context, buyerID int64, params utils.PaginationParams) ([]models.Sale, int64, error) {
	return s.sales.List(ctx, models.SaleFilter{BuyerID: &buyerID}, params)
}

func (s *SaleService) ListBySeller(ctx context.Context, sellerID int64, params utils.PaginationParams) ([]models.Sale, int64, error) {
	return s.sales.List(ctx, models.SaleFilter{SellerID: &sellerID}, params)
}
