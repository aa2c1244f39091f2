// internal/handlers/sale.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/javajoker/digital-marketplace/internal/i18n"
	"github.com/javajoker/digital-marketplace/internal/models"
	"github.com/javajoker/digital-marketplace/internal/services"
	"github.com/javajoker/digital-marketplace/internal/utils"
)

type SaleHandler struct {
	saleService *services.SaleService
}

func NewSaleHandler(saleService *services.SaleService) *SaleHandler {
	return &SaleHandler{
		saleService: saleService,
	}
}

// GET /sales
func (h *SaleHandler) ListSales(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	sales, total, err := h.saleService.ListSales(c.Request.Context(), params)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(sales, total, params))
}

// GET /sales/buyer/:buyerId
func (h *SaleHandler) ListByBuyer(c *gin.Context) {
	buyerID, ok := paramID(c, "buyerId")
	if !ok {
		return
	}
	params := utils.GetPaginationParams(c)

	sales, total, err := h.saleService.ListByBuyer(c.Request.Context(), buyerID, params)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(sales, total, params))
}

// GET /sales/seller/:sellerId
func (h *SaleHandler) ListBySeller(c *gin.Context) {
	sellerID, ok := paramID(c, "sellerId")
	if !ok {
		return
	}
	params := utils.GetPaginationParams(c)

	sales, total, err := h.saleService.ListBySeller(c.Request.Context(), sellerID, params)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}

	result := utils.CreatePaginationResult(sales, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /sales/:saleId
func (h *SaleHandler) GetSale(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	saleID, err := uuid.Parse(c.Param("saleId"))
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "saleId"), nil)
		return
	}

	userID, ok := currentUser(c)
	if !ok {
		return
	}

	sale, err := h.saleService.GetSale(c.Request.Context(), saleID)
	if err != nil {
		if errors.Is(err, models.ErrRecordNotFound) {
			utils.NotFoundResponse(c, "sale")
			return
		}
		utils.DomainErrorResponse(c, err)
		return
	}

	// Only the parties to a sale and admins may see it.
	if sale.BuyerID != userID && sale.SellerID != userID && !utils.IsAdmin(c) {
		utils.NotFoundResponse(c, "sale")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"sale":       sale,
		"seller_net": sale.SellerNet().StringFixed(2),
	})
}
