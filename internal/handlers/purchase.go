// internal/handlers/purchase.go
package handlers

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/digital-marketplace/internal/i18n"
	"github.com/javajoker/digital-marketplace/internal/services"
	"github.com/javajoker/digital-marketplace/internal/utils"
)

type PurchaseHandler struct {
	purchaseService *services.PurchaseService
}

func NewPurchaseHandler(purchaseService *services.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{
		purchaseService: purchaseService,
	}
}

// POST /assets/:assetId/purchase
func (h *PurchaseHandler) Purchase(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	assetID, ok := paramID(c, "assetId")
	if !ok {
		return
	}

	buyerID, ok := currentUser(c)
	if !ok {
		return
	}

	// The body is optional.
	var req services.PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	sale, err := h.purchaseService.Purchase(c.Request.Context(), assetID, buyerID, &req)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyPurchaseCompleted),
		"sale":    sale,
	})
}
