// internal/handlers/wallet.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/javajoker/digital-marketplace/internal/i18n"
	"github.com/javajoker/digital-marketplace/internal/services"
	"github.com/javajoker/digital-marketplace/internal/utils"
)

type WalletHandler struct {
	walletService *services.WalletService
}

func NewWalletHandler(walletService *services.WalletService) *WalletHandler {
	return &WalletHandler{
		walletService: walletService,
	}
}

// POST /wallets/:ownerId
func (h *WalletHandler) CreateWallet(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	ownerID, ok := paramID(c, "ownerId")
	if !ok {
		return
	}

	wallet, err := h.walletService.CreateWallet(c.Request.Context(), ownerID)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyWalletCreated),
		"wallet":  wallet,
	})
}

// GET /wallets/me
func (h *WalletHandler) GetMyWallet(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	wallet, err := h.walletService.GetWallet(c.Request.Context(), userID)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"wallet": wallet,
	})
}

// GET /wallets/:ownerId
func (h *WalletHandler) GetWallet(c *gin.Context) {
	ownerID, ok := paramID(c, "ownerId")
	if !ok {
		return
	}

	wallet, err := h.walletService.GetWallet(c.Request.Context(), ownerID)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"wallet": wallet,
	})
}

// GET /wallets/id/:walletId
func (h *WalletHandler) GetWalletByID(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	walletID, err := uuid.Parse(c.Param("walletId"))
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "walletId"), nil)
		return
	}

	userID, ok := currentUser(c)
	if !ok {
		return
	}

	wallet, err := h.walletService.GetWalletByID(c.Request.Context(), walletID)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}

	// Hide other users' wallets behind a 404.
	if wallet.OwnerID != userID && !utils.IsAdmin(c) {
		utils.NotFoundResponse(c, "wallet")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"wallet": wallet,
	})
}

// POST /wallets/me/top-up
func (h *WalletHandler) TopUp(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req services.TopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	wallet, err := h.walletService.TopUp(c.Request.Context(), userID, req.Amount)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyWalletToppedUp),
		"wallet":  wallet,
	})
}
