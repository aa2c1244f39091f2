// internal/handlers/license.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/digital-marketplace/internal/i18n"
	"github.com/javajoker/digital-marketplace/internal/services"
	"github.com/javajoker/digital-marketplace/internal/utils"
)

type LicenseHandler struct {
	licenseService *services.LicenseService
}

func NewLicenseHandler(licenseService *services.LicenseService) *LicenseHandler {
	return &LicenseHandler{
		licenseService: licenseService,
	}
}

// GET /licenses/user/:userId
func (h *LicenseHandler) GetUserLicenses(c *gin.Context) {
	userID, ok := paramID(c, "userId")
	if !ok {
		return
	}
	params := utils.GetPaginationParams(c)

	grants, total, err := h.licenseService.GetUserLicenses(c.Request.Context(), userID, params)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}

	result := utils.CreatePaginationResult(grants, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /assets/:assetId/access
func (h *LicenseHandler) CheckAccess(c *gin.Context) {
	assetID, ok := paramID(c, "assetId")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	decision, err := h.licenseService.CheckAccess(c.Request.Context(), assetID, userID)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, decision)
}

// GET /assets/:assetId/download
func (h *LicenseHandler) Download(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	assetID, ok := paramID(c, "assetId")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	link, err := h.licenseService.DownloadLink(c.Request.Context(), assetID, userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAccessDenied):
			utils.ForbiddenResponse(c, i18n.T(lang, i18n.KeyAccessDenied))
		case errors.Is(err, services.ErrNoFile):
			utils.ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", i18n.T(lang, i18n.KeyAssetNoFile), nil)
		default:
			utils.DomainErrorResponse(c, err)
		}
		return
	}

	utils.SuccessResponse(c, link)
}
