// internal/handlers/admin.go
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

type AdminHandler struct {
	notificationService *services.NotificationService
}

func NewAdminHandler(notificationService *services.NotificationService) *AdminHandler {
	return &AdminHandler{
		notificationService: notificationService,
	}
}

// GET /admin/notifications
func (h *AdminHandler) GetNotifications(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	status := models.NotificationStatus(params.Status)

	notifications, total, err := h.notificationService.ListNotifications(c.Request.Context(), status, params)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}

	result := utils.CreatePaginationResult(notifications, total, params)
	utils.PaginatedResponse(c, result)
}

// PUT /admin/notifications/:id/read
func (h *AdminHandler) MarkNotificationRead(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "id"), nil)
		return
	}

	notification, err := h.notificationService.MarkAsRead(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrRecordNotFound) {
			utils.NotFoundResponse(c, "notification")
			return
		}
		utils.DomainErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":      i18n.T(lang, i18n.KeyNotificationMarkedRead),
		"notification": notification,
	})
}
