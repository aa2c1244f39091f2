// internal/utils/response.go
package utils

import (
	"errors"
	"net/http"

	"github.com/javajoker/digital-marketplace/internal/i18n"
	"github.com/javajoker/digital-marketplace/internal/models"

	"github.com/gin-gonic/gin"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

func SuccessResponseWithMeta(c *gin.Context, data interface{}, meta interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

func CreatedResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{
		Success: true,
		Data:    data,
	})
}

func ErrorResponse(c *gin.Context, statusCode int, code, message string, details interface{}) {
	c.JSON(statusCode, APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

func BadRequestResponse(c *gin.Context, message string, details interface{}) {
	lang := GetLangFromContext(c)
	if message == "" {
		message = i18n.T(lang, i18n.KeyValidationInvalid, "request")
	}
	ErrorResponse(c, http.StatusBadRequest, "BAD_REQUEST", message, details)
}

func UnauthorizedResponse(c *gin.Context, message string) {
	lang := GetLangFromContext(c)
	if message == "" {
		message = i18n.T(lang, i18n.KeyAuthRequired)
	}
	ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", message, nil)
}

func ForbiddenResponse(c *gin.Context, message string) {
	lang := GetLangFromContext(c)
	if message == "" {
		message = i18n.T(lang, i18n.KeyAdminAccessDenied)
	}
	ErrorResponse(c, http.StatusForbidden, "FORBIDDEN", message, nil)
}

func NotFoundResponse(c *gin.Context, resource string) {
	lang := GetLangFromContext(c)
	message := i18n.T(lang, resource+".not_found")
	ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", message, nil)
}

func ConflictResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusConflict, "CONFLICT", message, nil)
}

func InternalErrorResponse(c *gin.Context, message string) {
	if message == "" {
		message = i18n.T(GetLangFromContext(c), i18n.KeySystemError)
	}
	ErrorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", message, nil)
}

func ValidationErrorResponse(c *gin.Context, errors []ValidationError) {
	lang := GetLangFromContext(c)
	message := i18n.T(lang, i18n.KeyValidationInvalid, "input")
	ErrorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", message, errors)
}

func PaginatedResponse(c *gin.Context, result PaginationResult) {
	SetPaginationHeaders(c, result)
	SuccessResponseWithMeta(c, result.Data, gin.H{
		"pagination": gin.H{
			"page":        result.Page,
			"limit":       result.Limit,
			"total":       result.Total,
			"total_pages": result.TotalPages,
		},
	})
}

func GetLangFromContext(c *gin.Context) string {
	if lang, exists := c.Get("lang"); exists {
		if langStr, ok := lang.(string); ok {
			return langStr
		}
	}
	return "en"
}

func GetUserIDFromContext(c *gin.Context) (int64, bool) {
	if userID, exists := c.Get("user_id"); exists {
		if id, ok := userID.(int64); ok {
			return id, true
		}
	}
	return 0, false
}

func GetUserRoleFromContext(c *gin.Context) (string, bool) {
	if role, exists := c.Get("user_role"); exists {
		if roleStr, ok := role.(string); ok {
			return roleStr, true
		}
	}
	return "", false
}

func IsAdmin(c *gin.Context) bool {
	role, ok := GetUserRoleFromContext(c)
	return ok && role == string(models.UserRoleAdmin)
}

// StatusForKind maps a domain error kind to its HTTP status.
func StatusForKind(kind models.ErrorKind) int {
	switch kind {
	case models.ErrKindInvalidAmount, models.ErrKindAmountExceedsCap:
		return http.StatusBadRequest
	case models.ErrKindInsufficientFunds:
		return http.StatusPaymentRequired
	case models.ErrKindSelfPurchaseNotAllowed:
		return http.StatusForbidden
	case models.ErrKindWalletNotFound, models.ErrKindAssetNotFound:
		return http.StatusNotFound
	case models.ErrKindWalletAlreadyExists, models.ErrKindAlreadyOwned, models.ErrKindGrantAlreadyExists:
		return http.StatusConflict
	case models.ErrKindAssetNotAvailable:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// DomainErrorResponse writes err using the status and code of its domain
// kind. Errors without a kind become INTERNAL_ERROR.
func DomainErrorResponse(c *gin.Context, err error) {
	lang := GetLangFromContext(c)

	var domainErr *models.Error
	if !errors.As(err, &domainErr) {
		InternalErrorResponse(c, "")
		return
	}

	details := map[string]interface{}{}
	for k, v := range domainErr.Details {
		details[k] = v
	}

	var compErr *models.CompensationError
	if errors.As(err, &compErr) {
		details["reconciliation_required"] = true
		if compErr.NotificationID != nil {
			details["notification_id"] = compErr.NotificationID.String()
		}
		ErrorResponse(c, http.StatusInternalServerError, string(domainErr.Kind),
			i18n.T(lang, i18n.KeyPurchaseReconciliation), details)
		return
	}

	if len(details) == 0 {
		details = nil
	}
	ErrorResponse(c, StatusForKind(domainErr.Kind), string(domainErr.Kind),
		i18n.T(lang, i18n.ErrorKey(string(domainErr.Kind))), details)
}
