// internal/handlers/common.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/digital-marketplace/internal/i18n"
	"github.com/javajoker/digital-marketplace/internal/utils"
)

// paramID parses a positive numeric path parameter. On failure it writes a
// 400 and returns false.
func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyValidationInvalid, name), nil)
		return 0, false
	}
	return id, true
}

// currentUser returns the authenticated user id or writes a 401.
func currentUser(c *gin.Context) (int64, bool) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return 0, false
	}
	return userID, true
}
