// internal/middleware/auth.go
package middleware

import (
	"net/http"
	"strings"

	"github.com/javajoker/digital-marketplace/internal/i18n"
	"github.com/javajoker/digital-marketplace/internal/models"
	"github.com/javajoker/digital-marketplace/internal/utils"

	"github.com/gin-gonic/gin"
)

// AuthRequired resolves the authenticated principal from the bearer token
// and stores its numeric user id and role in the context.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := utils.GetLangFromContext(c)

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", i18n.T(lang, i18n.KeyAuthRequired), nil)
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", i18n.T(lang, i18n.KeyAuthInvalidToken), nil)
			c.Abort()
			return
		}

		claims, err := utils.ValidateJWT(parts[1])
		if err != nil {
			utils.ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", i18n.T(lang, i18n.KeyAuthTokenExpired), nil)
			c.Abort()
			return
		}

		// Set user info in context
		c.Set("user_id", claims.UserID)
		c.Set("user_role", claims.Role)
		c.Next()
	}
}

func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !utils.IsAdmin(c) {
			utils.ErrorResponse(c, http.StatusForbidden, "FORBIDDEN",
				i18n.T(utils.GetLangFromContext(c), i18n.KeyAdminAccessDenied), nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

// SelfOrAdmin allows the request when the user id in the named path
// parameter is the caller's own id, or when the caller is an admin.
func SelfOrAdmin(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if utils.IsAdmin(c) {
			c.Next()
			return
		}

		userID, ok := utils.GetUserIDFromContext(c)
		if !ok || c.Param(param) != formatID(userID) {
			utils.ErrorResponse(c, http.StatusForbidden, "FORBIDDEN",
				i18n.T(utils.GetLangFromContext(c), i18n.KeyAccessDenied), nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

func RoleIn(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := utils.GetUserRoleFromContext(c)
		for _, r := range roles {
			if role == string(r) {
				c.Next()
				return
			}
		}
		utils.ErrorResponse(c, http.StatusForbidden, "FORBIDDEN",
			i18n.T(utils.GetLangFromContext(c), i18n.KeyAccessDenied), nil)
		c.Abort()
	}
}
