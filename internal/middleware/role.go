package middleware

import (
	"net/http"

	"reservecore/internal/pkg/jwt"
	"reservecore/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// RequireRole ensures that the authenticated caller has the specified role
func RequireRole(requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ContextRole)
		if role == "" {
			response.Error(c, http.StatusUnauthorized, "unauthorized", "Role not found in token")
			c.Abort()
			return
		}

		if role != requiredRole {
			response.Error(c, http.StatusForbidden, "forbidden", "Access denied: insufficient permissions")
			c.Abort()
			return
		}

		c.Next()
	}
}

// AdminOnly middleware requires admin role
func AdminOnly() gin.HandlerFunc {
	return RequireRole(jwt.RoleAdmin)
}
