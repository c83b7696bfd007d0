package middleware

import (
	"net/http"
	"strings"

	"reservecore/internal/pkg/jwt"
	"reservecore/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	ContextSubject = "subject"
	ContextRole    = "role"
)

// JWTAuth validates the bearer token and stores its subject and role on the context.
func JWTAuth(jwtService *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if h == "" {
			response.Error(c, http.StatusUnauthorized, "unauthorized", "Missing Authorization header")
			c.Abort()
			return
		}

		parts := strings.SplitN(h, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			response.Error(c, http.StatusUnauthorized, "unauthorized", "Authorization header must be 'Bearer <token>'")
			c.Abort()
			return
		}

		tokenStr := strings.TrimSpace(parts[1])
		if tokenStr == "" {
			response.Error(c, http.StatusUnauthorized, "unauthorized", "Empty token")
			c.Abort()
			return
		}

		claims, err := jwtService.ValidateToken(tokenStr)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "unauthorized", "Invalid token")
			c.Abort()
			return
		}

		c.Set(ContextSubject, claims.Subject)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}
