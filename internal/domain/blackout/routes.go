package blackout

import "github.com/gin-gonic/gin"

// RegisterAdminRoutes registers blackout management routes
func RegisterAdminRoutes(r *gin.RouterGroup, handler *Handler) {
	blackouts := r.Group("/blackouts")
	{
		blackouts.POST("", handler.Create)
		blackouts.GET("", handler.List)
		blackouts.DELETE("/:id", handler.Delete)
	}
}
