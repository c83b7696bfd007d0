package resource

import "github.com/gin-gonic/gin"

// RegisterAdminRoutes registers resource management routes
func RegisterAdminRoutes(r *gin.RouterGroup, handler *Handler) {
	resources := r.Group("/resources")
	{
		resources.POST("", handler.Create)
		resources.GET("", handler.List)
		resources.GET("/:id", handler.Get)
		resources.PUT("/:id", handler.Update)
		resources.DELETE("/:id", handler.Delete)
		resources.POST("/:id/restore", handler.Restore)
	}
}
