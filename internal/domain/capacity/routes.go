package capacity

import "github.com/gin-gonic/gin"

// RegisterPublicRoutes registers storefront availability routes
func RegisterPublicRoutes(r *gin.RouterGroup, handler *Handler) {
	r.GET("/availability", handler.Availability)
}

// RegisterAdminRoutes registers capacity management routes
func RegisterAdminRoutes(r *gin.RouterGroup, handler *Handler) {
	r.POST("/resources/:id/capacity/initialize", handler.Initialize)
	r.GET("/resources/:id/capacity/report", handler.Report)
}
