package hold

import "github.com/gin-gonic/gin"

// RegisterPublicRoutes registers the hold lifecycle used by checkout.
func RegisterPublicRoutes(r *gin.RouterGroup, handler *Handler) {
	holds := r.Group("/holds")
	{
		holds.POST("", handler.Create)
		holds.GET("/:id", handler.Get)
		holds.POST("/:id/confirm", handler.Confirm)
		holds.POST("/:id/extend", handler.Extend)
		holds.DELETE("/:id", handler.Release)
	}
}

// RegisterAdminRoutes registers sweep and ledger queries.
func RegisterAdminRoutes(r *gin.RouterGroup, handler *Handler) {
	r.POST("/holds/cleanup", handler.Cleanup)
	r.GET("/allocations", handler.OrderAllocations)
	r.GET("/resources/:id/holds", handler.ActiveHolds)
	r.GET("/resources/:id/allocations", handler.ResourceAllocations)
}
