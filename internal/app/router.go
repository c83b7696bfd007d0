package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"reservecore/internal/domain/blackout"
	"reservecore/internal/domain/capacity"
	"reservecore/internal/domain/hold"
	"reservecore/internal/domain/resource"
	"reservecore/internal/metrics"
	"reservecore/internal/middleware"
	"reservecore/internal/tracing"
)

func (a *App) newRouter() *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.RequestLogger(a.logger),
		middleware.ErrorLogger(a.logger),
		middleware.CORS(a.Config.CORSAllowedOrigins),
		metrics.Middleware,
		tracing.Middleware(),
	)

	r.GET("/health", a.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	resourceHandler := resource.NewHandler(a.Resources, a.logger)
	blackoutHandler := blackout.NewHandler(a.Blackouts, a.logger)
	capacityHandler := capacity.NewHandler(a.Capacity, a.logger)
	holdHandler := hold.NewHandler(a.Holds, a.logger)

	v1 := r.Group("/api/v1")
	{
		// public (storefront)
		capacity.RegisterPublicRoutes(v1, capacityHandler)
		hold.RegisterPublicRoutes(v1, holdHandler)

		admin := v1.Group("")
		admin.Use(middleware.JWTAuth(a.JWT), middleware.AdminOnly())
		{
			resource.RegisterAdminRoutes(admin, resourceHandler)
			blackout.RegisterAdminRoutes(admin, blackoutHandler)
			capacity.RegisterAdminRoutes(admin, capacityHandler)
			hold.RegisterAdminRoutes(admin, holdHandler)
		}
	}
	return r
}

func (a *App) health(c *gin.Context) {
	sqlDB, err := a.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		a.logger.Printf("health_check_failed error=%v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
