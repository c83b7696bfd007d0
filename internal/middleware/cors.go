package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var defaultOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
	"http://127.0.0.1:3000",
	"http://127.0.0.1:5173",
}

// CORS allows the local storefront origins plus any configured extras.
// Preflight requests are answered before auth middleware runs.
func CORS(extraOrigins []string) gin.HandlerFunc {
	cc := cors.DefaultConfig()
	cc.AllowOrigins = append(append([]string{}, defaultOrigins...), extraOrigins...)
	cc.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	cc.AllowHeaders = append(cc.AllowHeaders, "Authorization", "Accept", "X-Requested-With", requestIDHeader)
	cc.ExposeHeaders = []string{requestIDHeader}
	cc.AllowCredentials = true
	cc.MaxAge = 10 * time.Minute
	return cors.New(cc)
}
