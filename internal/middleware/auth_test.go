package middleware

import (
	"bytes"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"reservecore/internal/pkg/jwt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestJWTAuth_ValidToken(t *testing.T) {
	jwtService := jwt.New("test-secret-123", 1*time.Hour)
	validToken, _ := jwtService.GenerateToken("ops-42", jwt.RoleAdmin)

	router := gin.New()
	router.Use(JWTAuth(jwtService))

	router.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"subject": c.GetString(ContextSubject),
			"role":    c.GetString(ContextRole),
		})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+validToken)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ops-42")
	assert.Contains(t, w.Body.String(), "admin")
}

func TestJWTAuth_Rejections(t *testing.T) {
	jwtService := jwt.New("secret", 1*time.Hour)

	cases := []struct {
		name   string
		header string
	}{
		{"no token", ""},
		{"wrong format", "Basic dGVzdA=="},
		{"empty bearer", "Bearer   "},
		{"invalid token", "Bearer invalid-jwt-here"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := gin.New()
			router.Use(JWTAuth(jwtService))
			router.GET("/protected", func(c *gin.Context) {
				t.Fatal("Should not reach here")
			})

			w := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/protected", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), `"type":"unauthorized"`)
		})
	}
}

func TestAdminOnly(t *testing.T) {
	jwtService := jwt.New("secret", 1*time.Hour)
	router := gin.New()
	router.Use(JWTAuth(jwtService), AdminOnly())
	router.GET("/admin", func(c *gin.Context) { c.Status(http.StatusOK) })

	clientToken, _ := jwtService.GenerateToken("u1", "client")
	adminToken, _ := jwtService.GenerateToken("ops", jwt.RoleAdmin)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+clientToken)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestIDAndLoggers(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)

	router := gin.New()
	router.Use(RequestID(), RequestLogger(logger), ErrorLogger(logger))
	router.GET("/boom", func(c *gin.Context) { panic("exploded") })
	router.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/ok", nil)
	req.Header.Set("X-Request-ID", "rid-1")
	router.ServeHTTP(w, req)
	assert.Equal(t, "rid-1", w.Body.String())
	assert.Equal(t, "rid-1", w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Contains(t, buf.String(), "request_error type=panic")
	assert.Contains(t, buf.String(), "http_request request_id=")
}

func TestCORSPreflight(t *testing.T) {
	router := gin.New()
	router.Use(CORS([]string{"https://shop.example.com"}))
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://shop.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}
