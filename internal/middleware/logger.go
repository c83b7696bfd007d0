package middleware

import (
	"fmt"
	"log"
	"net/http"
	"runtime/debug"
	"time"

	"reservecore/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// RequestLogger prints one line per request including request_id.
func RequestLogger(logger *log.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = log.Default()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Printf("http_request request_id=%s method=%s path=%s status=%d latency_ms=%.3f ip=%s",
			GetRequestID(c),
			c.Request.Method,
			c.Request.URL.Path,
			c.Writer.Status(),
			float64(time.Since(start).Microseconds())/1000.0,
			c.ClientIP(),
		)
	}
}

// ErrorLogger logs detailed error information and recovers from panics.
func ErrorLogger(logger *log.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = log.Default()
	}
	return func(c *gin.Context) {
		start := time.Now()
		defer func() {
			if recovered := recover(); recovered != nil {
				err := fmt.Errorf("%v", recovered)
				logRequestError(logger, c, start, "panic", err.Error(), debug.Stack())

				response.Error(c, http.StatusInternalServerError, response.TypeInternal, "internal server error")
				c.Abort()
				return
			}

			if len(c.Errors) == 0 {
				if c.Writer.Status() >= http.StatusInternalServerError {
					logRequestError(logger, c, start, "http_error", fmt.Sprintf("status=%d", c.Writer.Status()), nil)
				}
				return
			}

			for _, err := range c.Errors {
				logRequestError(logger, c, start, fmt.Sprintf("%v", err.Type), err.Error(), nil)
				if err.Meta != nil {
					logger.Printf("request_error_meta request_id=%s meta=%+v", GetRequestID(c), err.Meta)
				}
			}
		}()

		c.Next()
	}
}

func logRequestError(logger *log.Logger, c *gin.Context, start time.Time, errType string, message string, stack []byte) {
	logger.Printf(
		"request_error type=%s status=%d method=%s path=%s query=%s client_ip=%s subject=%s role=%s request_id=%s latency=%s error=%q stack=%s",
		errType,
		c.Writer.Status(),
		c.Request.Method,
		c.Request.URL.Path,
		c.Request.URL.RawQuery,
		c.ClientIP(),
		c.GetString(ContextSubject),
		c.GetString(ContextRole),
		GetRequestID(c),
		time.Since(start),
		message,
		string(stack),
	)
}
