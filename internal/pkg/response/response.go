package response

import (
	"errors"
	"log"
	"net/http"

	"reservecore/internal/domain"

	"github.com/gin-gonic/gin"
)

const (
	TypeValidation = "validation_error"
	TypeNotFound   = "not_found"
	TypeDeleted    = "resource_deleted"
	TypeConflict   = "conflict"
	TypeSemantic   = "semantic_conflict"
	TypeInternal   = "internal_error"
)

func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"success": true,
		"data":    data,
	})
}

func Error(c *gin.Context, statusCode int, errType string, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"type":    errType,
			"message": message,
		},
	})
}

// DomainError maps the domain error taxonomy onto HTTP statuses. Unknown
// errors are logged and reported as 500 without leaking their text.
func DomainError(c *gin.Context, logger *log.Logger, err error) {
	var (
		conflict domain.ConflictError
		semantic domain.SemanticConflictError
		deleted  domain.DeletedError
	)

	switch {
	case domain.IsValidation(err):
		Error(c, http.StatusBadRequest, TypeValidation, err.Error())
	case errors.As(err, &deleted):
		Error(c, http.StatusGone, TypeDeleted, err.Error())
	case domain.IsNotFound(err):
		Error(c, http.StatusNotFound, TypeNotFound, err.Error())
	case errors.As(err, &semantic):
		Error(c, http.StatusUnprocessableEntity, codeOr(semantic.Code, TypeSemantic), err.Error())
	case errors.As(err, &conflict):
		Error(c, http.StatusConflict, codeOr(conflict.Code, TypeConflict), err.Error())
	default:
		if logger == nil {
			logger = log.Default()
		}
		logger.Printf("request_failed method=%s path=%s error=%v", c.Request.Method, c.FullPath(), err)
		_ = c.Error(err)
		Error(c, http.StatusInternalServerError, TypeInternal, "internal server error")
	}
}

func codeOr(code, fallback string) string {
	if code == "" {
		return fallback
	}
	return code
}
