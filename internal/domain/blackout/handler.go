package blackout

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"reservecore/internal/pkg/response"
)

type Handler struct {
	service *Service
	logger  *log.Logger
}

func NewHandler(service *Service, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Create handles POST /api/v1/blackouts
func (h *Handler) Create(c *gin.Context) {
	var req CreateBlackoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.TypeValidation, "Invalid JSON body")
		return
	}

	b, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.DomainError(c, h.logger, err)
		return
	}
	response.Success(c, http.StatusCreated, b)
}

// List handles GET /api/v1/blackouts?resource_id=
func (h *Handler) List(c *gin.Context) {
	items, err := h.service.ListForResource(c.Request.Context(), c.Query("resource_id"))
	if err != nil {
		response.DomainError(c, h.logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"blackouts": items})
}

func (h *Handler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.DomainError(c, h.logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
