package resource

import (
	"log"
	"net/http"
	"strconv"

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

// Create handles POST /api/v1/resources
// @Summary Create bookable resource
// @Tags Admin Resources
// @Security BearerAuth
// @Router /resources [post]
func (h *Handler) Create(c *gin.Context) {
	var req CreateResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.TypeValidation, "Invalid JSON body")
		return
	}

	res, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.DomainError(c, h.logger, err)
		return
	}
	response.Success(c, http.StatusCreated, res)
}

// List handles GET /api/v1/resources?type&is_active&include_deleted
func (h *Handler) List(c *gin.Context) {
	var f ResourceFilter
	f.Type = Type(c.Query("type"))

	if raw := c.Query("is_active"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(c, http.StatusBadRequest, response.TypeValidation, "is_active must be a boolean")
			return
		}
		f.IsActive = &v
	}
	if raw := c.Query("include_deleted"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(c, http.StatusBadRequest, response.TypeValidation, "include_deleted must be a boolean")
			return
		}
		f.IncludeDeleted = v
	}

	items, err := h.service.List(c.Request.Context(), f)
	if err != nil {
		response.DomainError(c, h.logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"resources": items, "total": len(items)})
}

// Get handles GET /api/v1/resources/:id. Soft-deleted resources answer 410.
func (h *Handler) Get(c *gin.Context) {
	res, err := h.service.GetOrFail(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.DomainError(c, h.logger, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

func (h *Handler) Update(c *gin.Context) {
	var req UpdateResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.TypeValidation, "Invalid JSON body")
		return
	}

	res, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.DomainError(c, h.logger, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

func (h *Handler) Delete(c *gin.Context) {
	res, err := h.service.SoftDelete(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.DomainError(c, h.logger, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

func (h *Handler) Restore(c *gin.Context) {
	res, err := h.service.Restore(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.DomainError(c, h.logger, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}
