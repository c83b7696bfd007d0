package capacity

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"reservecore/internal/pkg/response"
	"reservecore/internal/pkg/validator"
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

// Initialize handles POST /api/v1/resources/:id/capacity/initialize
// @Summary Initialize daily capacity for a date range (idempotent)
// @Tags Admin Capacity
// @Security BearerAuth
// @Router /resources/{id}/capacity/initialize [post]
func (h *Handler) Initialize(c *gin.Context) {
	var req InitializeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.TypeValidation, "Invalid JSON body")
		return
	}
	if err := validator.Struct(req); err != nil {
		response.DomainError(c, h.logger, err)
		return
	}

	created, err := h.service.InitializeRange(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.DomainError(c, h.logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"created": created})
}

// Report handles GET /api/v1/resources/:id/capacity/report?start_date&end_date
func (h *Handler) Report(c *gin.Context) {
	rows, err := h.service.Report(c.Request.Context(), c.Param("id"), c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		response.DomainError(c, h.logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"resource_id": c.Param("id"), "dates": rows})
}

// Availability handles GET /api/v1/availability?resource_id&start_date&end_date&quantity
func (h *Handler) Availability(c *gin.Context) {
	quantity := 1
	if raw := c.Query("quantity"); raw != "" {
		q, err := strconv.Atoi(raw)
		if err != nil || q <= 0 {
			response.Error(c, http.StatusBadRequest, response.TypeValidation, "quantity must be a positive integer")
			return
		}
		quantity = q
	}

	dates, err := h.service.GetAvailableDates(c.Request.Context(), c.Query("resource_id"), c.Query("start_date"), c.Query("end_date"), quantity)
	if err != nil {
		response.DomainError(c, h.logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"available_dates": dates})
}
