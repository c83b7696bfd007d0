package hold

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

// Create handles POST /api/v1/holds
// 201 when holds were created, 200 when the token already had holds.
func (h *Handler) Create(c *gin.Context) {
	var req CreateHoldInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.TypeValidation, "Invalid JSON body")
		return
	}

	res, err := h.service.CreateHold(c.Request.Context(), req)
	if err != nil {
		response.DomainError(c, h.logger, err)
		return
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	response.Success(c, status, res)
}

func (h *Handler) Get(c *gin.Context) {
	hold, err := h.service.GetHold(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.DomainError(c, h.logger, err)
		return
	}
	response.Success(c, http.StatusOK, hold)
}

// Confirm handles POST /api/v1/holds/:id/confirm
func (h *Handler) Confirm(c *gin.Context) {
	var req ConfirmHoldInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.TypeValidation, "Invalid JSON body")
		return
	}

	alloc, err := h.service.ConfirmHold(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.DomainError(c, h.logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"allocation": alloc})
}

// Release handles DELETE /api/v1/holds/:id
func (h *Handler) Release(c *gin.Context) {
	hold, err := h.service.ReleaseHold(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.DomainError(c, h.logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"hold": hold})
}

// Extend handles POST /api/v1/holds/:id/extend. An empty body extends by the default.
func (h *Handler) Extend(c *gin.Context) {
	var req ExtendHoldInput
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, response.TypeValidation, "Invalid JSON body")
			return
		}
	}
	minutes := DefaultExtendMinutes
	if req.Minutes != nil {
		minutes = *req.Minutes
	}

	hold, err := h.service.ExtendHold(c.Request.Context(), c.Param("id"), minutes)
	if err != nil {
		response.DomainError(c, h.logger, err)
		return
	}
	response.Success(c, http.StatusOK, hold)
}

// Cleanup handles POST /api/v1/admin/holds/cleanup
func (h *Handler) Cleanup(c *gin.Context) {
	n, err := h.service.CleanupExpiredHolds(c.Request.Context())
	if err != nil {
		response.DomainError(c, h.logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"expired": n})
}

// ActiveHolds handles GET /api/v1/admin/resources/:id/holds?date=
func (h *Handler) ActiveHolds(c *gin.Context) {
	items, err := h.service.GetActiveHolds(c.Request.Context(), c.Param("id"), c.Query("date"))
	if err != nil {
		response.DomainError(c, h.logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"holds": items})
}

// OrderAllocations handles GET /api/v1/admin/allocations?order_id=
func (h *Handler) OrderAllocations(c *gin.Context) {
	items, err := h.service.GetAllocationsByOrder(c.Request.Context(), c.Query("order_id"))
	if err != nil {
		response.DomainError(c, h.logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"allocations": items})
}

// ResourceAllocations handles GET /api/v1/admin/resources/:id/allocations?date=
func (h *Handler) ResourceAllocations(c *gin.Context) {
	items, err := h.service.GetAllocations(c.Request.Context(), c.Param("id"), c.Query("date"))
	if err != nil {
		response.DomainError(c, h.logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"allocations": items})
}
