package vendors

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/expansio/backend/pkg/response"
)

// CreateRequest is the body for POST /vendors.
type CreateRequest struct {
	Name             string   `json:"name" binding:"required"`
	Rating           *float64 `json:"rating"`
	ResponseSLAHours *int     `json:"response_sla_hours"`
	Services         []string `json:"services"`
	Countries        []string `json:"countries"`
}

// UpdateRequest is the body for PATCH /vendors/:id.
type UpdateRequest struct {
	Name             *string  `json:"name"`
	Rating           *float64 `json:"rating"`
	ResponseSLAHours *int     `json:"response_sla_hours"`
	Services         []string `json:"services"`
	Countries        []string `json:"countries"`
}

// Handler handles vendor HTTP endpoints. Mutations are admin-only, enforced
// by route middleware.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a vendors handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

// Create handles POST /vendors.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.Rating != nil && (*req.Rating < 0 || *req.Rating > 5) {
		response.BadRequest(c, "rating must be between 0 and 5")
		return
	}
	vendor, err := h.repo.Create(c.Request.Context(), req.Name, req.Rating, req.ResponseSLAHours, req.Services, req.Countries)
	if err != nil {
		h.logger.Error("create vendor failed", zap.Error(err))
		response.Internal(c, "failed to create vendor")
		return
	}
	response.Created(c, vendor)
}

// List handles GET /vendors with optional country and service filters.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context(), c.Query("country"), c.Query("service"))
	if err != nil {
		h.logger.Error("list vendors failed", zap.Error(err))
		response.Internal(c, "failed to list vendors")
		return
	}
	response.OK(c, list)
}

// Get handles GET /vendors/:id.
func (h *Handler) Get(c *gin.Context) {
	id, ok := h.vendorID(c)
	if !ok {
		return
	}
	vendor, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err, "failed to load vendor")
		return
	}
	response.OK(c, vendor)
}

// Update handles PATCH /vendors/:id.
func (h *Handler) Update(c *gin.Context) {
	id, ok := h.vendorID(c)
	if !ok {
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.Rating != nil && (*req.Rating < 0 || *req.Rating > 5) {
		response.BadRequest(c, "rating must be between 0 and 5")
		return
	}

	ctx := c.Request.Context()
	if err := h.repo.Update(ctx, id, req.Name, req.Rating, req.ResponseSLAHours); err != nil {
		response.Error(c, err, "failed to update vendor")
		return
	}
	if req.Services != nil {
		if err := h.repo.ReplaceServices(ctx, id, req.Services); err != nil {
			h.logger.Error("replace vendor services failed", zap.Error(err), zap.Int64("vendor_id", id))
			response.Internal(c, "failed to update vendor services")
			return
		}
	}
	if req.Countries != nil {
		if err := h.repo.ReplaceCountries(ctx, id, req.Countries); err != nil {
			h.logger.Error("replace vendor countries failed", zap.Error(err), zap.Int64("vendor_id", id))
			response.Internal(c, "failed to update vendor countries")
			return
		}
	}

	vendor, err := h.repo.GetByID(ctx, id)
	if err != nil {
		response.Error(c, err, "failed to load vendor")
		return
	}
	response.OK(c, vendor)
}

// Delete handles DELETE /vendors/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := h.vendorID(c)
	if !ok {
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err, "failed to delete vendor")
		return
	}
	response.NoContent(c)
}

func (h *Handler) vendorID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid vendor id")
		return 0, false
	}
	return id, true
}
