package projects

import (
	"context"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/expansio/backend/internal/middleware"
	"github.com/expansio/backend/internal/models"
	"github.com/expansio/backend/pkg/errs"
	"github.com/expansio/backend/pkg/response"
)

// MatchInvalidator removes persisted matches for a project. Called whenever
// the project's country or required services change so stale scores never
// linger.
type MatchInvalidator interface {
	DeleteByProject(ctx context.Context, projectID int64) error
}

// CreateRequest is the body for POST /projects.
type CreateRequest struct {
	Country        string   `json:"country" binding:"required"`
	Budget         *float64 `json:"budget"`
	Status         string   `json:"status"`
	ServicesNeeded []string `json:"services_needed"`
}

// UpdateRequest is the body for PATCH /projects/:id.
type UpdateRequest struct {
	Country        *string  `json:"country"`
	Budget         *float64 `json:"budget"`
	Status         *string  `json:"status"`
	ServicesNeeded []string `json:"services_needed"`
}

// Handler handles project HTTP endpoints.
type Handler struct {
	repo    *Repository
	matches MatchInvalidator
	logger  *zap.Logger
}

// NewHandler creates a projects handler.
func NewHandler(repo *Repository, matches MatchInvalidator, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, matches: matches, logger: logger}
}

// Create handles POST /projects. The caller becomes the owning client.
func (h *Handler) Create(c *gin.Context) {
	p, ok := middleware.Principal(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.Status != "" && !validStatus(req.Status) {
		response.BadRequest(c, "status must be active, completed or cancelled")
		return
	}
	project, err := h.repo.Create(c.Request.Context(), p.ClientID, req.Country, req.Budget, req.Status, req.ServicesNeeded)
	if err != nil {
		h.logger.Error("create project failed", zap.Error(err))
		response.Error(c, err, "failed to create project")
		return
	}
	response.Created(c, project)
}

// List handles GET /projects. Admins see all projects; clients only their own.
func (h *Handler) List(c *gin.Context) {
	p, ok := middleware.Principal(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	var clientID *int64
	if !p.IsAdmin() {
		clientID = &p.ClientID
	}
	list, err := h.repo.List(c.Request.Context(), clientID)
	if err != nil {
		h.logger.Error("list projects failed", zap.Error(err))
		response.Internal(c, "failed to list projects")
		return
	}
	response.OK(c, list)
}

// Get handles GET /projects/:id with the NotFound-before-Forbidden ordering.
func (h *Handler) Get(c *gin.Context) {
	project, ok := h.authorizedProject(c)
	if !ok {
		return
	}
	response.OK(c, project)
}

// Update handles PATCH /projects/:id. Changing country or the required
// service set invalidates the project's matches.
func (h *Handler) Update(c *gin.Context) {
	project, ok := h.authorizedProject(c)
	if !ok {
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.Status != nil && !validStatus(*req.Status) {
		response.BadRequest(c, "status must be active, completed or cancelled")
		return
	}

	ctx := c.Request.Context()
	if err := h.repo.Update(ctx, project.ID, req.Country, req.Budget, req.Status); err != nil {
		response.Error(c, err, "failed to update project")
		return
	}
	invalidate := req.Country != nil && *req.Country != project.Country
	if req.ServicesNeeded != nil {
		if err := h.repo.ReplaceServices(ctx, project.ID, req.ServicesNeeded); err != nil {
			h.logger.Error("replace project services failed", zap.Error(err), zap.Int64("project_id", project.ID))
			response.Internal(c, "failed to update project services")
			return
		}
		invalidate = true
	}
	if invalidate {
		if err := h.matches.DeleteByProject(ctx, project.ID); err != nil {
			h.logger.Error("invalidate matches failed", zap.Error(err), zap.Int64("project_id", project.ID))
			response.Internal(c, "failed to invalidate matches")
			return
		}
	}

	updated, err := h.repo.GetByID(ctx, project.ID)
	if err != nil {
		response.Error(c, err, "failed to load project")
		return
	}
	response.OK(c, updated)
}

// Delete handles DELETE /projects/:id.
func (h *Handler) Delete(c *gin.Context) {
	project, ok := h.authorizedProject(c)
	if !ok {
		return
	}
	if err := h.repo.Delete(c.Request.Context(), project.ID); err != nil {
		response.Error(c, err, "failed to delete project")
		return
	}
	response.NoContent(c)
}

// authorizedProject loads the project and enforces ownership: existence is
// checked first, so a non-owner probing a missing id gets NotFound while a
// non-owner hitting someone else's project gets Forbidden.
func (h *Handler) authorizedProject(c *gin.Context) (*models.Project, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return nil, false
	}
	p, ok := middleware.Principal(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return nil, false
	}
	project, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if !errors.Is(err, errs.ErrNotFound) {
			h.logger.Error("load project failed", zap.Error(err), zap.Int64("project_id", id))
		}
		response.Error(c, err, "failed to load project")
		return nil, false
	}
	if !p.IsAdmin() && project.ClientID != p.ClientID {
		response.Forbidden(c, "you do not have permission to access this project")
		return nil, false
	}
	return project, true
}

func validStatus(s string) bool {
	switch s {
	case models.ProjectStatusActive, models.ProjectStatusCompleted, models.ProjectStatusCancelled:
		return true
	}
	return false
}
