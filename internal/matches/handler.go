package matches

import (
	"context"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/expansio/backend/internal/authz"
	"github.com/expansio/backend/internal/middleware"
	"github.com/expansio/backend/internal/models"
	"github.com/expansio/backend/pkg/errs"
	"github.com/expansio/backend/pkg/response"
)

// ProjectGetter loads a project for the ownership check.
type ProjectGetter interface {
	GetByID(ctx context.Context, id int64) (*models.Project, error)
}

// Rebuilder is the authorization-checked rebuild entry point.
type Rebuilder interface {
	RebuildFor(ctx context.Context, projectID int64, p authz.Principal) ([]models.Match, error)
}

// Handler handles match HTTP endpoints.
type Handler struct {
	repo     *Repository
	projects ProjectGetter
	engine   Rebuilder
	logger   *zap.Logger
}

// NewHandler creates a matches handler.
func NewHandler(repo *Repository, projects ProjectGetter, engine Rebuilder, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, projects: projects, engine: engine, logger: logger}
}

// ListByProject handles GET /projects/:id/matches. The project must exist
// (NotFound first) and belong to the caller unless the caller is an admin
// (Forbidden second).
func (h *Handler) ListByProject(c *gin.Context) {
	projectID, p, ok := h.projectAndPrincipal(c)
	if !ok {
		return
	}
	project, err := h.projects.GetByID(c.Request.Context(), projectID)
	if err != nil {
		response.Error(c, err, "failed to load project")
		return
	}
	if !p.IsAdmin() && project.ClientID != p.ClientID {
		response.Forbidden(c, "you do not have permission to access this project")
		return
	}
	list, err := h.repo.ListByProject(c.Request.Context(), projectID)
	if err != nil {
		h.logger.Error("list matches failed", zap.Error(err), zap.Int64("project_id", projectID))
		response.Internal(c, "failed to list matches")
		return
	}
	response.OK(c, list)
}

// Rebuild handles POST /projects/:id/matches/rebuild.
func (h *Handler) Rebuild(c *gin.Context) {
	projectID, p, ok := h.projectAndPrincipal(c)
	if !ok {
		return
	}
	list, err := h.engine.RebuildFor(c.Request.Context(), projectID, p)
	if err != nil {
		if !errors.Is(err, errs.ErrNotFound) && !errors.Is(err, errs.ErrForbidden) {
			h.logger.Error("rebuild matches failed", zap.Error(err), zap.Int64("project_id", projectID))
		}
		response.Error(c, err, "failed to rebuild matches")
		return
	}
	response.OK(c, list)
}

func (h *Handler) projectAndPrincipal(c *gin.Context) (int64, authz.Principal, bool) {
	projectID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return 0, authz.Principal{}, false
	}
	p, ok := middleware.Principal(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return 0, authz.Principal{}, false
	}
	return projectID, p, true
}
