package research

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/expansio/backend/internal/authz"
	"github.com/expansio/backend/internal/middleware"
	"github.com/expansio/backend/internal/models"
	"github.com/expansio/backend/pkg/errs"
	"github.com/expansio/backend/pkg/response"
)

// ProjectStore resolves project ownership for document-level checks.
type ProjectStore interface {
	authz.ProjectOwnership
	GetByID(ctx context.Context, id int64) (*models.Project, error)
}

// DocRequest is the body for POST /research and PATCH /research/:id.
type DocRequest struct {
	ProjectID string   `json:"project_id" binding:"required"`
	Title     string   `json:"title" binding:"required"`
	Content   string   `json:"content" binding:"required"`
	Tags      []string `json:"tags"`
}

// Handler handles research document HTTP endpoints.
type Handler struct {
	repo     *Repository
	projects ProjectStore
	checker  *Checker
	logger   *zap.Logger
}

// NewHandler creates a research handler.
func NewHandler(repo *Repository, projects ProjectStore, checker *Checker, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, projects: projects, checker: checker, logger: logger}
}

// Create handles POST /research. The referenced project must exist and,
// for non-admins, belong to the caller.
func (h *Handler) Create(c *gin.Context) {
	p, ok := middleware.Principal(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	var req DocRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if !h.ownsReferencedProject(c, p, req.ProjectID) {
		return
	}
	doc := &models.ResearchDoc{
		ProjectID: req.ProjectID,
		Title:     req.Title,
		Content:   req.Content,
		Tags:      req.Tags,
	}
	if err := h.repo.Create(c.Request.Context(), doc); err != nil {
		h.logger.Error("create research doc failed", zap.Error(err))
		response.Internal(c, "failed to create research document")
		return
	}
	response.Created(c, doc)
}

// List handles GET /research with pagination, sorting and free-text search.
// Scoping happens before skip/limit, so page contents and total count both
// reflect only the caller's projects.
func (h *Handler) List(c *gin.Context) {
	scope, ok := h.callerScope(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	sortField, sortDesc := parseSort(c.Query("sort_by"))

	docs, total, err := h.repo.FindAll(c.Request.Context(), scope, Query{Text: c.Query("search")}, page, limit, sortField, sortDesc)
	if err != nil {
		h.logger.Error("list research docs failed", zap.Error(err))
		response.Internal(c, "failed to list research documents")
		return
	}
	response.Paginated(c, docs, page, limit, total)
}

// Search handles GET /research/search with text/tag/project filters.
func (h *Handler) Search(c *gin.Context) {
	scope, ok := h.callerScope(c)
	if !ok {
		return
	}
	q := Query{
		Text:      c.Query("text"),
		Tag:       c.Query("tag"),
		ProjectID: c.Query("project_id"),
	}
	docs, err := h.repo.Search(c.Request.Context(), scope, q)
	if err != nil {
		h.logger.Error("search research docs failed", zap.Error(err))
		response.Internal(c, "failed to search research documents")
		return
	}
	response.OK(c, docs)
}

// Get handles GET /research/:id.
func (h *Handler) Get(c *gin.Context) {
	doc, ok := h.authorizedDoc(c)
	if !ok {
		return
	}
	response.OK(c, doc)
}

// Update handles PATCH /research/:id.
func (h *Handler) Update(c *gin.Context) {
	doc, ok := h.authorizedDoc(c)
	if !ok {
		return
	}
	p, _ := middleware.Principal(c)
	var req DocRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	// Re-pointing the document at a different project needs ownership of
	// the target project too.
	if req.ProjectID != doc.ProjectID && !h.ownsReferencedProject(c, p, req.ProjectID) {
		return
	}
	updated, err := h.repo.Update(c.Request.Context(), doc.ID.Hex(), req.ProjectID, req.Title, req.Content, req.Tags)
	if err != nil {
		response.Error(c, err, "failed to update research document")
		return
	}
	response.OK(c, updated)
}

// Delete handles DELETE /research/:id.
func (h *Handler) Delete(c *gin.Context) {
	doc, ok := h.authorizedDoc(c)
	if !ok {
		return
	}
	if err := h.repo.Delete(c.Request.Context(), doc.ID.Hex()); err != nil {
		response.Error(c, err, "failed to delete research document")
		return
	}
	response.NoContent(c)
}

// Orphans handles GET /research/orphans (admin only): research documents
// referencing projects that no longer exist.
func (h *Handler) Orphans(c *gin.Context) {
	orphans, err := h.checker.OrphanedProjectIDs(c.Request.Context())
	if err != nil {
		h.logger.Error("consistency check failed", zap.Error(err))
		response.Internal(c, "failed to run consistency check")
		return
	}
	response.OK(c, gin.H{"orphaned_project_ids": orphans})
}

// authorizedDoc fetches the document and enforces ownership in that order:
// a missing id is NotFound for every caller, an existing document owned by
// someone else is Forbidden for non-admins.
func (h *Handler) authorizedDoc(c *gin.Context) (*models.ResearchDoc, bool) {
	p, ok := middleware.Principal(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return nil, false
	}
	doc, err := h.repo.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err, "failed to load research document")
		return nil, false
	}
	if p.IsAdmin() {
		return doc, true
	}
	projectID, err := strconv.ParseInt(doc.ProjectID, 10, 64)
	if err != nil {
		// Unresolvable reference; only admins see orphaned documents.
		response.Forbidden(c, "you do not have permission to access this document")
		return nil, false
	}
	project, err := h.projects.GetByID(c.Request.Context(), projectID)
	if err != nil || project.ClientID != p.ClientID {
		response.Forbidden(c, "you do not have permission to access this document")
		return nil, false
	}
	return doc, true
}

func (h *Handler) callerScope(c *gin.Context) (authz.Scope, bool) {
	p, ok := middleware.Principal(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return authz.Scope{}, false
	}
	scope, err := authz.ScopeFor(c.Request.Context(), p, h.projects)
	if err != nil {
		h.logger.Error("resolve caller scope failed", zap.Error(err))
		response.Internal(c, "failed to resolve access scope")
		return authz.Scope{}, false
	}
	return scope, true
}

// ownsReferencedProject verifies the referenced project exists and belongs
// to the caller (admins skip the ownership half). Responds on failure.
func (h *Handler) ownsReferencedProject(c *gin.Context, p authz.Principal, projectID string) bool {
	id, err := strconv.ParseInt(projectID, 10, 64)
	if err != nil {
		response.BadRequest(c, "project_id must be a numeric project reference")
		return false
	}
	project, err := h.projects.GetByID(c.Request.Context(), id)
	if err != nil {
		if !errors.Is(err, errs.ErrNotFound) {
			h.logger.Error("load referenced project failed", zap.Error(err), zap.Int64("project_id", id))
		}
		response.Error(c, err, "failed to load referenced project")
		return false
	}
	if !p.IsAdmin() && project.ClientID != p.ClientID {
		response.Forbidden(c, "you do not have permission to use this project")
		return false
	}
	return true
}

// parseSort parses "field:desc" / "field:asc" query values.
func parseSort(s string) (field string, desc bool) {
	if s == "" {
		return "", false
	}
	parts := strings.SplitN(s, ":", 2)
	field = parts[0]
	if len(parts) == 2 && strings.EqualFold(parts[1], "desc") {
		desc = true
	}
	return field, desc
}
