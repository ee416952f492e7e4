package clients

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/expansio/backend/internal/authz"
	"github.com/expansio/backend/internal/middleware"
	"github.com/expansio/backend/pkg/errs"
	"github.com/expansio/backend/pkg/response"
)

// UpdateRequest is the body for PATCH /clients/:id.
type UpdateRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UpdateRoleRequest is the body for PATCH /clients/:id/role.
type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// Handler handles client HTTP endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a clients handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

// List handles GET /clients (admin only, enforced by route middleware).
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list clients failed", zap.Error(err))
		response.Internal(c, "failed to list clients")
		return
	}
	response.OK(c, list)
}

// Get handles GET /clients/:id. Admins may read anyone; clients only themselves.
func (h *Handler) Get(c *gin.Context) {
	id, p, ok := h.idAndPrincipal(c)
	if !ok {
		return
	}
	if !p.IsAdmin() && p.ClientID != id {
		response.Forbidden(c, "you may only view your own account")
		return
	}
	client, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		h.respondErr(c, err, "failed to load client")
		return
	}
	response.OK(c, client)
}

// Update handles PATCH /clients/:id. Admins may update anyone; clients only themselves.
func (h *Handler) Update(c *gin.Context) {
	id, p, ok := h.idAndPrincipal(c)
	if !ok {
		return
	}
	if !p.IsAdmin() && p.ClientID != id {
		response.Forbidden(c, "you may only update your own account")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if err := h.repo.Update(c.Request.Context(), id, req.Name, req.Email); err != nil {
		h.respondErr(c, err, "failed to update client")
		return
	}
	client, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		h.respondErr(c, err, "failed to load client")
		return
	}
	response.OK(c, client)
}

// UpdateRole handles PATCH /clients/:id/role (admin only).
func (h *Handler) UpdateRole(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid client id")
		return
	}
	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	role, err := authz.ParseRole(req.Role)
	if err != nil {
		response.BadRequest(c, "role must be admin or client")
		return
	}
	if err := h.repo.UpdateRole(c.Request.Context(), id, string(role)); err != nil {
		h.respondErr(c, err, "failed to update role")
		return
	}
	response.OK(c, gin.H{"id": id, "role": role})
}

// Delete handles DELETE /clients/:id (admin only).
func (h *Handler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid client id")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		h.respondErr(c, err, "failed to delete client")
		return
	}
	response.NoContent(c)
}

func (h *Handler) idAndPrincipal(c *gin.Context) (int64, authz.Principal, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid client id")
		return 0, authz.Principal{}, false
	}
	p, ok := middleware.Principal(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return 0, authz.Principal{}, false
	}
	return id, p, true
}

func (h *Handler) respondErr(c *gin.Context, err error, msg string) {
	if !errors.Is(err, errs.ErrNotFound) && !errors.Is(err, errs.ErrForbidden) {
		h.logger.Error(msg, zap.Error(err))
	}
	response.Error(c, err, msg)
}
