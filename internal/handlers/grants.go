package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/filecrate/filecrate/internal/permissions"
	"github.com/filecrate/filecrate/internal/services"
	"github.com/filecrate/filecrate/pkg/errors"
	"github.com/filecrate/filecrate/pkg/response"
)

// GrantHandler exposes the grant-management surface. All routes are
// guarded at the owner pseudo-level; the service re-derives the same
// decision through the evaluator.
type GrantHandler struct {
	grants *services.GrantService
}

// NewGrantHandler constructs a handler for grant endpoints.
func NewGrantHandler(grants *services.GrantService) *GrantHandler {
	return &GrantHandler{grants: grants}
}

// GET /api/files/:id/permissions
func (h *GrantHandler) List(c *gin.Context) {
	grants, err := h.grants.ListGrants(requestContext(c), currentUserID(c), guardedFileID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, grants)
}

type setGrantRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Level  string `json:"level" validate:"required"`
}

// PUT /api/files/:id/permissions
func (h *GrantHandler) Set(c *gin.Context) {
	var req setGrantRequest
	if !bindAndValidate(c, &req) {
		return
	}

	level, err := permissions.ParseGrantLevel(req.Level)
	if err != nil {
		response.Error(c, errors.NewBadRequest("level must be read, write, delete or none"))
		return
	}

	grants, err := h.grants.SetGrant(requestContext(c), currentUserID(c), guardedFileID(c), req.UserID, level)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, grants)
}

// DELETE /api/files/:id/permissions/:userId
func (h *GrantHandler) Revoke(c *gin.Context) {
	if err := h.grants.RevokeGrant(requestContext(c), currentUserID(c), guardedFileID(c), c.Param("userId")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"revoked": true})
}
