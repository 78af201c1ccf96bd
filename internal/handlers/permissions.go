package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/sbenhamida/mouwatin/internal/permissions"
	"github.com/sbenhamida/mouwatin/internal/services"
	"github.com/sbenhamida/mouwatin/pkg/response"
)

// PermissionHandler exposes the permission catalogue and grant management.
type PermissionHandler struct {
	gate   *permissions.Gate
	grants *services.GrantService
}

func NewPermissionHandler(db *gorm.DB, gate *permissions.Gate, audit *services.AuditService) (*PermissionHandler, error) {
	grants, err := services.NewGrantService(db, audit)
	if err != nil {
		return nil, err
	}
	return &PermissionHandler{gate: gate, grants: grants}, nil
}

// GET /api/permissions returns the registered permission catalogue grouped by module.
func (h *PermissionHandler) Registry(c *gin.Context) {
	response.Success(c, http.StatusOK, permissions.ListByGroupe())
}

// GET /api/users/:id/permissions returns the target user's effective permission set.
func (h *PermissionHandler) EffectiveForUser(c *gin.Context) {
	perms, err := h.gate.EffectivePermissions(requestContext(c), strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, perms)
}

// GET /api/users/:id/grants
func (h *PermissionHandler) ListGrants(c *gin.Context) {
	grants, err := h.grants.ListForUser(requestContext(c), strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, grants)
}

type grantRequest struct {
	PermissionID string     `json:"permission_id" validate:"required"`
	ExpiresAt    *time.Time `json:"expires_at"`
}

// POST /api/users/:id/grants
func (h *PermissionHandler) Grant(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req grantRequest
	if !bindAndValidate(c, &req) {
		return
	}

	grant, err := h.grants.Grant(requestContext(c), actorID, services.GrantInput{
		UserID:       strings.TrimSpace(c.Param("id")),
		PermissionID: strings.TrimSpace(req.PermissionID),
		ExpiresAt:    req.ExpiresAt,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, grant)
}

// DELETE /api/users/:id/grants/:permissionID
func (h *PermissionHandler) Revoke(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		return
	}

	userID := strings.TrimSpace(c.Param("id"))
	permissionID := strings.TrimSpace(c.Param("permissionID"))

	if err := h.grants.Revoke(requestContext(c), actorID, userID, permissionID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"revoked": true})
}
