package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/sbenhamida/mouwatin/internal/app"
	"github.com/sbenhamida/mouwatin/internal/models"
	"github.com/sbenhamida/mouwatin/internal/services"
	"github.com/sbenhamida/mouwatin/pkg/errors"
	"github.com/sbenhamida/mouwatin/pkg/response"
)

// UserHandler exposes account management endpoints.
type UserHandler struct {
	users    *services.UserService
	settings *app.SettingsSnapshot
}

func NewUserHandler(db *gorm.DB, audit *services.AuditService, settings *app.SettingsSnapshot) (*UserHandler, error) {
	users, err := services.NewUserService(db, audit)
	if err != nil {
		return nil, err
	}
	return &UserHandler{users: users, settings: settings}, nil
}

// POST /api/auth/register handles public citizen self-registration.
func (h *UserHandler) Register(c *gin.Context) {
	if h.settings != nil && !h.settings.Current().RegistrationOpen {
		response.Error(c, errors.ErrForbidden.WithMessage("les inscriptions sont fermees"))
		return
	}

	var req services.CreateUserInput
	if !bindAndValidate(c, &req) {
		return
	}
	// Self-registration always lands on the citizen tier.
	req.Role = models.RoleCitoyen

	user, err := h.users.Create(requestContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, user)
}

// POST /api/users creates an account administratively, any role.
func (h *UserHandler) Create(c *gin.Context) {
	var req services.CreateUserInput
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.users.Create(requestContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, user)
}

// GET /api/users
func (h *UserHandler) List(c *gin.Context) {
	page, pageSize := pagination(c)

	users, total, err := h.users.List(requestContext(c), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, users, listMeta(page, pageSize, total))
}

// GET /api/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.users.Get(requestContext(c), strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, user)
}

type setRoleRequest struct {
	Role      string  `json:"role" validate:"required"`
	CommuneID *string `json:"commune_id"`
}

// PUT /api/users/:id/role
func (h *UserHandler) SetRole(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req setRoleRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.users.SetRole(requestContext(c), actorID, services.SetRoleInput{
		UserID:    strings.TrimSpace(c.Param("id")),
		Role:      models.Role(strings.ToUpper(strings.TrimSpace(req.Role))),
		CommuneID: req.CommuneID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, user)
}

// POST /api/users/:id/activate
func (h *UserHandler) Activate(c *gin.Context) {
	h.setActive(c, true)
}

// POST /api/users/:id/deactivate
func (h *UserHandler) Deactivate(c *gin.Context) {
	h.setActive(c, false)
}

func (h *UserHandler) setActive(c *gin.Context, active bool) {
	actorID, ok := currentUserID(c)
	if !ok {
		return
	}

	user, err := h.users.SetActive(requestContext(c), actorID, strings.TrimSpace(c.Param("id")), active)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, user)
}
