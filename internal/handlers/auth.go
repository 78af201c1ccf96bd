package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	iauth "github.com/sbenhamida/mouwatin/internal/auth"
	"github.com/sbenhamida/mouwatin/internal/permissions"
	"github.com/sbenhamida/mouwatin/internal/services"
	"github.com/sbenhamida/mouwatin/pkg/response"
)

// AuthHandler manages the login flow and the current-account endpoint.
type AuthHandler struct {
	auth  *services.AuthService
	users *services.UserService
	gate  *permissions.Gate
}

func NewAuthHandler(db *gorm.DB, jwt *iauth.JWTService, users *services.UserService, gate *permissions.Gate) (*AuthHandler, error) {
	auth, err := services.NewAuthService(db, jwt)
	if err != nil {
		return nil, err
	}
	return &AuthHandler{auth: auth, users: users, gate: gate}, nil
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginInput
	if !bindAndValidate(c, &req) {
		return
	}

	result, err := h.auth.Login(requestContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	perms, _ := h.gate.EffectivePermissions(requestContext(c), result.User.ID)

	response.Success(c, http.StatusOK, gin.H{
		"token":       result.Token,
		"user":        result.User,
		"permissions": perms,
	})
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	user, err := h.users.Get(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	perms, _ := h.gate.EffectivePermissions(requestContext(c), userID)

	response.Success(c, http.StatusOK, gin.H{
		"user":        user,
		"permissions": perms,
	})
}
