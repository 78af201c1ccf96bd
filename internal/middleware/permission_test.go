package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/sbenhamida/mouwatin/internal/database/testutil"
	"github.com/sbenhamida/mouwatin/internal/models"
	"github.com/sbenhamida/mouwatin/internal/permissions"
)

func TestRequirePermissionWithoutAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// No identity in context: the middleware must 401 before touching the gate.
	r := gin.New()
	r.GET("/secure", RequirePermission(&permissions.Gate{}, "reclamations.view"), func(c *gin.Context) { c.Status(200) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/secure", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequirePermissionDeniesAndAllows(t *testing.T) {
	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	require.NoError(t, permissions.Sync(context.Background(), db))

	citoyen := &models.User{ID: "citoyen-1", Email: "citoyen@mouwatin.tn", Password: "x", Role: models.RoleCitoyen, IsActive: true}
	require.NoError(t, db.Create(citoyen).Error)

	gate, err := permissions.NewGate(db)
	require.NoError(t, err)

	r := gin.New()
	withIdentity := func(c *gin.Context) { c.Set(CtxUserIDKey, citoyen.ID) }
	r.POST("/reclamations", withIdentity, RequirePermission(gate, "reclamations.create"), func(c *gin.Context) { c.Status(http.StatusCreated) })
	r.POST("/actualites", withIdentity, RequirePermission(gate, "actualites.create"), func(c *gin.Context) { c.Status(http.StatusCreated) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/reclamations", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("POST", "/actualites", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)
}
