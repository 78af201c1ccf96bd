package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sbenhamida/mouwatin/internal/app"
	"github.com/sbenhamida/mouwatin/pkg/errors"
	"github.com/sbenhamida/mouwatin/pkg/response"
)

// Maintenance rejects mutating requests while the portal is in maintenance
// mode. Reads stay available so citizens can still consult published content.
func Maintenance(settings *app.SettingsSnapshot) gin.HandlerFunc {
	return func(c *gin.Context) {
		if settings == nil || !settings.Current().MaintenanceMode {
			c.Next()
			return
		}

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		response.Error(c, errors.New("SERVICE_UNAVAILABLE", "le portail est en maintenance", http.StatusServiceUnavailable))
		c.Abort()
	}
}
