package api

import (
	"github.com/gin-gonic/gin"

	"github.com/sbenhamida/mouwatin/internal/handlers"
	"github.com/sbenhamida/mouwatin/internal/middleware"
	"github.com/sbenhamida/mouwatin/internal/permissions"
)

func registerAuditRoutes(api *gin.RouterGroup, handler *handlers.AuditHandler, gate *permissions.Gate) {
	api.GET("/audit", middleware.RequirePermission(gate, "audit.view"), handler.List)
}
