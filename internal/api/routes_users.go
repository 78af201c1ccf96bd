package api

import (
	"github.com/gin-gonic/gin"

	"github.com/sbenhamida/mouwatin/internal/handlers"
	"github.com/sbenhamida/mouwatin/internal/middleware"
	"github.com/sbenhamida/mouwatin/internal/permissions"
)

func registerUserRoutes(api *gin.RouterGroup, handler *handlers.UserHandler, perms *handlers.PermissionHandler, gate *permissions.Gate) {
	users := api.Group("/users")
	{
		users.GET("", middleware.RequirePermission(gate, "utilisateurs.view"), handler.List)
		users.POST("", middleware.RequirePermission(gate, "utilisateurs.manage"), handler.Create)
		users.GET("/:id", middleware.RequirePermission(gate, "utilisateurs.view"), handler.Get)
		users.PUT("/:id/role", middleware.RequirePermission(gate, "utilisateurs.manage"), handler.SetRole)
		users.POST("/:id/activate", middleware.RequirePermission(gate, "utilisateurs.manage"), handler.Activate)
		users.POST("/:id/deactivate", middleware.RequirePermission(gate, "utilisateurs.manage"), handler.Deactivate)

		users.GET("/:id/permissions", middleware.RequirePermission(gate, "permissions.view"), perms.EffectiveForUser)
		users.GET("/:id/grants", middleware.RequirePermission(gate, "permissions.view"), perms.ListGrants)
		// Grant and revoke are restricted to SUPER_ADMIN inside the
		// grant service; the route permission only gates visibility.
		users.POST("/:id/grants", middleware.RequirePermission(gate, "permissions.manage"), perms.Grant)
		users.DELETE("/:id/grants/:permissionID", middleware.RequirePermission(gate, "permissions.manage"), perms.Revoke)
	}

	api.GET("/permissions", middleware.RequirePermission(gate, "permissions.view"), perms.Registry)
}
