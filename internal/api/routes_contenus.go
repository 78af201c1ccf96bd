package api

import (
	"github.com/gin-gonic/gin"

	"github.com/sbenhamida/mouwatin/internal/handlers"
	"github.com/sbenhamida/mouwatin/internal/middleware"
	"github.com/sbenhamida/mouwatin/internal/permissions"
)

// registerContentRoutes mounts events, news, campaigns and coordinator
// activities. State changes go through each service's machine, which
// re-checks the fine-grained permission for the requested target state;
// the route-level permission is the coarse entry check.
func registerContentRoutes(api *gin.RouterGroup, evenements *handlers.EvenementHandler, actualites *handlers.ActualiteHandler, campagnes *handlers.CampagneHandler, activites *handlers.ActiviteHandler, gate *permissions.Gate) {
	ev := api.Group("/evenements")
	{
		ev.POST("", middleware.RequirePermission(gate, "evenements.create"), evenements.Create)
		ev.GET("", middleware.RequirePermission(gate, "evenements.view"), evenements.List)
		ev.GET("/:id", middleware.RequirePermission(gate, "evenements.view"), evenements.Get)
		ev.POST("/:id/transition", evenements.Transition)
		ev.POST("/:id/close", middleware.RequirePermission(gate, "evenements.close"), evenements.Close)
	}

	ac := api.Group("/actualites")
	{
		ac.POST("", middleware.RequirePermission(gate, "actualites.create"), actualites.Create)
		ac.GET("", middleware.RequirePermission(gate, "actualites.view"), actualites.List)
		ac.GET("/:id", middleware.RequirePermission(gate, "actualites.view"), actualites.Get)
		ac.PATCH("/:id", actualites.Update)
		ac.POST("/:id/transition", actualites.Transition)
	}

	ca := api.Group("/campagnes")
	{
		ca.POST("", middleware.RequirePermission(gate, "campagnes.create"), campagnes.Create)
		ca.GET("", middleware.RequirePermission(gate, "campagnes.view"), campagnes.List)
		ca.GET("/:id", middleware.RequirePermission(gate, "campagnes.view"), campagnes.Get)
		ca.PATCH("/:id", campagnes.Update)
		ca.POST("/:id/transition", campagnes.Transition)
	}

	at := api.Group("/activites")
	{
		at.POST("", middleware.RequirePermission(gate, "activites.create"), activites.Create)
		at.GET("", middleware.RequirePermission(gate, "activites.view"), activites.List)
		at.GET("/:id", middleware.RequirePermission(gate, "activites.view"), activites.Get)
		at.POST("/:id/submit", activites.Submit)
		at.POST("/:id/transition", activites.Transition)
		at.POST("/:id/report", activites.FileReport)
	}
}
