package api

import (
	"github.com/gin-gonic/gin"

	"github.com/sbenhamida/mouwatin/internal/handlers"
	"github.com/sbenhamida/mouwatin/internal/middleware"
	"github.com/sbenhamida/mouwatin/internal/permissions"
)

func registerReclamationRoutes(api *gin.RouterGroup, handler *handlers.ReclamationHandler, gate *permissions.Gate) {
	reclamations := api.Group("/reclamations")
	{
		reclamations.POST("", middleware.RequirePermission(gate, "reclamations.create"), handler.Create)
		reclamations.GET("", middleware.RequirePermission(gate, "reclamations.view"), handler.List)
		reclamations.GET("/:id", middleware.RequirePermission(gate, "reclamations.view"), handler.Get)
		reclamations.GET("/:id/history", middleware.RequirePermission(gate, "reclamations.view"), handler.History)

		// The triage decision goes through the state machine, which
		// re-checks reclamations.decide for the acting account.
		reclamations.POST("/:id/decision", middleware.RequirePermission(gate, "reclamations.decide"), handler.Decide)

		reclamations.POST("/:id/assign", middleware.RequirePermission(gate, "reclamations.assign"), handler.Assign)
		reclamations.POST("/:id/assign/self", middleware.RequirePermission(gate, "reclamations.assign"), handler.AssignToSelf)
		reclamations.POST("/:id/unassign", middleware.RequirePermission(gate, "reclamations.assign"), handler.Unassign)
		reclamations.POST("/:id/reassign", middleware.RequirePermission(gate, "reclamations.assign"), handler.Reassign)
		reclamations.POST("/:id/resolve", middleware.RequirePermission(gate, "reclamations.resolve"), handler.Resolve)
	}
}
