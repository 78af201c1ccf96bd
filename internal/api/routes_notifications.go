package api

import (
	"github.com/gin-gonic/gin"

	"github.com/sbenhamida/mouwatin/internal/handlers"
	"github.com/sbenhamida/mouwatin/internal/middleware"
	"github.com/sbenhamida/mouwatin/internal/permissions"
)

func registerNotificationRoutes(api *gin.RouterGroup, handler *handlers.NotificationHandler, gate *permissions.Gate) {
	notifications := api.Group("/notifications")
	notifications.Use(middleware.RequirePermission(gate, "notifications.view"))
	{
		notifications.GET("", handler.List)
		notifications.GET("/stream", handler.Stream)
		notifications.POST("/read_all", handler.MarkAllRead)
		notifications.POST("/:id/read", handler.MarkRead)
		notifications.DELETE("/:id", handler.Delete)
	}
}
