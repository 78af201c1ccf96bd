package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/sbenhamida/mouwatin/internal/app"
	iauth "github.com/sbenhamida/mouwatin/internal/auth"
	"github.com/sbenhamida/mouwatin/internal/dispatch"
	"github.com/sbenhamida/mouwatin/internal/handlers"
	"github.com/sbenhamida/mouwatin/internal/lifecycle"
	"github.com/sbenhamida/mouwatin/internal/middleware"
	"github.com/sbenhamida/mouwatin/internal/notifications"
	"github.com/sbenhamida/mouwatin/internal/permissions"
	"github.com/sbenhamida/mouwatin/internal/services"
)

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(db *gorm.DB, jwt *iauth.JWTService, cfg *app.Config, hub *notifications.Hub, settings *app.SettingsSnapshot) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.Maintenance(settings))

	r.GET("/health", handlers.Health(db))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	gate, err := permissions.NewGate(db)
	if err != nil {
		return nil, err
	}

	machine, err := lifecycle.NewMachine(gate)
	if err != nil {
		return nil, err
	}
	dispatcher, err := dispatch.NewDispatcher(db)
	if err != nil {
		return nil, err
	}

	audit, err := services.NewAuditService(db)
	if err != nil {
		return nil, err
	}
	notifier, err := services.NewNotificationService(db, hub)
	if err != nil {
		return nil, err
	}
	users, err := services.NewUserService(db, audit)
	if err != nil {
		return nil, err
	}

	reclamations, err := services.NewReclamationService(db, machine, dispatcher, notifier, audit)
	if err != nil {
		return nil, err
	}
	evenements, err := services.NewEvenementService(db, machine, notifier)
	if err != nil {
		return nil, err
	}
	actualites, err := services.NewActualiteService(db, machine, notifier)
	if err != nil {
		return nil, err
	}
	campagnes, err := services.NewCampagneService(db, machine, notifier)
	if err != nil {
		return nil, err
	}
	activites, err := services.NewActiviteService(db, machine, notifier)
	if err != nil {
		return nil, err
	}

	authHandler, err := handlers.NewAuthHandler(db, jwt, users, gate)
	if err != nil {
		return nil, err
	}
	userHandler, err := handlers.NewUserHandler(db, audit, settings)
	if err != nil {
		return nil, err
	}
	permHandler, err := handlers.NewPermissionHandler(db, gate, audit)
	if err != nil {
		return nil, err
	}
	notificationHandler, err := handlers.NewNotificationHandler(db, hub)
	if err != nil {
		return nil, err
	}

	reclamationHandler := handlers.NewReclamationHandler(reclamations)
	evenementHandler := handlers.NewEvenementHandler(evenements)
	actualiteHandler := handlers.NewActualiteHandler(actualites)
	campagneHandler := handlers.NewCampagneHandler(campagnes)
	activiteHandler := handlers.NewActiviteHandler(activites)
	auditHandler := handlers.NewAuditHandler(audit)

	// Public routes: login, registration and published content.
	public := r.Group("/api")
	{
		public.POST("/auth/login", authHandler.Login)
		public.POST("/auth/register", userHandler.Register)
		public.GET("/public/evenements", evenementHandler.ListPublic)
		public.GET("/public/actualites", actualiteHandler.ListPublic)
		public.GET("/public/campagnes", campagneHandler.ListPublic)
	}

	// Protected routes.
	api := r.Group("/api")
	api.Use(middleware.Auth(jwt))

	api.GET("/auth/me", authHandler.Me)

	registerUserRoutes(api, userHandler, permHandler, gate)
	registerReclamationRoutes(api, reclamationHandler, gate)
	registerContentRoutes(api, evenementHandler, actualiteHandler, campagneHandler, activiteHandler, gate)
	registerNotificationRoutes(api, notificationHandler, gate)
	registerAuditRoutes(api, auditHandler, gate)

	return r, nil
}
