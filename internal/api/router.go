package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/mgallego/posada/internal/app"
	"github.com/mgallego/posada/internal/handlers"
	"github.com/mgallego/posada/internal/middleware"
	"github.com/mgallego/posada/internal/services"
)

// Dependencies carries the services the HTTP router exposes.
type Dependencies struct {
	Config   *app.Config
	DB       *gorm.DB
	Service  *services.NotificationService
	Notifier *services.Notifier
}

// NewRouter assembles the gin engine with middleware and all routes.
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	if deps.Config == nil {
		return nil, fmt.Errorf("api: config is required")
	}
	if deps.DB == nil {
		return nil, fmt.Errorf("api: database handle is required")
	}
	if deps.Service == nil {
		return nil, fmt.Errorf("api: notification service is required")
	}

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.Metrics())
	router.Use(middleware.Identity())

	if deps.Config.Monitoring.Health.Enabled {
		registerHealthRoutes(router, deps.DB)
	}

	if deps.Config.Monitoring.Prometheus.Enabled {
		router.GET(deps.Config.Monitoring.Prometheus.Endpoint, gin.WrapH(promhttp.Handler()))
	}

	notificationHandler, err := handlers.NewNotificationHandler(deps.Service, deps.Notifier)
	if err != nil {
		return nil, err
	}

	api := router.Group("/api")
	registerNotificationRoutes(api, notificationHandler)

	return router, nil
}
