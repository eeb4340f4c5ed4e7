package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/filecrate/filecrate/internal/app"
	iauth "github.com/filecrate/filecrate/internal/auth"
	"github.com/filecrate/filecrate/internal/handlers"
	"github.com/filecrate/filecrate/internal/middleware"
	"github.com/filecrate/filecrate/internal/permissions"
	"github.com/filecrate/filecrate/internal/services"
	"github.com/filecrate/filecrate/internal/storage"
	"github.com/filecrate/filecrate/internal/store"
)

// NewRouter builds the Gin engine, wires middleware and registers routes.
func NewRouter(db *gorm.DB, jwt *iauth.JWTService, blobs storage.Store, cfg *app.Config) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if blobs == nil {
		return nil, fmt.Errorf("blob store must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}

	resources, err := store.NewResourceStore(db)
	if err != nil {
		return nil, err
	}
	grants, err := store.NewGrantStore(db)
	if err != nil {
		return nil, err
	}
	evaluator, err := permissions.NewEvaluator(resources, grants)
	if err != nil {
		return nil, err
	}
	guard, err := middleware.NewGuard(evaluator)
	if err != nil {
		return nil, err
	}

	userService, err := services.NewUserService(db)
	if err != nil {
		return nil, err
	}
	fileService, err := services.NewFileService(db, blobs)
	if err != nil {
		return nil, err
	}
	grantService, err := services.NewGrantService(db, evaluator, resources, grants)
	if err != nil {
		return nil, err
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())

	// Health endpoint (public)
	r.GET("/health", handlers.Health(db))

	if cfg.Monitoring.Prometheus.Enabled {
		r.GET(cfg.Monitoring.Prometheus.Endpoint, gin.WrapH(promhttp.Handler()))
	}

	authHandler := handlers.NewAuthHandler(userService, jwt)

	// Public auth routes
	auth := r.Group("/api/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	// Protected routes
	api := r.Group("/api")
	api.Use(middleware.Auth(jwt))

	api.GET("/auth/me", authHandler.Me)

	registerFileRoutes(api, guard,
		handlers.NewFileHandler(fileService, cfg.Uploads.MaxSize),
		handlers.NewGrantHandler(grantService),
	)
	registerUserRoutes(api, handlers.NewUserHandler(userService))

	return r, nil
}
