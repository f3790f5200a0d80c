package server

import (
	"net/http"
	"time"

	"todo-manager/backend/internal/config"
	"todo-manager/backend/internal/handlers"
	"todo-manager/backend/internal/middleware"
	"todo-manager/backend/internal/monitoring"
	"todo-manager/backend/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type RouterDeps struct {
	TodoService services.TodoService
	AuthService services.AuthService
	Sessions    services.SessionProvider
	Monitor     *monitoring.Monitor
}

func NewRouter(cfg *config.Config, deps RouterDeps) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(middleware.RecoveryWithLog())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if deps.Monitor != nil {
		r.Use(deps.Monitor.MetricsMiddleware())
		deps.Monitor.RegisterRoutes(r)
	}

	api := r.Group(cfg.Server.APIPrefix)
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
			RequestsPerMin:  cfg.RateLimit.RequestsPerMin,
			BurstSize:       cfg.RateLimit.BurstSize,
			CleanupInterval: cfg.RateLimit.CleanupInterval,
		})
		api.Use(limiter.Middleware())
	}

	requireSession := middleware.RequireSession(deps.Sessions, cfg.Auth.CookieName)

	handlers.NewAuthHandler(deps.AuthService, deps.Sessions, cfg.Auth.CookieName, cfg.IsProduction()).
		RegisterRoutes(api, requireSession)

	protected := api.Group("")
	protected.Use(requireSession)
	handlers.NewTodoHandler(deps.TodoService).RegisterRoutes(protected)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "Route not found"})
	})
	return r
}
