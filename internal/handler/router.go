package handler

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/jinjin-academy/schedule-api/internal/middleware"
	"github.com/jinjin-academy/schedule-api/internal/models"
	"github.com/jinjin-academy/schedule-api/internal/service"
	"github.com/jinjin-academy/schedule-api/pkg/config"
	"github.com/jinjin-academy/schedule-api/pkg/logger"
	corsmiddleware "github.com/jinjin-academy/schedule-api/pkg/middleware/cors"
	reqidmiddleware "github.com/jinjin-academy/schedule-api/pkg/middleware/requestid"
)

// Handlers groups everything the router registers.
type Handlers struct {
	Auth          *AuthHandler
	Users         *UserHandler
	Templates     *TemplateHandler
	ChangeRequest *ChangeRequestHandler
	Import        *ImportHandler
	Notifications *NotificationHandler
	Metrics       *MetricsHandler
}

// NewRouter assembles the gin engine with all middleware and routes.
func NewRouter(cfg *config.Config, logr *zap.Logger, auth *service.AuthService, metrics *service.MetricsService, h Handlers) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics(metrics))
	}

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	if cfg.Metrics.Enabled {
		r.GET("/metrics", h.Metrics.Prometheus)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", h.Auth.Login)

	authed := api.Group("")
	authed.Use(middleware.JWT(auth))

	authed.GET("/auth/me", h.Auth.Me)

	managerUp := middleware.RequireRoles(models.RoleManager, models.RoleSuperAdmin)

	templates := authed.Group("/templates")
	{
		templates.GET("", h.Templates.List)
		templates.GET("/:id", h.Templates.Get)
		templates.GET("/:id/entries", h.Templates.ListEntries)
		templates.GET("/:id/export", h.Templates.Export)
		templates.POST("", managerUp, h.Templates.Create)
		templates.PUT("/:id", managerUp, h.Templates.Update)
		templates.DELETE("/:id", managerUp, h.Templates.Delete)
		templates.PUT("/:id/entries", managerUp, h.Templates.SaveEntries)
		templates.POST("/:id/import", managerUp, h.Import.Import)
	}

	requests := authed.Group("/change-requests")
	{
		requests.GET("", h.ChangeRequest.List)
		requests.POST("", h.ChangeRequest.Create)
		requests.PUT("/:id/decision", managerUp, h.ChangeRequest.Decide)
		requests.PUT("/:id/acknowledge", h.ChangeRequest.Acknowledge)
	}

	superOnly := middleware.RequireRoles(models.RoleSuperAdmin)
	users := authed.Group("/users", superOnly)
	{
		users.GET("", h.Users.List)
		users.POST("", h.Users.Create)
		users.PUT("/:id/password", h.Users.ResetPassword)
		users.PATCH("/:id/status", h.Users.UpdateStatus)
	}

	authed.POST("/notifications/test", superOnly, h.Notifications.Test)

	return r
}
