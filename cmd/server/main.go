package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"

	_ "github.com/jinjin-academy/schedule-api/api/swagger"
	"github.com/jinjin-academy/schedule-api/internal/handler"
	"github.com/jinjin-academy/schedule-api/internal/repository"
	"github.com/jinjin-academy/schedule-api/internal/service"
	"github.com/jinjin-academy/schedule-api/pkg/cache"
	"github.com/jinjin-academy/schedule-api/pkg/config"
	"github.com/jinjin-academy/schedule-api/pkg/database"
	"github.com/jinjin-academy/schedule-api/pkg/logger"
	"github.com/jinjin-academy/schedule-api/pkg/notifier"
)

// @title Jinjin Academy Schedule API
// @version 1.0.0
// @description Weekly tutoring schedule templates, change requests and CSV import
// @BasePath /api
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := database.Migrate(ctx, db); err != nil {
		logr.Sugar().Fatalw("failed to run migrations", "error", err)
	}

	validate := validator.New()

	templateRepo := repository.NewTemplateRepository(db)
	entryRepo := repository.NewEntryRepository(db)
	requestRepo := repository.NewChangeRequestRepository(db)
	userRepo := repository.NewUserRepository(db)

	var metrics *service.MetricsService
	if cfg.Metrics.Enabled {
		metrics = service.NewMetricsService()
	}

	var entryCache *service.EntryCache
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, entry caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			entryCache = service.NewEntryCache(redisClient, cfg.Cache.EntryTTL, metrics, logr)
		}
	}

	n := notifier.New(cfg.Notify, logr)

	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		TokenSecret: cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.Expiration,
		Issuer:      cfg.JWT.Issuer,
	})
	userService := service.NewUserService(userRepo, validate, logr)
	templateService := service.NewTemplateService(templateRepo, entryRepo, entryCache, logr)
	exportService := service.NewExportService(templateRepo, entryRepo, logr)
	importService := service.NewCSVImportService(templateRepo, entryRepo, entryCache, metrics, logr)
	requestService := service.NewChangeRequestService(requestRepo, templateRepo, n, metrics, logr)

	if err := userService.EnsureSuperadmin(ctx, cfg.Superadmin); err != nil {
		logr.Sugar().Fatalw("failed to seed superadmin account", "error", err)
	}

	handlers := handler.Handlers{
		Auth:          handler.NewAuthHandler(authService),
		Users:         handler.NewUserHandler(userService),
		Templates:     handler.NewTemplateHandler(templateService, exportService),
		ChangeRequest: handler.NewChangeRequestHandler(requestService),
		Import:        handler.NewImportHandler(importService),
		Notifications: handler.NewNotificationHandler(n),
		Metrics:       handler.NewMetricsHandler(metrics, db),
	}

	r := handler.NewRouter(cfg, logr, authService, metrics, handlers)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
