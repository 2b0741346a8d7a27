package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/quantprep/challenge-service/internal/cache"
	"github.com/quantprep/challenge-service/internal/catalog"
	"github.com/quantprep/challenge-service/internal/config"
	"github.com/quantprep/challenge-service/internal/handlers"
	"github.com/quantprep/challenge-service/internal/middleware"
	"github.com/quantprep/challenge-service/internal/repositories/postgres"
	"github.com/quantprep/challenge-service/internal/services"
	"github.com/quantprep/challenge-service/internal/utils"
	"github.com/quantprep/challenge-service/pkg"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	var slogger *slog.Logger
	if cfg.IsDevelopment() {
		slogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	} else {
		gin.SetMode(gin.ReleaseMode)
		slogger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	logger := utils.NewSlogLogger(slogger)

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		slogger.Error("database init failed", "error", err)
		os.Exit(1)
	}
	if err := postgres.AutoMigrate(db); err != nil {
		slogger.Error("database migration failed", "error", err)
		os.Exit(1)
	}
	repo := postgres.NewRepository(db)

	var cacheService cache.CacheService = cache.NoopCache{}
	if redisClient, err := pkg.NewRedisClient(cfg); err != nil {
		slogger.Warn("redis unavailable, caching disabled", "error", err)
	} else {
		cacheService = cache.NewRedisCache(redisClient, slogger)
	}

	publisher, err := cfg.Events.CreateEventPublisher(slogger)
	if err != nil {
		slogger.Error("event publisher init failed", "error", err)
		os.Exit(1)
	}

	questionCatalog, err := catalog.Load()
	if err != nil {
		slogger.Error("question catalog load failed", "error", err)
		os.Exit(1)
	}
	slogger.Info("question catalog loaded",
		"questions", questionCatalog.Len(),
		"firms", len(questionCatalog.Firms()))

	serviceManager := services.NewServiceManager(services.Dependencies{
		Repo:      repo,
		Catalog:   questionCatalog,
		Cache:     cacheService,
		Publisher: publisher,
		Validator: utils.NewValidator(),
		Logger:    slogger,
	})

	auth := middleware.NewAuthenticator(cfg.Casdoor, repo.Profile(), logger)

	router := gin.New()
	router.Use(utils.LoggerMiddleware(logger), gin.Recovery())

	handlerManager := handlers.NewHandlerManager(serviceManager, handlers.RouterConfig{
		BillingWebhookSecret: cfg.Billing.WebhookSecret,
	}, logger)
	handlerManager.SetupRoutes(router, auth)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slogger.Info("server listening", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slogger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slogger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slogger.Error("server shutdown failed", "error", err)
	}

	serviceManager.Shutdown()
	if err := repo.Close(); err != nil {
		slogger.Error("database close failed", "error", err)
	}
	slogger.Info("shutdown complete")
}
