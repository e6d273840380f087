package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SAP-F-2025/quiz-builder/internal/cache"
	"github.com/SAP-F-2025/quiz-builder/internal/clients/generation"
	"github.com/SAP-F-2025/quiz-builder/internal/config"
	"github.com/SAP-F-2025/quiz-builder/internal/handlers"
	"github.com/SAP-F-2025/quiz-builder/internal/repositories/postgres"
	"github.com/SAP-F-2025/quiz-builder/internal/services"
	"github.com/SAP-F-2025/quiz-builder/internal/utils"
	"github.com/SAP-F-2025/quiz-builder/internal/validator"
	"github.com/SAP-F-2025/quiz-builder/pkg"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := utils.NewLogger(cfg.Environment)
	slogger := logger.Slog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.LogError(err, "Database initialisation failed")
		os.Exit(1)
	}

	// Cache is optional
	var cacheService cache.CacheService
	redisClient, err := pkg.NewRedisClient(ctx, cfg)
	switch {
	case err != nil:
		logger.Warn("Redis unavailable, running without cache", "error", err)
	case redisClient != nil:
		defer redisClient.Close()
		cacheService = cache.NewRedisCache(redisClient, slogger)
	}
	cacheManager := cache.NewCacheManager(cacheService, cfg.CacheTTL, slogger)
	// lists cached by a previous build may not match the migrated schema
	cacheManager.InvalidateAllQuizzes(ctx)

	publisher, err := cfg.Events.CreateEventPublisher(slogger)
	if err != nil {
		logger.LogError(err, "Event publisher initialisation failed")
		os.Exit(1)
	}
	defer publisher.Close()

	repo := postgres.NewRepository(db, cacheManager)
	v := validator.New()

	var generator services.Generator
	if cfg.GenerationURL != "" {
		client, err := generation.New(generation.Config{URL: cfg.GenerationURL, Timeout: cfg.GenerationTimeout})
		if err != nil {
			logger.LogError(err, "Generation client initialisation failed")
			os.Exit(1)
		}
		generator = client
	} else {
		logger.Info("GENERATION_URL not set, question generation disabled")
	}

	sessions := services.NewSessionStore(repo.Quiz(), cfg.DragThreshold, cfg.SessionIdleTTL, slogger)
	go sessions.RunJanitor(ctx, time.Minute)

	synchronizer := services.NewSynchronizer(repo, publisher, slogger)
	editor := services.NewEditorService(
		sessions,
		synchronizer,
		services.NewSaveService(v.Quiz(), synchronizer, publisher, slogger),
		services.NewGenerationService(generator, v.Question(), slogger),
		services.NewImportExportService(v.Question(), slogger),
		slogger,
	)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	handlers.RegisterBindingValidators()

	router := gin.New()
	router.Use(gin.Recovery(), utils.RequestID(), utils.LoggerMiddleware(logger), utils.ContextLogger(logger))
	handlers.NewHandlerManager(editor, v, logger).SetupRoutes(router)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Starting quiz builder", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.LogError(err, "Server stopped unexpectedly")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.LogError(err, "Graceful shutdown failed")
	}
}
