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

	"github.com/Athul-13/tablespot-api/internal/api"
	"github.com/Athul-13/tablespot-api/internal/cache"
	"github.com/Athul-13/tablespot-api/internal/config"
	"github.com/Athul-13/tablespot-api/internal/email"
	"github.com/Athul-13/tablespot-api/internal/repository/postgres"
	"github.com/Athul-13/tablespot-api/internal/service"
	"github.com/Athul-13/tablespot-api/internal/websocket"
	gormLogger "gorm.io/gorm/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	level := slog.LevelDebug
	if cfg.IsProduction() {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := postgres.NewConnection(ctx, cfg.DatabaseURL, gormLogger.Warn)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Error("failed to get database handle", slog.Any("error", err))
		os.Exit(1)
	}
	defer sqlDB.Close()

	// Initialize repositories
	repos := postgres.NewRepositories(db)

	// Initialize WebSocket hub
	hub := websocket.NewHub(logger)
	go hub.Run()

	deps := service.Dependencies{
		Live:   hub,
		Logger: logger,
	}

	if cfg.RedisAddr != "" {
		redisClient, err := cache.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			logger.Error("failed to connect to redis", slog.Any("error", err))
			os.Exit(1)
		}
		defer redisClient.Close()
		deps.Cache = cache.NewRatingCache(redisClient, cfg.RatingCacheTTL)
	} else {
		logger.Info("REDIS_ADDR not set, rating cache disabled")
	}

	if cfg.SMTPHost != "" {
		deps.Notifier = email.NewSMTPSender(cfg)
	} else {
		logger.Warn("SMTP_HOST not set, password reset links will not be delivered")
		deps.Notifier = email.NewLogSender(logger)
	}

	// Initialize services
	services := service.NewServices(repos, cfg, deps)

	sweepCtx, cancelSweep := context.WithCancel(context.Background())
	defer cancelSweep()
	go services.Sweeper.Run(sweepCtx)

	// Initialize router
	router := api.NewRouter(services, hub, sqlDB, cfg, logger)

	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", slog.String("port", cfg.Port), slog.String("environment", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to start server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", slog.Any("error", err))
	}
	hub.Stop()
	cancelSweep()

	logger.Info("server stopped")
}
