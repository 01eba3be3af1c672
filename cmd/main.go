package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"neurowave-gateway/internal/config"
	"neurowave-gateway/internal/handlers"
	"neurowave-gateway/internal/middleware"
	"neurowave-gateway/internal/repository/postgres"
	"neurowave-gateway/internal/services"
	"neurowave-gateway/internal/upload"
)

// predictionStore is what main needs from a prediction repository
type predictionStore interface {
	services.PredictionRepository
	handlers.Pinger
}

func main() {
	// Initialize logger
	logger, level, err := initLogger()
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig(logger)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logger.Fatal("Invalid log level", zap.String("level", cfg.LogLevel), zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Prediction store
	store, closeStore := initStore(ctx, cfg, logger)
	defer closeStore()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Inference service and fallback
	modelClient := services.NewModelClient(cfg.ModelAPIURL, cfg.ModelTimeout, cfg.HealthTimeout, logger)
	statusManager := services.NewStatusManager(modelClient, logger)
	simulator := services.NewSimulator(cfg.SimulationMinDelay, cfg.SimulationMaxDelay, time.Now().UnixNano())
	classifier := services.NewClassificationService(modelClient, simulator, store, registry, logger)
	catalog := services.NewModelCatalog(modelClient, simulator, logger)

	statusManager.StartPeriodicCheck(ctx, cfg.HealthCheckInterval)

	// Upload sessions
	sessions := upload.NewRegistry(classifier, upload.NewMemoryPreviews(), cfg.UploadSessionTTL, logger)
	go sessions.Run(ctx)

	rateLimitMiddleware := middleware.NewRateLimitMiddleware(logger, cfg.RateLimitRPS, cfg.RateLimitBurst)
	go rateLimitMiddleware.Run(ctx)

	uploads := handlers.NewUploadValidator(cfg.MaxFileSizeMB)

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	statusHandler := handlers.NewStatusHandler(statusManager)

	router := (&handlers.Router{
		Health:      handlers.NewHealthHandler(statusManager, store, logger),
		Predict:     handlers.NewPredictHandler(classifier, uploads, logger),
		Model:       handlers.NewModelHandler(catalog),
		Status:      statusHandler,
		Predictions: handlers.NewPredictionsHandler(classifier, logger),
		Uploads:     handlers.NewUploadHandler(ctx, sessions, uploads, logger),

		Auth:      middleware.NewAuthMiddleware(cfg.APIKey),
		Logger:    middleware.NewLoggerMiddleware(logger),
		Recovery:  middleware.NewRecoveryMiddleware(logger),
		CORS:      middleware.NewCORSMiddleware(),
		RateLimit: rateLimitMiddleware,
		Metrics:   middleware.NewMetricsMiddleware(registry),
		Gatherer:  registry,
	}).SetupRoutes()

	// Create HTTP server
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	server.RegisterOnShutdown(statusHandler.Close)

	// Run server in a goroutine
	go func() {
		logger.Info("Starting server",
			zap.String("address", server.Addr),
			zap.String("model_api_url", cfg.ModelAPIURL),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	} else {
		logger.Info("Server exited gracefully")
	}

	statusManager.StopPeriodicCheck()
	classifier.Wait()
}

// initLogger initializes the logger with proper configuration
func initLogger() (*zap.Logger, zap.AtomicLevel, error) {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)

	logger, err := config.Build()
	return logger, config.Level, err
}

// initStore connects to PostgreSQL when DATABASE_URL is set, else keeps logs in memory
func initStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (predictionStore, func()) {
	if cfg.DatabaseURL == "" {
		logger.Info("DATABASE_URL not set, keeping prediction logs in memory")
		return postgres.NewMockRepository(), func() {}
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(connectCtx, cfg.DatabaseURL)
	if err == nil {
		err = pool.Ping(connectCtx)
		if err != nil {
			pool.Close()
		}
	}
	if err != nil {
		logger.Warn("Could not connect to database, keeping prediction logs in memory", zap.Error(err))
		return postgres.NewMockRepository(), func() {}
	}

	repo := postgres.NewPostgresRepository(pool)
	if err := repo.EnsureSchema(connectCtx); err != nil {
		logger.Fatal("Failed to prepare database schema", zap.Error(err))
	}

	logger.Info("Connected to PostgreSQL")
	return repo, pool.Close
}
