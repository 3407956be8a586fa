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

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"video-orchestrator/internal/config"
	"video-orchestrator/internal/handler"
	"video-orchestrator/internal/hosting/youtube"
	"video-orchestrator/internal/provider"
	"video-orchestrator/internal/queue"
	"video-orchestrator/internal/registry"
	"video-orchestrator/internal/repository"
	minioclient "video-orchestrator/internal/storage/minio"
	"video-orchestrator/internal/thumbnail"
	"video-orchestrator/pkg/database/postgres"
	redisclient "video-orchestrator/pkg/database/redis"
	"video-orchestrator/pkg/security"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.ProviderAPIKey == "" {
		log.Fatal("PROVIDER_API_KEY is not set")
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("connecting to PostgreSQL")
	pgPool, err := postgres.NewClient(ctx, cfg.PostgresURL)
	if err != nil {
		logger.Fatal("failed to connect to PostgreSQL", zap.Error(err))
	}
	defer pgPool.Close()

	if err := postgres.RunMigrations(ctx, pgPool); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	logger.Info("connecting to MinIO")
	store, err := minioclient.NewClient(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey,
		cfg.MinioUseSSL, cfg.VideoBucket, cfg.ThumbnailBucket)
	if err != nil {
		logger.Fatal("failed to connect to MinIO", zap.Error(err))
	}

	logger.Info("connecting to Redis")
	rdb, err := redisclient.NewClient(cfg.RedisURL)
	if err != nil {
		logger.Fatal("failed to connect to Redis", zap.Error(err))
	}
	defer rdb.Close()

	jobQueue, err := queue.New(queue.Config{
		Driver:      cfg.QueueDriver,
		Name:        cfg.QueueName,
		RabbitMQURL: cfg.RabbitMQURL,
	}, rdb)
	if err != nil {
		logger.Fatal("failed to create job queue", zap.Error(err))
	}
	defer jobQueue.Close()

	repo := repository.New(pgPool)

	h := handler.NewHandler(
		registry.New(),
		provider.NewClient(cfg.ProviderURL, cfg.ProviderAPIKey, cfg.CallbackURL),
		store,
		jobQueue,
		thumbnail.NewExtractor(cfg.FFmpegPath),
		youtube.NewUploader(cfg.GoogleClientID, cfg.GoogleClientSecret, repo),
		repo,
		logger,
	)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := security.AuthMiddleware(cfg.JWTSecret, cfg.JWTAudience, cfg.AuthJWKSURL)
	h.RegisterRoutes(r, auth)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}

	go func() {
		logger.Info("API gateway listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down gracefully")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
}
