package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"video-orchestrator/internal/config"
	"video-orchestrator/internal/models"
	"video-orchestrator/internal/queue"
	minioclient "video-orchestrator/internal/storage/minio"
	"video-orchestrator/internal/worker"
	redisclient "video-orchestrator/pkg/database/redis"
)

const workerPoolSize = 5

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

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

	processor := worker.NewProcessor(store, cfg.FFmpegPath, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	jobChan := make(chan models.JobMessage, workerPoolSize)

	for i := 0; i < workerPoolSize; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			wlog := logger.With(zap.Int("worker", workerID))
			wlog.Info("worker started")

			for job := range jobChan {
				jobCtx, jobCancel := context.WithTimeout(ctx, 10*time.Minute)
				err := processor.ProcessJob(jobCtx, job)
				jobCancel()

				if err != nil {
					wlog.Error("job failed",
						zap.String("task_id", job.TaskID),
						zap.String("variant", string(job.Variant)),
						zap.Error(err))
				}
			}
			wlog.Info("worker stopped")
		}(i + 1)
	}

	// Consumer loop: pop, decode, hand to the pool.
	go func() {
		defer close(jobChan)
		for {
			body, err := jobQueue.Pop(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				logger.Warn("queue pop error, retrying", zap.Error(err))
				time.Sleep(time.Second)
				continue
			}

			var job models.JobMessage
			if err := json.Unmarshal(body, &job); err != nil {
				logger.Error("discarding undecodable job message", zap.Error(err))
				continue
			}
			select {
			case jobChan <- job:
			case <-ctx.Done():
				return
			}
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	logger.Info("worker service running")
	<-sigChan

	logger.Info("shutting down gracefully")
	cancel()
	wg.Wait()
}
