// Package queue carries job messages from the callback ingestor to the
// variant workers. The default driver is a Redis list (LPUSH/BRPOP);
// RabbitMQ is available as an alternate durable driver. Both move the
// same JSON message shape and neither deduplicates redelivered work.
package queue

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"video-orchestrator/internal/queue/rabbitmq"
	"video-orchestrator/internal/queue/redisqueue"
)

type Queue interface {
	// Publish appends one message to the queue. Publishing is
	// best-effort and non-transactional: a failed second publish leaves
	// the task with one pending variant.
	Publish(ctx context.Context, body []byte) error
	// Pop blocks until a message is available or ctx is done.
	Pop(ctx context.Context) ([]byte, error)
	Close() error
}

type Config struct {
	Driver      string
	Name        string
	RabbitMQURL string
}

// New selects the queue driver. rdb may be nil when the rabbitmq driver
// is configured.
func New(cfg Config, rdb *redis.Client) (Queue, error) {
	switch cfg.Driver {
	case "", "redis":
		return redisqueue.New(rdb, cfg.Name), nil
	case "rabbitmq":
		return rabbitmq.NewClient(cfg.RabbitMQURL, cfg.Name)
	default:
		return nil, fmt.Errorf("unknown queue driver %q", cfg.Driver)
	}
}
