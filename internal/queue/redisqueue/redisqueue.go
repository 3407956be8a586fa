package redisqueue

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Queue is a plain Redis list used as a FIFO job queue: producers LPUSH,
// consumers BRPOP.
type Queue struct {
	rdb  *redis.Client
	name string
}

func New(rdb *redis.Client, name string) *Queue {
	return &Queue{rdb: rdb, name: name}
}

func (q *Queue) Publish(ctx context.Context, body []byte) error {
	if err := q.rdb.LPush(ctx, q.name, body).Err(); err != nil {
		return fmt.Errorf("lpush %s: %w", q.name, err)
	}
	return nil
}

// Pop blocks until an element is available (BRPOP with no timeout) or
// the context is canceled.
func (q *Queue) Pop(ctx context.Context) ([]byte, error) {
	res, err := q.rdb.BRPop(ctx, 0, q.name).Result()
	if err != nil {
		return nil, fmt.Errorf("brpop %s: %w", q.name, err)
	}
	if len(res) < 2 {
		return nil, fmt.Errorf("brpop %s: short reply", q.name)
	}
	return []byte(res[1]), nil
}

func (q *Queue) Close() error { return nil }
