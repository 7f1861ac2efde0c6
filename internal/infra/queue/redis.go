package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonatanoficial-bit/IMVPEDIA-VIOLAO/internal/domain"
)

// RedisEventQueue реализует очередь событий прогресса на базе Redis lists.
type RedisEventQueue struct {
	client *redis.Client
	key    string
}

var _ domain.EventQueue = (*RedisEventQueue)(nil)

// NewRedisEventQueue создаёт очередь по указанному ключу.
func NewRedisEventQueue(client *redis.Client, key string) *RedisEventQueue {
	return &RedisEventQueue{client: client, key: key}
}

// Publish кладёт событие в очередь.
func (q *RedisEventQueue) Publish(ctx context.Context, event domain.ProgressEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("push event: %w", err)
	}
	return nil
}

// Pop блокирующе читает событие из очереди.
func (q *RedisEventQueue) Pop(ctx context.Context) (domain.ProgressEvent, error) {
	for {
		if err := ctx.Err(); err != nil {
			return domain.ProgressEvent{}, err
		}

		res, err := q.client.BRPop(ctx, time.Second, q.key).Result()
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				if ctx.Err() != nil {
					return domain.ProgressEvent{}, ctx.Err()
				}
				continue
			}
			if errors.Is(err, redis.Nil) {
				continue
			}
			return domain.ProgressEvent{}, err
		}
		if len(res) != 2 {
			return domain.ProgressEvent{}, errors.New("redis queue: unexpected response")
		}
		var event domain.ProgressEvent
		if err := json.Unmarshal([]byte(res[1]), &event); err != nil {
			return domain.ProgressEvent{}, fmt.Errorf("decode event: %w", err)
		}
		return event, nil
	}
}
