package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"smm-planner/internal/domain"
)

// RedisComposeQueue реализует очередь задач генерации на базе Redis lists.
// Подходит для стендов без RabbitMQ; ack(false) возвращает задачу в очередь.
type RedisComposeQueue struct {
	client *redis.Client
	key    string
}

// NewRedisComposeQueue создаёт очередь по указанному ключу.
func NewRedisComposeQueue(client *redis.Client, key string) *RedisComposeQueue {
	return &RedisComposeQueue{client: client, key: key}
}

var _ domain.ComposeQueue = (*RedisComposeQueue)(nil)

// Enqueue публикует задачу в очередь.
func (q *RedisComposeQueue) Enqueue(ctx context.Context, job domain.ComposeJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("push job: %w", err)
	}
	return nil
}

// Receive блокирующе читает задачу из очереди.
func (q *RedisComposeQueue) Receive(ctx context.Context) (domain.ComposeJob, domain.ComposeAckFunc, error) {
	for {
		if err := ctx.Err(); err != nil {
			return domain.ComposeJob{}, nil, err
		}

		res, err := q.client.BRPop(ctx, time.Second, q.key).Result()
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				if ctx.Err() != nil {
					return domain.ComposeJob{}, nil, ctx.Err()
				}
				continue
			}
			if errors.Is(err, redis.Nil) {
				continue
			}
			return domain.ComposeJob{}, nil, err
		}
		if len(res) != 2 {
			return domain.ComposeJob{}, nil, errors.New("redis queue: unexpected response")
		}
		payload := res[1]
		var job domain.ComposeJob
		if err := json.Unmarshal([]byte(payload), &job); err != nil {
			return domain.ComposeJob{}, nil, fmt.Errorf("decode job: %w", err)
		}
		ack := func(success bool) error {
			if success {
				return nil
			}
			// возврат в очередь для повторной доставки
			return q.client.LPush(context.Background(), q.key, payload).Err()
		}
		return job, ack, nil
	}
}
