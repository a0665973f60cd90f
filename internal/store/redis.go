package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Juanjvr123/proyecto-final-compunet-1/internal/models"
)

// Pending entries for a user who never reconnects expire eventually
// rather than growing without bound.
const pendingTTL = 7 * 24 * time.Hour

// RedisQueue is the Redis-backed alternative pending-queue backend.
// Unlike the in-memory queue it survives process restarts.
type RedisQueue struct {
	client *redis.Client
}

// NewRedisQueue connects and pings a Redis instance.
func NewRedisQueue(ctx context.Context, redisURL string) (*RedisQueue, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &RedisQueue{client: client}, nil
}

// Close closes the Redis connection.
func (q *RedisQueue) Close() error {
	return q.client.Close()
}

// Ping checks the Redis connection.
func (q *RedisQueue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

// pendingKey returns the key for a user's pending list.
func pendingKey(username string) string {
	return fmt.Sprintf("pending:%s", username)
}

// Enqueue appends an event to the user's pending list.
func (q *RedisQueue) Enqueue(ctx context.Context, username string, ev models.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	key := pendingKey(username)
	if err := q.client.RPush(ctx, key, string(data)).Err(); err != nil {
		return err
	}
	q.client.Expire(ctx, key, pendingTTL)
	return nil
}

// Drain returns and clears the user's pending list. The read and the
// delete run in one MULTI/EXEC so an enqueue cannot slip between them.
func (q *RedisQueue) Drain(ctx context.Context, username string) ([]models.Event, error) {
	key := pendingKey(username)

	var read *redis.StringSliceCmd
	_, err := q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		read = pipe.LRange(ctx, key, 0, -1)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		return nil, err
	}

	raw := read.Val()
	events := make([]models.Event, 0, len(raw))
	for _, data := range raw {
		var ev models.Event
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}
