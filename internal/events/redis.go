package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/robocleaner/armd/internal/logging"
)

// publishTimeout bounds how long a single publish may hold up the control
// loop when Redis is slow or gone.
const publishTimeout = 100 * time.Millisecond

// RedisPublisher mirrors applied updates to a Redis pub/sub channel as JSON,
// for dashboards or recorders subscribed elsewhere on the network.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

// NewRedisPublisher connects to Redis and verifies the connection with a
// ping before accepting traffic.
func NewRedisPublisher(addr, password string, db int, channel string) (*RedisPublisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}

	logging.Info("Redis publisher connected")
	return &RedisPublisher{client: client, channel: channel}, nil
}

// Publish sends the update as a JSON payload. Errors are returned for the
// caller to log; the stream has no delivery guarantee.
func (p *RedisPublisher) Publish(u Update) error {
	payload, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("marshal update: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish update: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
