package events

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"sms-bridge/internal/metrics"
	"sms-bridge/internal/models"
)

// DefaultStream is the stream events are appended to when none is configured.
const DefaultStream = "smsbridge:events"

// RedisPublisher appends events to a Redis stream with XADD.
type RedisPublisher struct {
	client *redis.Client
	stream string
}

// NewRedisPublisher connects to redisURL.
func NewRedisPublisher(ctx context.Context, redisURL, stream string) (*RedisPublisher, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	if stream == "" {
		stream = DefaultStream
	}
	return &RedisPublisher{client: client, stream: stream}, nil
}

func (p *RedisPublisher) Emit(ctx context.Context, event models.Event) error {
	_, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"name":       event.Name,
			"id":         event.ID,
			"sender":     event.Payload.Sender,
			"body":       event.Payload.Body,
			"timestamp":  event.Payload.Timestamp,
			"emitted_at": event.EmittedAt,
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("xadd failed: %w", err)
	}

	metrics.EventsEmitted.WithLabelValues("redis_stream").Inc()
	return nil
}

// Stream returns the target stream name.
func (p *RedisPublisher) Stream() string {
	return p.stream
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
