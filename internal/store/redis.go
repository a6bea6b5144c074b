package store

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisKV keeps the namespace in a single Redis hash.
type RedisKV struct {
	client *redis.Client
	key    string
}

// NewRedisKV connects to redisURL and uses the hash "<namespace>:kv".
func NewRedisKV(ctx context.Context, redisURL, namespace string) (*RedisKV, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, storageErr("parse redis url", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, storageErr("ping redis", err)
	}

	return &RedisKV{client: client, key: namespace + ":kv"}, nil
}

func (s *RedisKV) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.HGet(ctx, s.key, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, storageErr("redis hget", err)
	}
	return v, true, nil
}

// Commit runs the batch inside MULTI/EXEC.
func (s *RedisKV) Commit(ctx context.Context, b *Batch) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(b.Deletes) > 0 {
			pipe.HDel(ctx, s.key, b.Deletes...)
		}
		if len(b.Puts) > 0 {
			values := make(map[string]interface{}, len(b.Puts))
			for k, v := range b.Puts {
				values[k] = v
			}
			pipe.HSet(ctx, s.key, values)
		}
		return nil
	})
	if err != nil {
		return storageErr("redis commit", err)
	}
	return nil
}

func (s *RedisKV) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisKV) Close() error {
	return s.client.Close()
}
