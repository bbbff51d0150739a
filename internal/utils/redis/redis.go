package redis

import (
	"context"
	"encoding/json"
	"time"

	re "github.com/redis/go-redis/v9"
)

// Redis is a JSON value cache on top of a go-redis client.
type Redis interface {
	Set(ctx context.Context, key string, value interface{}, expireTime time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) (bool, error)
}

type redis struct {
	redis *re.Client
}

// New wraps client; a nil client yields the Dummy cache.
func New(client *re.Client) Redis {
	if client == nil {
		return Dummy()
	}
	return &redis{redis: client}
}

func (r *redis) Set(ctx context.Context, key string, value interface{}, expireTime time.Duration) error {
	jsonData, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.redis.Set(ctx, key, jsonData, expireTime).Err()
}

// Get returns nil, nil when the key does not exist.
func (r *redis) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.redis.Get(ctx, key).Bytes()
	if err == re.Nil {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return val, nil
}

func (r *redis) Delete(ctx context.Context, key string) (bool, error) {
	result, err := r.redis.Del(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return result > 0, nil
}
