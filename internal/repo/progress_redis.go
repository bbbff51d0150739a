package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"interviewassistant/api"
	"interviewassistant/internal/utils/redis"
)

const progressKeyPrefix = "progress:"

type RedisProgress struct {
	cache redis.Redis
	ttl   time.Duration
}

// NewRedisProgressRepository stores records under progress:<sessionID>; ttl 0 keeps them forever.
func NewRedisProgressRepository(cache redis.Redis, ttl time.Duration) *RedisProgress {
	return &RedisProgress{cache: cache, ttl: ttl}
}

func (r *RedisProgress) Save(ctx context.Context, sessionID string, progress *api.Progress) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}
	if err := r.cache.Set(ctx, progressKeyPrefix+sessionID, progress, r.ttl); err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

func (r *RedisProgress) Load(ctx context.Context, sessionID string) (*api.Progress, bool, error) {
	data, err := r.cache.Get(ctx, progressKeyPrefix+sessionID)
	if err != nil {
		return nil, false, fmt.Errorf("load progress: %w", err)
	}
	if data == nil {
		return nil, false, nil
	}

	var p api.Progress
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, false, fmt.Errorf("unmarshal progress: %w", err)
	}
	return &p, true, nil
}

func (r *RedisProgress) Clear(ctx context.Context, sessionID string) error {
	if _, err := r.cache.Delete(ctx, progressKeyPrefix+sessionID); err != nil {
		return fmt.Errorf("clear progress: %w", err)
	}
	return nil
}
