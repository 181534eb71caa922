package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/unilab-dev/uni-records-api/pkg/errors"
)

// StatsCache provides Redis-backed caching for per-student exam statistics.
// A nil client degrades every operation to a cache miss, so the service works
// unchanged without Redis.
type StatsCache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewStatsCache constructs a stats cache.
func NewStatsCache(client *redis.Client, logger *zap.Logger) *StatsCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsCache{client: client, logger: logger}
}

func statsKey(studentID int64) string {
	return fmt.Sprintf("exam_stats:%d", studentID)
}

// Get retrieves and unmarshals cached stats into the provided destination.
func (c *StatsCache) Get(ctx context.Context, studentID int64, dest interface{}) error {
	if c.client == nil {
		return appErrors.ErrCacheMiss
	}

	raw, err := c.client.Get(ctx, statsKey(studentID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return appErrors.ErrCacheMiss
		}
		return fmt.Errorf("redis get stats %d: %w", studentID, err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("unmarshal cached stats %d: %w", studentID, err)
	}
	return nil
}

// Set marshals the stats value and stores it with the given TTL.
func (c *StatsCache) Set(ctx context.Context, studentID int64, value interface{}, ttl time.Duration) error {
	if c.client == nil {
		return nil
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal stats %d: %w", studentID, err)
	}

	if err := c.client.Set(ctx, statsKey(studentID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set stats %d: %w", studentID, err)
	}
	return nil
}

// Invalidate drops the cached stats for a student after an exam mutation.
func (c *StatsCache) Invalidate(ctx context.Context, studentID int64) {
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, statsKey(studentID)).Err(); err != nil {
		c.logger.Warn("stats cache invalidation failed",
			zap.Int64("student_id", studentID), zap.Error(err))
	}
}
