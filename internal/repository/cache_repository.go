package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/egresados-intake/internal/models"
	appErrors "github.com/noah-isme/egresados-intake/pkg/errors"
)

// StatusCountsKey is the Redis hash holding the dashboard badge counts, one
// field per status.
const StatusCountsKey = "egresados:status_counts"

// CacheRepository keeps the per-status request counts in Redis. The client
// is owned by the caller.
type CacheRepository struct {
	client *redis.Client
	key    string
	logger *zap.Logger
}

// NewCacheRepository constructs a cache repository.
func NewCacheRepository(client *redis.Client, logger *zap.Logger) *CacheRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheRepository{client: client, key: StatusCountsKey, logger: logger}
}

// GetCounts reads the cached counts. An absent hash is ErrCacheMiss. Fields
// that are not a known status or not a number are ignored.
func (r *CacheRepository) GetCounts(ctx context.Context) (models.StatusCounts, error) {
	if r.client == nil {
		return nil, appErrors.ErrCacheMiss
	}

	fields, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall %s: %w", r.key, err)
	}
	if len(fields) == 0 {
		return nil, appErrors.ErrCacheMiss
	}

	counts := models.NewStatusCounts()
	for field, raw := range fields {
		status, ok := models.ParseStatus(field)
		if !ok {
			r.logger.Debug("ignoring cached field", zap.String("field", field))
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			r.logger.Debug("ignoring cached count", zap.String("field", field), zap.String("value", raw))
			continue
		}
		counts[status] = n
	}
	return counts, nil
}

// SetCounts replaces the cached counts atomically and sets their expiry.
func (r *CacheRepository) SetCounts(ctx context.Context, counts models.StatusCounts, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}

	values := make(map[string]interface{}, len(counts))
	for status, n := range counts {
		values[string(status)] = n
	}
	if len(values) == 0 {
		return r.InvalidateCounts(ctx)
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.key)
		pipe.HSet(ctx, r.key, values)
		if ttl > 0 {
			pipe.Expire(ctx, r.key, ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis store %s: %w", r.key, err)
	}
	return nil
}

// InvalidateCounts drops the cached counts.
func (r *CacheRepository) InvalidateCounts(ctx context.Context) error {
	if r.client == nil {
		return nil
	}
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("redis delete %s: %w", r.key, err)
	}
	return nil
}
