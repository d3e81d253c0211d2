package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/egresados-intake/internal/models"
	appErrors "github.com/noah-isme/egresados-intake/pkg/errors"
)

// CacheRepository abstracts persistence for the cached status counts.
type CacheRepository interface {
	GetCounts(ctx context.Context) (models.StatusCounts, error)
	SetCounts(ctx context.Context, counts models.StatusCounts, ttl time.Duration) error
	InvalidateCounts(ctx context.Context) error
}

// CacheService wraps the cache repository with metrics and a kill switch.
// Every failure is logged and swallowed by callers; the database stays the
// source of truth.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Counts returns the cached counts and whether the cache was hit.
func (s *CacheService) Counts(ctx context.Context) (models.StatusCounts, bool, error) {
	if !s.Enabled() {
		return nil, false, nil
	}
	start := time.Now()
	counts, err := s.repo.GetCounts(ctx)
	duration := time.Since(start)
	if err != nil {
		s.metrics.RecordCacheOperation(false, duration)
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return nil, false, nil
		}
		s.logger.Warn("status counts cache read failed", zap.Error(err))
		return nil, false, err
	}
	s.metrics.RecordCacheOperation(true, duration)
	return counts, true, nil
}

// StoreCounts caches freshly computed counts for the default TTL.
func (s *CacheService) StoreCounts(ctx context.Context, counts models.StatusCounts) error {
	if !s.Enabled() {
		return nil
	}
	start := time.Now()
	err := s.repo.SetCounts(ctx, counts, s.defaultTTL)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("status counts cache write failed", zap.Error(err))
	}
	return err
}

// InvalidateCounts drops the cached counts after a request is added, changed
// or removed.
func (s *CacheService) InvalidateCounts(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.repo.InvalidateCounts(ctx); err != nil {
		s.logger.Warn("status counts cache invalidation failed", zap.Error(err))
		return err
	}
	return nil
}
