package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/egresados-intake/internal/models"
	appErrors "github.com/noah-isme/egresados-intake/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)

	_, err := repo.GetCounts(context.Background())
	assert.True(t, errors.Is(err, appErrors.ErrCacheMiss))
	assert.NoError(t, repo.SetCounts(context.Background(), models.StatusCounts{models.StatusPending: 1}, time.Minute))
	assert.NoError(t, repo.InvalidateCounts(context.Background()))
}

func TestCacheRepositoryWrapsBackendErrors(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	repo := NewCacheRepository(client, nil)

	_, err := repo.GetCounts(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, appErrors.ErrCacheMiss))
	assert.Contains(t, err.Error(), StatusCountsKey)

	err = repo.SetCounts(context.Background(), models.NewStatusCounts(), time.Minute)
	require.Error(t, err)
	assert.Contains(t, err.Error(), StatusCountsKey)

	require.Error(t, repo.InvalidateCounts(context.Background()))
}
