package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/civic-report-api/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	ctx := context.Background()

	assert.False(t, repo.Enabled())

	var dest map[string]int
	assert.ErrorIs(t, repo.Get(ctx, "dash:status_counts", &dest), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(ctx, "dash:status_counts", map[string]int{"total": 1}, time.Minute))
	assert.NoError(t, repo.DeleteByPattern(ctx, "dash:*"))
	assert.NoError(t, repo.Ping(ctx))

	count, ttl, err := repo.Increment(ctx, "ratelimit:submit:1.2.3.4", time.Hour)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Zero(t, ttl)
}
