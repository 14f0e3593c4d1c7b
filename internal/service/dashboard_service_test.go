package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/civic-report-api/internal/models"
	appErrors "github.com/noah-isme/civic-report-api/pkg/errors"
)

type fakeStatusCounts struct {
	counts models.StatusCounts
	calls  int
	err    error
}

func (f *fakeStatusCounts) StatusCounts(context.Context) (models.StatusCounts, error) {
	f.calls++
	return f.counts, f.err
}

func TestDashboardServiceCachesCounts(t *testing.T) {
	repo := &fakeStatusCounts{counts: models.StatusCounts{Total: 4, Submitted: 2, Resolved: 2}}
	cacheSvc := NewCacheService(&stubCacheRepo{}, nil, time.Minute, zap.NewNop(), true)
	svc := NewDashboardService(repo, cacheSvc, NewMetricsService(), time.Minute, zap.NewNop())
	ctx := context.Background()

	counts, hit, err := svc.StatusCounts(ctx)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, repo.counts, counts)

	counts, hit, err = svc.StatusCounts(ctx)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 4, counts.Total)
	assert.Equal(t, 1, repo.calls)

	cacheSvc.InvalidateIssueAggregates(ctx)
	_, hit, err = svc.StatusCounts(ctx)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, repo.calls)
}

func TestDashboardServiceWithoutCache(t *testing.T) {
	repo := &fakeStatusCounts{}
	svc := NewDashboardService(repo, nil, nil, 0, nil)

	for i := 0; i < 2; i++ {
		_, hit, err := svc.StatusCounts(context.Background())
		require.NoError(t, err)
		assert.False(t, hit)
	}
	assert.Equal(t, 2, repo.calls)
}

func TestDashboardServiceRepositoryError(t *testing.T) {
	svc := NewDashboardService(&fakeStatusCounts{err: errors.New("db down")}, nil, nil, 0, nil)

	_, _, err := svc.StatusCounts(context.Background())
	assert.True(t, errors.Is(err, appErrors.ErrInternal))
}
