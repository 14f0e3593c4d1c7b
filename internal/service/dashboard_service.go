package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/civic-report-api/internal/models"
	appErrors "github.com/noah-isme/civic-report-api/pkg/errors"
)

const dashboardCacheKeyStatus = "dash:status_counts"

type statusCountRepository interface {
	StatusCounts(ctx context.Context) (models.StatusCounts, error)
}

// DashboardService serves the whole-table status counters shown above every listing.
type DashboardService struct {
	repo    statusCountRepository
	cache   *CacheService
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
}

// NewDashboardService constructs the dashboard service.
func NewDashboardService(repo statusCountRepository, cache *CacheService, metrics *MetricsService, ttl time.Duration, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{repo: repo, cache: cache, metrics: metrics, ttl: ttl, logger: logger}
}

// StatusCounts returns issue totals per status. The boolean reports a cache hit.
func (s *DashboardService) StatusCounts(ctx context.Context) (models.StatusCounts, bool, error) {
	var cached models.StatusCounts
	if hit, err := s.cache.Get(ctx, dashboardCacheKeyStatus, &cached); err != nil {
		s.logger.Warn("dashboard cache unavailable", zap.Error(err))
	} else if hit {
		return cached, true, nil
	}

	start := time.Now()
	counts, err := s.repo.StatusCounts(ctx)
	if err != nil {
		return models.StatusCounts{}, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count issues")
	}
	s.metrics.ObserveDBQuery("dashboard_status_counts", time.Since(start))

	if err := s.cache.Set(ctx, dashboardCacheKeyStatus, counts, s.ttl); err != nil {
		s.logger.Warn("cache dashboard counts", zap.Error(err))
	}
	return counts, false, nil
}
