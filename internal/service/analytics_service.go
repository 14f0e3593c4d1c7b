package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/civic-report-api/internal/models"
	"github.com/noah-isme/civic-report-api/internal/repository"
)

const (
	analyticsCacheKeyFull = "analytics:full"
	analyticsCacheKeyAPI  = "analytics:api"
	monthlyBuckets        = 12
)

// AnalyticsRepository describes the persistence layer required by AnalyticsService.
type AnalyticsRepository interface {
	Distribution(ctx context.Context, dim repository.Dimension) (map[string]int, error)
	MonthlyCounts(ctx context.Context, limit int) ([]models.MonthlyCount, error)
	ResolutionDays(ctx context.Context) (int, int64, error)
	Totals(ctx context.Context) (models.IssueTotals, error)
	GeoPoints(ctx context.Context) ([]models.GeoPoint, error)
}

// AnalyticsService provides read-optimised access to issue analytics with cache integration.
type AnalyticsService struct {
	repo    AnalyticsRepository
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
	ttl     time.Duration
}

// NewAnalyticsService constructs an analytics service.
func NewAnalyticsService(repo AnalyticsRepository, cache *CacheService, metrics *MetricsService, ttl time.Duration, logger *zap.Logger) *AnalyticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsService{repo: repo, cache: cache, metrics: metrics, ttl: ttl, logger: logger}
}

// Analytics returns the full dashboard payload. The boolean indicates whether data originated from cache.
func (s *AnalyticsService) Analytics(ctx context.Context) (*models.IssueAnalytics, bool, error) {
	var cached models.IssueAnalytics
	if hit, err := s.cache.Get(ctx, analyticsCacheKeyFull, &cached); err != nil {
		s.logger.Warn("analytics cache unavailable", zap.Error(err))
	} else if hit {
		return &cached, true, nil
	}

	start := time.Now()
	result := &models.IssueAnalytics{}
	var err error
	if result.StatusStats, err = s.repo.Distribution(ctx, repository.DimensionStatus); err != nil {
		return nil, false, err
	}
	if result.CategoryStats, err = s.repo.Distribution(ctx, repository.DimensionCategory); err != nil {
		return nil, false, err
	}
	if result.PriorityStats, err = s.repo.Distribution(ctx, repository.DimensionPriority); err != nil {
		return nil, false, err
	}
	if result.MonthlyStats, err = s.repo.MonthlyCounts(ctx, monthlyBuckets); err != nil {
		return nil, false, err
	}
	if result.GeoStats, err = s.repo.GeoPoints(ctx); err != nil {
		return nil, false, err
	}
	totals, err := s.repo.Totals(ctx)
	if err != nil {
		return nil, false, err
	}
	resolved, totalDays, err := s.repo.ResolutionDays(ctx)
	if err != nil {
		return nil, false, err
	}
	s.metrics.ObserveDBQuery("analytics_full", time.Since(start))

	result.Performance = models.PerformanceStats{
		TotalIssues:       totals.Total,
		ResolvedCount:     totals.Resolved,
		InProgressCount:   totals.InProgress,
		PendingCount:      totals.Submitted,
		ResolutionRate:    percentage(totals.Resolved, totals.Total),
		AvgResolutionTime: averageDays(totalDays, resolved),
		NotificationRate:  percentage(totals.Notified, totals.Total),
	}

	if err := s.cache.Set(ctx, analyticsCacheKeyFull, result, s.ttl); err != nil {
		s.logger.Warn("cache analytics", zap.Error(err))
	}
	return result, false, nil
}

// APIAnalytics returns the chart distributions and the monthly trend.
func (s *AnalyticsService) APIAnalytics(ctx context.Context) (*models.APIAnalytics, bool, error) {
	var cached models.APIAnalytics
	if hit, err := s.cache.Get(ctx, analyticsCacheKeyAPI, &cached); err != nil {
		s.logger.Warn("analytics cache unavailable", zap.Error(err))
	} else if hit {
		return &cached, true, nil
	}

	start := time.Now()
	result := &models.APIAnalytics{}
	var err error
	if result.CategoryDistribution, err = s.repo.Distribution(ctx, repository.DimensionCategory); err != nil {
		return nil, false, err
	}
	if result.StatusDistribution, err = s.repo.Distribution(ctx, repository.DimensionStatus); err != nil {
		return nil, false, err
	}
	if result.PriorityDistribution, err = s.repo.Distribution(ctx, repository.DimensionPriority); err != nil {
		return nil, false, err
	}
	monthly, err := s.repo.MonthlyCounts(ctx, monthlyBuckets)
	if err != nil {
		return nil, false, err
	}
	s.metrics.ObserveDBQuery("analytics_api", time.Since(start))

	result.MonthlyTrends = make([]models.MonthlyTrend, 0, len(monthly))
	for _, m := range monthly {
		result.MonthlyTrends = append(result.MonthlyTrends, models.MonthlyTrend{
			Month: fmt.Sprintf("%04d-%02d", m.Year, m.Month),
			Count: m.Count,
		})
	}

	if err := s.cache.Set(ctx, analyticsCacheKeyAPI, result, s.ttl); err != nil {
		s.logger.Warn("cache api analytics", zap.Error(err))
	}
	return result, false, nil
}

// SystemMetrics returns system instrumentation snapshot.
func (s *AnalyticsService) SystemMetrics() models.AnalyticsSystemMetrics {
	return s.metrics.Snapshot()
}

func percentage(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return round1(float64(part) / float64(total) * 100)
}

func averageDays(totalDays int64, count int) float64 {
	if count <= 0 {
		return 0
	}
	return round1(float64(totalDays) / float64(count))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
