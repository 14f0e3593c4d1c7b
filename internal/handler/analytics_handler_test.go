package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/civic-report-api/internal/models"
)

type fakeAnalyticsSrv struct {
	full *models.IssueAnalytics
	api  *models.APIAnalytics
	hit  bool
	err  error
}

func (f *fakeAnalyticsSrv) Analytics(context.Context) (*models.IssueAnalytics, bool, error) {
	return f.full, f.hit, f.err
}

func (f *fakeAnalyticsSrv) APIAnalytics(context.Context) (*models.APIAnalytics, bool, error) {
	return f.api, f.hit, f.err
}

func (f *fakeAnalyticsSrv) SystemMetrics() models.AnalyticsSystemMetrics {
	return models.AnalyticsSystemMetrics{IssuesCreated: 4, Goroutines: 9}
}

func TestAnalyticsHandlerFullReportsCacheHit(t *testing.T) {
	handler := NewAnalyticsHandler(&fakeAnalyticsSrv{
		full: &models.IssueAnalytics{StatusStats: map[string]int{"submitted": 2}},
		hit:  true,
	})

	c, rec := newTestContext(http.MethodGet, "/analytics", nil)
	handler.Full(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, true, envelope.Meta["cache_hit"])
	assert.Contains(t, envelope.Meta, "processing_time_ms")
	assert.Contains(t, envelope.Data, "status_stats")
}

func TestAnalyticsHandlerAPI(t *testing.T) {
	handler := NewAnalyticsHandler(&fakeAnalyticsSrv{
		api: &models.APIAnalytics{MonthlyTrends: []models.MonthlyTrend{{Month: "2024-01", Count: 3}}},
	})

	c, rec := newTestContext(http.MethodGet, "/api/analytics", nil)
	handler.API(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, false, envelope.Meta["cache_hit"])
	trends, ok := envelope.Data["monthly_trends"].([]interface{})
	assert.True(t, ok)
	assert.Len(t, trends, 1)
}

func TestAnalyticsHandlerError(t *testing.T) {
	handler := NewAnalyticsHandler(&fakeAnalyticsSrv{err: errors.New("boom")})

	c, rec := newTestContext(http.MethodGet, "/analytics", nil)
	handler.Full(c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAnalyticsHandlerSystem(t *testing.T) {
	handler := NewAnalyticsHandler(&fakeAnalyticsSrv{})

	c, rec := newTestContext(http.MethodGet, "/analytics/system", nil)
	handler.System(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, float64(4), envelope.Data["issues_created"])
	assert.Equal(t, false, envelope.Meta["cache_hit"])
}
