package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/civic-report-api/internal/models"
)

func TestMetricsServiceCountsDomainEvents(t *testing.T) {
	m := NewMetricsService()

	m.IssueCreated(models.CategoryRoads)
	m.IssueCreated(models.CategoryRoads)
	m.NotificationSent(NotificationKindAuthority, nil)
	m.NotificationSent(NotificationKindReporter, errors.New("smtp down"))
	m.StatusChanged(models.StatusSubmitted, models.StatusResolved)

	assert.Equal(t, 2.0, counterValue(t, m, "civic_issues_created_total", map[string]string{"category": "roads"}))
	assert.Equal(t, 1.0, counterValue(t, m, "civic_notifications_sent_total", map[string]string{"kind": "authority", "result": "success"}))
	assert.Equal(t, 1.0, counterValue(t, m, "civic_notifications_sent_total", map[string]string{"kind": "reporter", "result": "failure"}))
	assert.Equal(t, 1.0, counterValue(t, m, "civic_issue_status_transitions_total", map[string]string{"from": "submitted", "to": "resolved"}))
	assert.Equal(t, uint64(2), m.Snapshot().IssuesCreated)
}

func counterValue(t *testing.T, m *MetricsService, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metrics:
		for _, metric := range mf.GetMetric() {
			for _, lp := range metric.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue metrics
				}
			}
			return metric.GetCounter().GetValue()
		}
	}
	return 0
}

func TestMetricsServiceCacheRatio(t *testing.T) {
	m := NewMetricsService()
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(false, time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)

	snap := m.Snapshot()
	assert.Equal(t, uint64(2), snap.CacheHits)
	assert.InDelta(t, 2.0/3.0, snap.CacheHitRatio, 0.0001)

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	var samples uint64
	for _, mf := range families {
		if mf.GetName() == "civic_cache_latency_seconds" {
			samples = mf.GetMetric()[0].GetHistogram().GetSampleCount()
		}
	}
	assert.Equal(t, uint64(3), samples)
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	assert.NotPanics(t, func() {
		m.IssueCreated(models.CategoryOther)
		m.NotificationSent(NotificationKindAuthority, nil)
		m.ObserveDBQuery("q", time.Millisecond)
		m.SubmissionRateLimited()
	})
	assert.Equal(t, models.AnalyticsSystemMetrics{}, m.Snapshot())
}
