package models

import "time"

// CountByKey is one row of a GROUP BY count.
type CountByKey struct {
	Key   string `db:"key"`
	Count int    `db:"count"`
}

// MonthlyCount is the number of issues created in a calendar month.
type MonthlyCount struct {
	Year  int `db:"year" json:"year"`
	Month int `db:"month" json:"month"`
	Count int `db:"count" json:"count"`
}

// GeoPoint locates an issue that carries both coordinates.
type GeoPoint struct {
	ID        int64         `db:"id" json:"id"`
	Category  IssueCategory `db:"category" json:"category"`
	Status    IssueStatus   `db:"status" json:"status"`
	Priority  IssuePriority `db:"priority" json:"priority"`
	Latitude  float64       `db:"latitude" json:"lat"`
	Longitude float64       `db:"longitude" json:"lng"`
}

// IssueTotals are the raw aggregates behind the performance block.
type IssueTotals struct {
	Total      int `db:"total"`
	Resolved   int `db:"resolved"`
	InProgress int `db:"in_progress"`
	Submitted  int `db:"submitted"`
	Notified   int `db:"notified"`
}

// PerformanceStats summarises throughput of the triage team.
type PerformanceStats struct {
	TotalIssues       int     `json:"total_issues"`
	ResolvedCount     int     `json:"resolved_count"`
	InProgressCount   int     `json:"in_progress_count"`
	PendingCount      int     `json:"pending_count"`
	ResolutionRate    float64 `json:"resolution_rate"`
	AvgResolutionTime float64 `json:"avg_resolution_time"`
	NotificationRate  float64 `json:"notification_rate"`
}

// IssueAnalytics is the full analytics dashboard payload.
type IssueAnalytics struct {
	StatusStats   map[string]int   `json:"status_stats"`
	CategoryStats map[string]int   `json:"category_stats"`
	PriorityStats map[string]int   `json:"priority_stats"`
	MonthlyStats  []MonthlyCount   `json:"monthly_stats"`
	GeoStats      []GeoPoint       `json:"geo_stats"`
	Performance   PerformanceStats `json:"performance"`
}

// MonthlyTrend is a month bucket rendered as "YYYY-MM".
type MonthlyTrend struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// APIAnalytics is the chart oriented analytics payload.
type APIAnalytics struct {
	CategoryDistribution map[string]int `json:"category_distribution"`
	StatusDistribution   map[string]int `json:"status_distribution"`
	PriorityDistribution map[string]int `json:"priority_distribution"`
	MonthlyTrends        []MonthlyTrend `json:"monthly_trends"`
}

// AnalyticsSystemMetrics represents system level analytics captured from instrumentation.
type AnalyticsSystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	DBQueryCount             uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs float64   `json:"average_db_query_duration_ms"`
	IssuesCreated            uint64    `json:"issues_created"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
