package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/civic-report-api/internal/models"
)

// Dimension names a groupable issue column.
type Dimension string

const (
	DimensionStatus   Dimension = "status"
	DimensionCategory Dimension = "category"
	DimensionPriority Dimension = "priority"
)

// AnalyticsRepository exposes read-optimised aggregate queries over issues.
type AnalyticsRepository struct {
	db *sqlx.DB
}

// NewAnalyticsRepository instantiates the repository.
func NewAnalyticsRepository(db *sqlx.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// Distribution counts issues grouped by one dimension.
func (r *AnalyticsRepository) Distribution(ctx context.Context, dim Dimension) (map[string]int, error) {
	switch dim {
	case DimensionStatus, DimensionCategory, DimensionPriority:
	default:
		return nil, fmt.Errorf("unsupported dimension %q", dim)
	}

	query := fmt.Sprintf("SELECT %s AS key, COUNT(*) AS count FROM issues GROUP BY %s", dim, dim)
	var rows []models.CountByKey
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("query %s distribution: %w", dim, err)
	}

	out := make(map[string]int, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Count
	}
	return out, nil
}

// MonthlyCounts returns the most recent limit (year, month) buckets that hold
// issues, in chronological order.
func (r *AnalyticsRepository) MonthlyCounts(ctx context.Context, limit int) ([]models.MonthlyCount, error) {
	if limit <= 0 {
		limit = 12
	}
	const query = `SELECT EXTRACT(YEAR FROM created_at)::INT AS year, EXTRACT(MONTH FROM created_at)::INT AS month, COUNT(*) AS count
FROM issues
GROUP BY 1, 2
ORDER BY 1 DESC, 2 DESC
LIMIT $1`
	rows := make([]models.MonthlyCount, 0, limit)
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("query monthly counts: %w", err)
	}

	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows, nil
}

// ResolutionDays returns the number of resolved issues and the sum of their
// whole days between creation and last update.
func (r *AnalyticsRepository) ResolutionDays(ctx context.Context) (resolved int, totalDays int64, err error) {
	const query = `SELECT COUNT(*) AS resolved,
COALESCE(SUM(FLOOR(EXTRACT(EPOCH FROM (updated_at - created_at)) / 86400)), 0)::BIGINT AS total_days
FROM issues WHERE status = 'resolved'`
	var row struct {
		Resolved  int   `db:"resolved"`
		TotalDays int64 `db:"total_days"`
	}
	if err := r.db.GetContext(ctx, &row, query); err != nil {
		return 0, 0, fmt.Errorf("query resolution days: %w", err)
	}
	return row.Resolved, row.TotalDays, nil
}

// Totals returns the counters behind the performance block.
func (r *AnalyticsRepository) Totals(ctx context.Context) (models.IssueTotals, error) {
	const query = `SELECT COUNT(*) AS total,
COUNT(*) FILTER (WHERE status = 'resolved') AS resolved,
COUNT(*) FILTER (WHERE status = 'in_progress') AS in_progress,
COUNT(*) FILTER (WHERE status = 'submitted') AS submitted,
COUNT(*) FILTER (WHERE authority_notified) AS notified
FROM issues`
	var totals models.IssueTotals
	if err := r.db.GetContext(ctx, &totals, query); err != nil {
		return models.IssueTotals{}, fmt.Errorf("query issue totals: %w", err)
	}
	return totals, nil
}

// GeoPoints lists issues carrying both coordinates.
func (r *AnalyticsRepository) GeoPoints(ctx context.Context) ([]models.GeoPoint, error) {
	const query = `SELECT id, category, status, priority, latitude, longitude FROM issues
WHERE latitude IS NOT NULL AND longitude IS NOT NULL ORDER BY id`
	points := make([]models.GeoPoint, 0)
	if err := r.db.SelectContext(ctx, &points, query); err != nil {
		return nil, fmt.Errorf("query geo points: %w", err)
	}
	return points, nil
}
