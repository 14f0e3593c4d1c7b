package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/civic-report-api/internal/models"
)

const issueColumns = `id, name, email, category, priority, description, location, latitude, longitude, photo_filename, status, admin_notes, assigned_to, authority_notified, notification_sent_at, created_at, updated_at`

// IssueRepository provides database access for civic issues.
type IssueRepository struct {
	db *sqlx.DB
}

// NewIssueRepository creates a new instance of IssueRepository.
func NewIssueRepository(db *sqlx.DB) *IssueRepository {
	return &IssueRepository{db: db}
}

// Create inserts a new issue and fills in the generated id and timestamps.
func (r *IssueRepository) Create(ctx context.Context, issue *models.Issue) error {
	now := time.Now().UTC()
	if issue.CreatedAt.IsZero() {
		issue.CreatedAt = now
	}
	issue.UpdatedAt = issue.CreatedAt

	const query = `INSERT INTO issues (name, email, category, priority, description, location, latitude, longitude, photo_filename, status, authority_notified, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13) RETURNING id`
	err := r.db.QueryRowxContext(ctx, query,
		issue.Name, issue.Email, issue.Category, issue.Priority, issue.Description, issue.Location,
		issue.Latitude, issue.Longitude, issue.PhotoFilename, issue.Status, issue.AuthorityNotified,
		issue.CreatedAt, issue.UpdatedAt,
	).Scan(&issue.ID)
	if err != nil {
		return fmt.Errorf("insert issue: %w", err)
	}
	return nil
}

// FindByID returns an issue by identifier.
func (r *IssueRepository) FindByID(ctx context.Context, id int64) (*models.Issue, error) {
	query := `SELECT ` + issueColumns + ` FROM issues WHERE id = $1`
	var issue models.Issue
	if err := r.db.GetContext(ctx, &issue, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find issue by id: %w", err)
	}
	return &issue, nil
}

// UpdateStatus applies admin edits under a row lock and returns the status the
// issue had before the edit together with the stored result.
func (r *IssueRepository) UpdateStatus(ctx context.Context, id int64, update models.IssueUpdate, updatedAt time.Time) (prev models.IssueStatus, issue *models.Issue, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", nil, fmt.Errorf("begin issue update: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = tx.GetContext(ctx, &prev, `SELECT status FROM issues WHERE id = $1 FOR UPDATE`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil, err
		}
		return "", nil, fmt.Errorf("lock issue: %w", err)
	}

	query := `UPDATE issues SET status = $2, priority = $3, admin_notes = $4, assigned_to = $5, updated_at = $6 WHERE id = $1 RETURNING ` + issueColumns
	var updated models.Issue
	if err = tx.GetContext(ctx, &updated, query, id, update.Status, update.Priority, update.AdminNotes, update.AssignedTo, updatedAt); err != nil {
		return "", nil, fmt.Errorf("update issue: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return "", nil, fmt.Errorf("commit issue update: %w", err)
	}
	return prev, &updated, nil
}

// MarkNotified records that the authorities were mailed. Both columns are set
// in one statement so the flag never exists without its timestamp.
func (r *IssueRepository) MarkNotified(ctx context.Context, id int64, at time.Time) error {
	const query = `UPDATE issues SET authority_notified = TRUE, notification_sent_at = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("mark issue notified: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// List returns one page of issues matching the filter, newest first, and the
// size of the filtered set.
func (r *IssueRepository) List(ctx context.Context, filter models.IssueFilter) ([]models.Issue, int, error) {
	where, args := issueConditions(filter)

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s FROM issues%s ORDER BY created_at DESC, id DESC LIMIT %d OFFSET %d", issueColumns, where, pageSize, offset)
	issues := make([]models.Issue, 0)
	if err := r.db.SelectContext(ctx, &issues, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list issues: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM issues"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count issues: %w", err)
	}

	return issues, total, nil
}

// ListAll returns every issue matching the filter without paging, newest first.
func (r *IssueRepository) ListAll(ctx context.Context, filter models.IssueFilter) ([]models.Issue, error) {
	where, args := issueConditions(filter)
	query := fmt.Sprintf("SELECT %s FROM issues%s ORDER BY created_at DESC, id DESC", issueColumns, where)
	issues := make([]models.Issue, 0)
	if err := r.db.SelectContext(ctx, &issues, query, args...); err != nil {
		return nil, fmt.Errorf("list all issues: %w", err)
	}
	return issues, nil
}

// StatusCounts aggregates the whole table by status, ignoring any filter.
func (r *IssueRepository) StatusCounts(ctx context.Context) (models.StatusCounts, error) {
	const query = `SELECT COUNT(*) AS total,
COUNT(*) FILTER (WHERE status = 'submitted') AS submitted,
COUNT(*) FILTER (WHERE status = 'in_progress') AS in_progress,
COUNT(*) FILTER (WHERE status = 'resolved') AS resolved,
COUNT(*) FILTER (WHERE status = 'rejected') AS rejected
FROM issues`
	var counts models.StatusCounts
	if err := r.db.GetContext(ctx, &counts, query); err != nil {
		return models.StatusCounts{}, fmt.Errorf("count issues by status: %w", err)
	}
	return counts, nil
}

func issueConditions(filter models.IssueFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.Priority != "" {
		args = append(args, filter.Priority)
		conditions = append(conditions, fmt.Sprintf("priority = $%d", len(args)))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}
