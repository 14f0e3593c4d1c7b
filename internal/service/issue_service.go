package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/civic-report-api/internal/dto"
	"github.com/noah-isme/civic-report-api/internal/models"
	appErrors "github.com/noah-isme/civic-report-api/pkg/errors"
	"github.com/noah-isme/civic-report-api/pkg/storage"
)

const filterAll = "all"

var allowedPhotoExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true}

type issueRepository interface {
	Create(ctx context.Context, issue *models.Issue) error
	FindByID(ctx context.Context, id int64) (*models.Issue, error)
	UpdateStatus(ctx context.Context, id int64, update models.IssueUpdate, updatedAt time.Time) (models.IssueStatus, *models.Issue, error)
	List(ctx context.Context, filter models.IssueFilter) ([]models.Issue, int, error)
	ListAll(ctx context.Context, filter models.IssueFilter) ([]models.Issue, error)
}

type photoStore interface {
	SaveStream(filename string, r io.Reader) (string, error)
	Delete(filename string) error
}

type issueNotifier interface {
	NotifyAuthorities(ctx context.Context, issue *models.Issue) error
	NotifyReporter(ctx context.Context, issue *models.Issue, previous models.IssueStatus)
}

type statusCounter interface {
	StatusCounts(ctx context.Context) (models.StatusCounts, bool, error)
}

// IssueServiceOptions carries the optional collaborators of IssueService.
type IssueServiceOptions struct {
	Validator *validator.Validate
	Cache     *CacheService
	Metrics   *MetricsService
	Retry     jobEnqueuer
	Logger    *zap.Logger
}

// IssueService drives the issue lifecycle: submission, triage and listing.
type IssueService struct {
	repo      issueRepository
	photos    photoStore
	notifier  issueNotifier
	counts    statusCounter
	validator *validator.Validate
	cache     *CacheService
	metrics   *MetricsService
	retry     jobEnqueuer
	logger    *zap.Logger
	now       func() time.Time
}

// NewIssueService constructs the issue service.
func NewIssueService(repo issueRepository, photos photoStore, notifier issueNotifier, counts statusCounter, opts IssueServiceOptions) *IssueService {
	if opts.Validator == nil {
		opts.Validator = NewValidator()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &IssueService{
		repo:      repo,
		photos:    photos,
		notifier:  notifier,
		counts:    counts,
		validator: opts.Validator,
		cache:     opts.Cache,
		metrics:   opts.Metrics,
		retry:     opts.Retry,
		logger:    opts.Logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create validates and stores a citizen report, then notifies the authorities.
// A notification failure is logged and never fails the submission.
func (s *IssueService) Create(ctx context.Context, req dto.CreateIssueRequest, photo *dto.PhotoUpload) (*models.Issue, error) {
	req.Normalize()
	err := validateStruct(s.validator, req)
	if photo != nil && photo.Filename != "" {
		if !allowedPhotoExtensions[strings.ToLower(filepath.Ext(storage.SanitizeFilename(photo.Filename)))] {
			err = addFieldError(err, "photo", "Only image files are allowed!")
		}
	}
	lat, latErr := parseCoordinate(req.Latitude)
	if latErr != nil {
		err = addFieldError(err, "latitude", fieldMessages["latitude.latitude"])
	}
	lng, lngErr := parseCoordinate(req.Longitude)
	if lngErr != nil {
		err = addFieldError(err, "longitude", fieldMessages["longitude.longitude"])
	}
	if err != nil {
		return nil, dedupeDetails(err)
	}

	issue := &models.Issue{
		Name:        req.Name,
		Email:       req.Email,
		Category:    models.IssueCategory(req.Category),
		Priority:    models.PriorityMedium,
		Description: req.Description,
		Location:    req.Location,
		Latitude:    lat,
		Longitude:   lng,
		Status:      models.StatusSubmitted,
		CreatedAt:   s.now(),
	}

	if photo != nil && photo.Filename != "" {
		stored, err := s.photos.SaveStream(storage.UniqueName(photo.Filename), photo.Content)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store photo")
		}
		issue.PhotoFilename = &stored
	}

	if err := s.repo.Create(ctx, issue); err != nil {
		if issue.HasPhoto() {
			if delErr := s.photos.Delete(*issue.PhotoFilename); delErr != nil {
				s.logger.Warn("failed to remove orphaned photo", zap.String("photo", *issue.PhotoFilename), zap.Error(delErr))
			}
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to submit issue")
	}

	s.metrics.IssueCreated(issue.Category)
	s.cache.InvalidateIssueAggregates(ctx)
	s.logger.Info("issue submitted", zap.Int64("issue_id", issue.ID), zap.String("category", string(issue.Category)))

	if err := s.notifier.NotifyAuthorities(context.WithoutCancel(ctx), issue); err != nil {
		s.logger.Warn("authority notification failed", zap.Int64("issue_id", issue.ID), zap.Error(err))
		s.scheduleRetry(issue.ID)
	}
	return issue, nil
}

// UpdateStatus applies an admin triage edit. The reporter is mailed once when
// the status actually changed.
func (s *IssueService) UpdateStatus(ctx context.Context, id int64, req dto.UpdateIssueRequest) (*models.Issue, error) {
	if err := validateStruct(s.validator, req); err != nil {
		return nil, err
	}

	update := models.IssueUpdate{
		Status:     models.IssueStatus(req.Status),
		Priority:   models.IssuePriority(req.Priority),
		AdminNotes: optionalString(req.AdminNotes),
		AssignedTo: optionalString(req.AssignedTo),
	}
	previous, issue, err := s.repo.UpdateStatus(ctx, id, update, s.now())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "issue not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update issue")
	}

	s.cache.InvalidateIssueAggregates(ctx)
	if previous != issue.Status {
		s.metrics.StatusChanged(previous, issue.Status)
		s.notifier.NotifyReporter(context.WithoutCancel(ctx), issue, previous)
	}
	s.logger.Info("issue updated",
		zap.Int64("issue_id", issue.ID),
		zap.String("previous_status", string(previous)),
		zap.String("status", string(issue.Status)),
	)
	return issue, nil
}

// Get returns a single issue.
func (s *IssueService) Get(ctx context.Context, id int64) (*models.Issue, error) {
	issue, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "issue not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load issue")
	}
	return issue, nil
}

// List returns one page of issues for the query together with the status
// counters of the whole table.
func (s *IssueService) List(ctx context.Context, query dto.IssueListQuery) (*dto.IssueListResponse, *models.Pagination, error) {
	filter := FilterFromQuery(query)
	issues, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list issues")
	}
	counts, _, err := s.counts.StatusCounts(ctx)
	if err != nil {
		return nil, nil, err
	}

	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	if pagination.Page < 1 {
		pagination.Page = 1
	}
	if pagination.PageSize <= 0 || pagination.PageSize > 100 {
		pagination.PageSize = 20
	}
	return &dto.IssueListResponse{
		Issues: issues,
		Stats:  counts,
		Filters: dto.IssueFilters{
			Status:   filterEcho(query.Status),
			Category: filterEcho(query.Category),
			Priority: filterEcho(query.Priority),
		},
	}, pagination, nil
}

// ListAll returns every issue matching the query, newest first.
func (s *IssueService) ListAll(ctx context.Context, query dto.IssueListQuery) ([]models.Issue, error) {
	issues, err := s.repo.ListAll(ctx, FilterFromQuery(query))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list issues")
	}
	return issues, nil
}

// FilterFromQuery converts query-string filters; "all" and blank mean no filter.
func FilterFromQuery(query dto.IssueListQuery) models.IssueFilter {
	return models.IssueFilter{
		Status:   models.IssueStatus(filterValue(query.Status)),
		Category: models.IssueCategory(filterValue(query.Category)),
		Priority: models.IssuePriority(filterValue(query.Priority)),
		Page:     query.Page,
		PageSize: query.PageSize,
	}
}

func (s *IssueService) scheduleRetry(id int64) {
	if s.retry == nil {
		return
	}
	if err := s.retry.Enqueue(NotificationJob(id)); err != nil {
		s.logger.Warn("failed to queue notification retry", zap.Int64("issue_id", id), zap.Error(err))
	}
}

func filterValue(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.EqualFold(raw, filterAll) {
		return ""
	}
	return raw
}

func filterEcho(raw string) string {
	if v := filterValue(raw); v != "" {
		return v
	}
	return filterAll
}

func parseCoordinate(raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func optionalString(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

// dedupeDetails drops repeated messages for a field, such as the coordinate
// message raised by both the tag rule and the parser.
func dedupeDetails(err error) error {
	var appErr *appErrors.Error
	if !errors.As(err, &appErr) || appErr.Details == nil {
		return err
	}
	for field, messages := range appErr.Details {
		seen := make(map[string]bool, len(messages))
		unique := messages[:0]
		for _, m := range messages {
			if !seen[m] {
				seen[m] = true
				unique = append(unique, m)
			}
		}
		appErr.Details[field] = unique
	}
	return appErr
}
