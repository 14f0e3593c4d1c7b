package service

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/noah-isme/civic-report-api/internal/models"
	"github.com/noah-isme/civic-report-api/pkg/jobs"
)

// JobNotifyAuthorities re-sends the authority mail of one issue.
const JobNotifyAuthorities = "notify_authorities"

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

type issueFinder interface {
	FindByID(ctx context.Context, id int64) (*models.Issue, error)
}

type authorityNotifier interface {
	NotifyAuthorities(ctx context.Context, issue *models.Issue) error
}

// NotificationRetryWorker handles queued authority notifications.
type NotificationRetryWorker struct {
	issues   issueFinder
	notifier authorityNotifier
	logger   *zap.Logger
}

// NewNotificationRetryWorker constructs a worker.
func NewNotificationRetryWorker(issues issueFinder, notifier authorityNotifier, logger *zap.Logger) *NotificationRetryWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationRetryWorker{issues: issues, notifier: notifier, logger: logger}
}

// NotificationJob builds the queue job for an issue.
func NotificationJob(issueID int64) jobs.Job {
	return jobs.Job{ID: strconv.FormatInt(issueID, 10), Type: JobNotifyAuthorities, Payload: issueID}
}

// Handle processes a queue job. Issues that were notified in the meantime are skipped.
func (w *NotificationRetryWorker) Handle(ctx context.Context, job jobs.Job) error {
	if job.Type != JobNotifyAuthorities {
		return fmt.Errorf("unsupported job type %q", job.Type)
	}
	id, err := strconv.ParseInt(job.ID, 10, 64)
	if err != nil {
		return fmt.Errorf("parse issue id %q: %w", job.ID, err)
	}
	issue, err := w.issues.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load issue %d: %w", id, err)
	}
	if issue.AuthorityNotified {
		w.logger.Debug("issue already notified, skipping retry", zap.Int64("issue_id", id))
		return nil
	}
	if err := w.notifier.NotifyAuthorities(ctx, issue); err != nil {
		return err
	}
	w.logger.Info("authority notification retry succeeded", zap.Int64("issue_id", id), zap.Int("attempt", job.Attempt))
	return nil
}
