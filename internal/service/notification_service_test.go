package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/civic-report-api/internal/models"
	"github.com/noah-isme/civic-report-api/pkg/mailer"
)

type recordingTransport struct {
	mu     sync.Mutex
	sent   []mailer.Message
	failOn string
	err    error
}

func (t *recordingTransport) Send(_ context.Context, msg mailer.Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil && (t.failOn == "" || t.failOn == msg.To) {
		return t.err
	}
	t.sent = append(t.sent, msg)
	return nil
}

func (t *recordingTransport) recipients() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.sent))
	for _, m := range t.sent {
		out = append(out, m.To)
	}
	return out
}

type notifyRepoStub struct {
	calls []int64
	at    time.Time
	err   error
}

func (s *notifyRepoStub) MarkNotified(_ context.Context, id int64, at time.Time) error {
	if s.err != nil {
		return s.err
	}
	s.calls = append(s.calls, id)
	s.at = at
	return nil
}

func sampleIssue(category models.IssueCategory) *models.Issue {
	created := time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)
	return &models.Issue{
		ID: 12, Name: "Asha", Email: "asha@example.com", Category: category,
		Priority: models.PriorityMedium, Status: models.StatusSubmitted,
		Description: "Deep pothole near the bus stop", Location: "Main Street 12",
		CreatedAt: created, UpdatedAt: created,
	}
}

func TestNotifyAuthoritiesPotholes(t *testing.T) {
	transport := &recordingTransport{}
	repo := &notifyRepoStub{}
	svc := NewNotificationService(repo, transport, nil, nil, "http://civic.test/", nil)
	issue := sampleIssue(models.CategoryPotholes)

	require.NoError(t, svc.NotifyAuthorities(context.Background(), issue))

	assert.Equal(t, []string{"roads.dept@civic.gov", "maintenance@city.gov"}, transport.recipients())
	assert.Equal(t, "New Civic Issue Reported - Potholes (#12)", transport.sent[0].Subject)
	assert.Contains(t, transport.sent[0].Body, "Latitude: Not provided")
	assert.Contains(t, transport.sent[0].Body, "Photo Evidence: None provided")
	assert.Contains(t, transport.sent[0].Body, "Reported on: January 15, 2024 at 02:30 PM")
	assert.Contains(t, transport.sent[0].Body, "http://civic.test/issue/12")
	assert.Equal(t, []int64{12}, repo.calls)
	assert.True(t, issue.AuthorityNotified)
	require.NotNil(t, issue.NotificationSentAt)
	assert.False(t, issue.NotificationSentAt.Before(issue.CreatedAt))
}

func TestNotifyAuthoritiesUnknownCategoryFallsBack(t *testing.T) {
	transport := &recordingTransport{}
	svc := NewNotificationService(&notifyRepoStub{}, transport, nil, nil, "http://civic.test", nil)

	require.NoError(t, svc.NotifyAuthorities(context.Background(), sampleIssue("parks")))
	assert.Equal(t, []string{"general@civic.gov", "admin@city.gov"}, transport.recipients())
}

func TestNotifyAuthoritiesStopsAtFirstFailure(t *testing.T) {
	transport := &recordingTransport{failOn: "infrastructure@city.gov", err: errors.New("connection refused")}
	repo := &notifyRepoStub{}
	svc := NewNotificationService(repo, transport, nil, nil, "http://civic.test", nil)
	issue := sampleIssue(models.CategoryRoads)

	err := svc.NotifyAuthorities(context.Background(), issue)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "infrastructure@city.gov")
	assert.Equal(t, []string{"roads.dept@civic.gov"}, transport.recipients())
	assert.Empty(t, repo.calls)
	assert.False(t, issue.AuthorityNotified)
	assert.Nil(t, issue.NotificationSentAt)
}

func TestNotifyAuthoritiesIncludesCoordinatesAndPhoto(t *testing.T) {
	transport := &recordingTransport{}
	svc := NewNotificationService(&notifyRepoStub{}, transport, nil, nil, "http://civic.test", nil)
	issue := sampleIssue(models.CategoryStreetLights)
	lat, lng, photo := 12.9716, 77.5946, "abc_lamp.jpg"
	issue.Latitude, issue.Longitude, issue.PhotoFilename = &lat, &lng, &photo

	require.NoError(t, svc.NotifyAuthorities(context.Background(), issue))
	body := transport.sent[0].Body
	assert.Contains(t, body, "Category: Street Lights")
	assert.Contains(t, body, "Latitude: 12.9716")
	assert.Contains(t, body, "Longitude: 77.5946")
	assert.Contains(t, body, "Photo Evidence: Available")
}

func TestNotifyReporterComposesStatusMail(t *testing.T) {
	transport := &recordingTransport{}
	svc := NewNotificationService(&notifyRepoStub{}, transport, nil, nil, "", nil)
	issue := sampleIssue(models.CategoryDrainage)
	issue.Status = models.StatusInProgress
	crew := "Crew 4"
	issue.AssignedTo = &crew

	svc.NotifyReporter(context.Background(), issue, models.StatusSubmitted)

	require.Len(t, transport.sent, 1)
	msg := transport.sent[0]
	assert.Equal(t, "asha@example.com", msg.To)
	assert.Equal(t, "Issue Status Update - #12", msg.Subject)
	assert.Contains(t, msg.Body, "Previous Status: Submitted")
	assert.Contains(t, msg.Body, "New Status: In Progress")
	assert.Contains(t, msg.Body, "Assigned to: Crew 4")
	assert.NotContains(t, msg.Body, "Admin Notes:")
}

func TestNotifyReporterSwallowsFailure(t *testing.T) {
	transport := &recordingTransport{err: errors.New("smtp down")}
	metrics := NewMetricsService()
	svc := NewNotificationService(&notifyRepoStub{}, transport, nil, metrics, "", nil)

	assert.NotPanics(t, func() {
		svc.NotifyReporter(context.Background(), sampleIssue(models.CategoryOther), models.StatusSubmitted)
	})
	assert.Equal(t, float64(1), counterValue(t, metrics, "civic_notifications_sent_total", map[string]string{"kind": "reporter", "result": "failure"}))
}

func TestNotifyAuthoritiesRetrySkipsReachedRecipients(t *testing.T) {
	transport := &recordingTransport{failOn: "maintenance@city.gov", err: errors.New("451 try later")}
	repo := &notifyRepoStub{}
	svc := NewNotificationService(repo, transport, nil, nil, "", nil)
	issue := sampleIssue(models.CategoryPotholes)

	require.Error(t, svc.NotifyAuthorities(context.Background(), issue))
	assert.Equal(t, []string{"roads.dept@civic.gov"}, transport.recipients())
	assert.False(t, issue.AuthorityNotified)

	transport.mu.Lock()
	transport.err = nil
	transport.mu.Unlock()

	require.NoError(t, svc.NotifyAuthorities(context.Background(), issue))
	assert.Equal(t, []string{"roads.dept@civic.gov", "maintenance@city.gov"}, transport.recipients())
	assert.True(t, issue.AuthorityNotified)
	assert.Empty(t, svc.delivered)
}
