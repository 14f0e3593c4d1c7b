package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/civic-report-api/internal/models"
	"github.com/noah-isme/civic-report-api/pkg/mailer"
)

const (
	mailTimeLayout = "January 02, 2006 at 03:04 PM"
	mailFooter     = "This is an automated notification from the Civic Issues Reporting System."
)

// AuthorityRecipients lists the departments mailed for each category.
var AuthorityRecipients = map[models.IssueCategory][]string{
	models.CategoryRoads:           {"roads.dept@civic.gov", "infrastructure@city.gov"},
	models.CategoryPotholes:        {"roads.dept@civic.gov", "maintenance@city.gov"},
	models.CategoryCleanliness:     {"sanitation@civic.gov", "health.dept@city.gov"},
	models.CategoryStreetLights:    {"electrical@civic.gov", "utilities@city.gov"},
	models.CategoryWaterSupply:     {"water.dept@civic.gov", "utilities@city.gov"},
	models.CategoryDrainage:        {"drainage@civic.gov", "water.dept@city.gov"},
	models.CategoryWasteManagement: {"waste@civic.gov", "sanitation@city.gov"},
	models.CategoryTraffic:         {"traffic@civic.gov", "police@city.gov"},
	models.CategoryOther:           {"general@civic.gov", "admin@city.gov"},
}

// RecipientsFor returns the authority addresses for a category, falling back
// to the "other" list for unknown values.
func RecipientsFor(category models.IssueCategory) []string {
	if recipients, ok := AuthorityRecipients[category]; ok {
		return recipients
	}
	return AuthorityRecipients[models.CategoryOther]
}

type notificationRepository interface {
	MarkNotified(ctx context.Context, id int64, at time.Time) error
}

// NotificationService composes and sends issue mail.
type NotificationService struct {
	repo          notificationRepository
	transport     mailer.Transport
	cache         *CacheService
	metrics       *MetricsService
	adminPanelURL string
	logger        *zap.Logger
	now           func() time.Time

	// delivered holds the authorities already mailed for issues whose
	// notification has not completed, so a retry skips them.
	mu        sync.Mutex
	delivered map[int64]map[string]bool
}

// NewNotificationService wires the dispatcher.
func NewNotificationService(repo notificationRepository, transport mailer.Transport, cache *CacheService, metrics *MetricsService, adminPanelURL string, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		repo:          repo,
		transport:     transport,
		cache:         cache,
		metrics:       metrics,
		adminPanelURL: strings.TrimRight(adminPanelURL, "/"),
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
		delivered:     make(map[int64]map[string]bool),
	}
}

// NotifyAuthorities mails every authority responsible for the issue category.
// The first failed send aborts and is returned; on success the issue is
// flagged as notified both in storage and in memory. Authorities reached by
// an earlier, partially failed call are not mailed again.
func (s *NotificationService) NotifyAuthorities(ctx context.Context, issue *models.Issue) error {
	recipients := RecipientsFor(issue.Category)
	subject := fmt.Sprintf("New Civic Issue Reported - %s (#%d)", models.Title(string(issue.Category)), issue.ID)
	body := s.authorityBody(issue)

	for _, to := range recipients {
		if s.wasDelivered(issue.ID, to) {
			continue
		}
		err := s.transport.Send(ctx, mailer.Message{To: to, Subject: subject, Body: body})
		s.metrics.NotificationSent(NotificationKindAuthority, err)
		if err != nil {
			return fmt.Errorf("send authority notification to %s: %w", to, err)
		}
		s.markDelivered(issue.ID, to)
	}

	sentAt := s.now()
	if err := s.repo.MarkNotified(ctx, issue.ID, sentAt); err != nil {
		return fmt.Errorf("mark issue notified: %w", err)
	}
	s.forgetDelivered(issue.ID)
	issue.AuthorityNotified = true
	issue.NotificationSentAt = &sentAt
	s.cache.InvalidateIssueAggregates(ctx)

	s.logger.Info("authority notification sent",
		zap.Int64("issue_id", issue.ID),
		zap.Int("recipients", len(recipients)),
	)
	return nil
}

func (s *NotificationService) wasDelivered(issueID int64, to string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.delivered[issueID][to]
}

func (s *NotificationService) markDelivered(issueID int64, to string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.delivered[issueID] == nil {
		s.delivered[issueID] = make(map[string]bool)
	}
	s.delivered[issueID][to] = true
}

func (s *NotificationService) forgetDelivered(issueID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.delivered, issueID)
}

// NotifyReporter tells the reporter about a status change. Failures are logged.
func (s *NotificationService) NotifyReporter(ctx context.Context, issue *models.Issue, previous models.IssueStatus) {
	msg := mailer.Message{
		To:      issue.Email,
		Subject: fmt.Sprintf("Issue Status Update - #%d", issue.ID),
		Body:    statusUpdateBody(issue, previous),
	}
	err := s.transport.Send(ctx, msg)
	s.metrics.NotificationSent(NotificationKindReporter, err)
	if err != nil {
		s.logger.Error("status update notification failed", zap.Int64("issue_id", issue.ID), zap.Error(err))
		return
	}
	s.logger.Info("status update notification sent", zap.Int64("issue_id", issue.ID), zap.String("to", issue.Email))
}

func (s *NotificationService) authorityBody(issue *models.Issue) string {
	var b strings.Builder
	b.WriteString("New civic issue has been reported and requires attention:\n\n")
	fmt.Fprintf(&b, "Issue ID: #%d\n", issue.ID)
	fmt.Fprintf(&b, "Category: %s\n", models.Title(string(issue.Category)))
	fmt.Fprintf(&b, "Priority: %s\n", models.Title(string(issue.Priority)))
	fmt.Fprintf(&b, "Status: %s\n\n", models.Title(string(issue.Status)))

	b.WriteString("Reporter Information:\n")
	fmt.Fprintf(&b, "Name: %s\n", issue.Name)
	fmt.Fprintf(&b, "Email: %s\n\n", issue.Email)

	b.WriteString("Issue Details:\n")
	fmt.Fprintf(&b, "Location: %s\n", issue.Location)
	fmt.Fprintf(&b, "Description: %s\n\n", issue.Description)

	b.WriteString("Coordinates:\n")
	fmt.Fprintf(&b, "Latitude: %s\n", coordinate(issue.Latitude))
	fmt.Fprintf(&b, "Longitude: %s\n\n", coordinate(issue.Longitude))

	photo := "None provided"
	if issue.HasPhoto() {
		photo = "Available"
	}
	fmt.Fprintf(&b, "Photo Evidence: %s\n\n", photo)
	fmt.Fprintf(&b, "Reported on: %s\n\n", issue.CreatedAt.Format(mailTimeLayout))

	b.WriteString("Please log into the admin panel to review and update this issue:\n")
	fmt.Fprintf(&b, "%s/issue/%d\n\n", s.adminPanelURL, issue.ID)
	b.WriteString(mailFooter + "\n")
	return b.String()
}

func statusUpdateBody(issue *models.Issue, previous models.IssueStatus) string {
	var b strings.Builder
	b.WriteString("Your reported civic issue has been updated:\n\n")
	fmt.Fprintf(&b, "Issue ID: #%d\n", issue.ID)
	fmt.Fprintf(&b, "Category: %s\n", models.Title(string(issue.Category)))
	fmt.Fprintf(&b, "Location: %s\n\n", issue.Location)

	b.WriteString("Status Update:\n")
	fmt.Fprintf(&b, "Previous Status: %s\n", models.Title(string(previous)))
	fmt.Fprintf(&b, "New Status: %s\n", models.Title(string(issue.Status)))
	fmt.Fprintf(&b, "Priority: %s\n\n", models.Title(string(issue.Priority)))

	extra := false
	if issue.AssignedTo != nil && *issue.AssignedTo != "" {
		fmt.Fprintf(&b, "Assigned to: %s\n", *issue.AssignedTo)
		extra = true
	}
	if issue.AdminNotes != nil && *issue.AdminNotes != "" {
		fmt.Fprintf(&b, "Admin Notes: %s\n", *issue.AdminNotes)
		extra = true
	}
	if extra {
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Updated on: %s\n\n", issue.UpdatedAt.Format(mailTimeLayout))
	b.WriteString("Thank you for reporting this issue. We will continue to keep you updated on its progress.\n\n")
	b.WriteString(mailFooter + "\n")
	return b.String()
}

func coordinate(v *float64) string {
	if v == nil {
		return "Not provided"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
