package dto

import (
	"io"
	"strings"
	"time"

	"github.com/noah-isme/civic-report-api/internal/models"
)

// CreateIssueRequest is the citizen report form. Coordinates arrive as the raw
// hidden-field strings and are parsed after validation.
type CreateIssueRequest struct {
	Name        string `form:"name" json:"name" validate:"required,min=2,max=100"`
	Email       string `form:"email" json:"email" validate:"required,email,max=120"`
	Category    string `form:"category" json:"category" validate:"required,issue_category"`
	Description string `form:"description" json:"description" validate:"required,min=10,max=1000"`
	Location    string `form:"location" json:"location" validate:"required,min=5,max=200"`
	Latitude    string `form:"latitude" json:"latitude" validate:"omitempty,latitude"`
	Longitude   string `form:"longitude" json:"longitude" validate:"omitempty,longitude"`
}

// Normalize trims surrounding whitespace so blank input fails the required
// and length rules.
func (r *CreateIssueRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Category = strings.TrimSpace(r.Category)
	r.Description = strings.TrimSpace(r.Description)
	r.Location = strings.TrimSpace(r.Location)
	r.Latitude = strings.TrimSpace(r.Latitude)
	r.Longitude = strings.TrimSpace(r.Longitude)
}

// PhotoUpload is an optional photo attached to a report.
type PhotoUpload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// UpdateIssueRequest is the admin triage form.
type UpdateIssueRequest struct {
	Status     string `form:"status" json:"status" validate:"required,issue_status"`
	Priority   string `form:"priority" json:"priority" validate:"required,issue_priority"`
	AdminNotes string `form:"admin_notes" json:"admin_notes" validate:"max=500"`
	AssignedTo string `form:"assigned_to" json:"assigned_to" validate:"max=100"`
}

// IssueListQuery carries listing filters as received on the query string.
// "all" and empty values mean no filter.
type IssueListQuery struct {
	Status   string `form:"status"`
	Category string `form:"category"`
	Priority string `form:"priority"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// IssueFilters echoes the applied filters back to clients.
type IssueFilters struct {
	Status   string `json:"status"`
	Category string `json:"category"`
	Priority string `json:"priority"`
}

// IssueListResponse is a page of issues with whole-table status counters.
type IssueListResponse struct {
	Issues  []models.Issue      `json:"issues"`
	Stats   models.StatusCounts `json:"stats"`
	Filters IssueFilters        `json:"filters"`
}

// IssueDetailResponse adds a short-lived photo link to an issue.
type IssueDetailResponse struct {
	models.Issue
	PhotoURL       string     `json:"photo_url,omitempty"`
	PhotoExpiresAt *time.Time `json:"photo_url_expires_at,omitempty"`
}

const legacyTimeLayout = "2006-01-02 15:04:05"

// IssueDict is the flat issue shape served by /api/issues.
type IssueDict struct {
	ID                 int64    `json:"id"`
	Name               string   `json:"name"`
	Email              string   `json:"email"`
	Category           string   `json:"category"`
	Description        string   `json:"description"`
	Location           string   `json:"location"`
	Latitude           *float64 `json:"latitude"`
	Longitude          *float64 `json:"longitude"`
	PhotoFilename      *string  `json:"photo_filename"`
	Status             string   `json:"status"`
	Priority           string   `json:"priority"`
	CreatedAt          string   `json:"created_at"`
	UpdatedAt          string   `json:"updated_at"`
	AdminNotes         *string  `json:"admin_notes"`
	AssignedTo         *string  `json:"assigned_to"`
	AuthorityNotified  bool     `json:"authority_notified"`
	NotificationSentAt *string  `json:"notification_sent_at"`
}

// NewIssueDict flattens an issue, rendering timestamps as UTC "YYYY-MM-DD HH:MM:SS".
func NewIssueDict(issue models.Issue) IssueDict {
	d := IssueDict{
		ID:                issue.ID,
		Name:              issue.Name,
		Email:             issue.Email,
		Category:          string(issue.Category),
		Description:       issue.Description,
		Location:          issue.Location,
		Latitude:          issue.Latitude,
		Longitude:         issue.Longitude,
		PhotoFilename:     issue.PhotoFilename,
		Status:            string(issue.Status),
		Priority:          string(issue.Priority),
		CreatedAt:         issue.CreatedAt.UTC().Format(legacyTimeLayout),
		UpdatedAt:         issue.UpdatedAt.UTC().Format(legacyTimeLayout),
		AdminNotes:        issue.AdminNotes,
		AssignedTo:        issue.AssignedTo,
		AuthorityNotified: issue.AuthorityNotified,
	}
	if issue.NotificationSentAt != nil {
		sent := issue.NotificationSentAt.UTC().Format(legacyTimeLayout)
		d.NotificationSentAt = &sent
	}
	return d
}
