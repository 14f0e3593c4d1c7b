package models

import (
	"strings"
	"time"
)

// IssueStatus tracks where an issue is in its lifecycle.
type IssueStatus string

const (
	StatusSubmitted  IssueStatus = "submitted"
	StatusInProgress IssueStatus = "in_progress"
	StatusResolved   IssueStatus = "resolved"
	StatusRejected   IssueStatus = "rejected"
)

// IssueCategory selects the authorities notified for an issue.
type IssueCategory string

const (
	CategoryRoads           IssueCategory = "roads"
	CategoryPotholes        IssueCategory = "potholes"
	CategoryCleanliness     IssueCategory = "cleanliness"
	CategoryStreetLights    IssueCategory = "street_lights"
	CategoryWaterSupply     IssueCategory = "water_supply"
	CategoryDrainage        IssueCategory = "drainage"
	CategoryWasteManagement IssueCategory = "waste_management"
	CategoryTraffic         IssueCategory = "traffic"
	CategoryOther           IssueCategory = "other"
)

// IssuePriority is set by administrators during triage.
type IssuePriority string

const (
	PriorityLow    IssuePriority = "low"
	PriorityMedium IssuePriority = "medium"
	PriorityHigh   IssuePriority = "high"
	PriorityUrgent IssuePriority = "urgent"
)

var (
	IssueStatuses   = []IssueStatus{StatusSubmitted, StatusInProgress, StatusResolved, StatusRejected}
	IssuePriorities = []IssuePriority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}
	IssueCategories = []IssueCategory{
		CategoryRoads, CategoryPotholes, CategoryCleanliness, CategoryStreetLights,
		CategoryWaterSupply, CategoryDrainage, CategoryWasteManagement, CategoryTraffic, CategoryOther,
	}
)

// Valid reports whether the status belongs to the known set.
func (s IssueStatus) Valid() bool {
	for _, v := range IssueStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Valid reports whether the category belongs to the known set.
func (c IssueCategory) Valid() bool {
	for _, v := range IssueCategories {
		if v == c {
			return true
		}
	}
	return false
}

// Valid reports whether the priority belongs to the known set.
func (p IssuePriority) Valid() bool {
	for _, v := range IssuePriorities {
		if v == p {
			return true
		}
	}
	return false
}

// Title renders a stored value for humans: "street_lights" becomes "Street Lights".
func Title(value string) string {
	words := strings.Fields(strings.ReplaceAll(value, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

// Issue is a civic problem reported by a citizen. Issues are never deleted.
type Issue struct {
	ID                 int64         `db:"id" json:"id"`
	Name               string        `db:"name" json:"name"`
	Email              string        `db:"email" json:"email"`
	Category           IssueCategory `db:"category" json:"category"`
	Priority           IssuePriority `db:"priority" json:"priority"`
	Description        string        `db:"description" json:"description"`
	Location           string        `db:"location" json:"location"`
	Latitude           *float64      `db:"latitude" json:"latitude"`
	Longitude          *float64      `db:"longitude" json:"longitude"`
	PhotoFilename      *string       `db:"photo_filename" json:"photo_filename"`
	Status             IssueStatus   `db:"status" json:"status"`
	AdminNotes         *string       `db:"admin_notes" json:"admin_notes"`
	AssignedTo         *string       `db:"assigned_to" json:"assigned_to"`
	AuthorityNotified  bool          `db:"authority_notified" json:"authority_notified"`
	NotificationSentAt *time.Time    `db:"notification_sent_at" json:"notification_sent_at"`
	CreatedAt          time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time     `db:"updated_at" json:"updated_at"`
}

// HasPhoto reports whether photo evidence was stored.
func (i *Issue) HasPhoto() bool {
	return i.PhotoFilename != nil && *i.PhotoFilename != ""
}

// HasCoordinates reports whether both coordinates are present.
func (i *Issue) HasCoordinates() bool {
	return i.Latitude != nil && i.Longitude != nil
}

// IssueFilter scopes admin and public issue listings. Empty fields do not filter.
type IssueFilter struct {
	Status   IssueStatus
	Category IssueCategory
	Priority IssuePriority
	Page     int
	PageSize int
}

// StatusCounts summarises issues by status across the whole table.
type StatusCounts struct {
	Total      int `db:"total" json:"total"`
	Submitted  int `db:"submitted" json:"submitted"`
	InProgress int `db:"in_progress" json:"in_progress"`
	Resolved   int `db:"resolved" json:"resolved"`
	Rejected   int `db:"rejected" json:"rejected"`
}

// IssueUpdate carries the admin editable fields of an issue.
type IssueUpdate struct {
	Status     IssueStatus
	Priority   IssuePriority
	AdminNotes *string
	AssignedTo *string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
