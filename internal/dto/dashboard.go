package dto

import "github.com/noah-isme/civic-report-api/internal/models"

// AdminDashboardResponse is the admin panel landing payload.
type AdminDashboardResponse struct {
	IssueListResponse
	Admin models.AdminInfo `json:"admin"`
}

// PublicIssuesResponse is the public listing payload.
type PublicIssuesResponse struct {
	IssueListResponse
}
