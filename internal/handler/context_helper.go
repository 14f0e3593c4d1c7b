package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/civic-report-api/internal/dto"
	"github.com/noah-isme/civic-report-api/internal/middleware"
	"github.com/noah-isme/civic-report-api/internal/models"
	appErrors "github.com/noah-isme/civic-report-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.SessionClaims {
	claims, ok := middleware.CurrentAdmin(c)
	if !ok {
		return nil
	}
	return claims
}

// issueIDParam reads the :id path segment. Anything but a positive integer is
// treated as a missing issue.
func issueIDParam(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrNotFound, "issue not found")
	}
	return id, nil
}

// listQuery reads listing filters; a malformed page falls back to the first page.
func listQuery(c *gin.Context) dto.IssueListQuery {
	return dto.IssueListQuery{
		Status:   strings.TrimSpace(c.Query("status")),
		Category: strings.TrimSpace(c.Query("category")),
		Priority: strings.TrimSpace(c.Query("priority")),
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 0),
	}
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func responseMeta(c *gin.Context) map[string]interface{} {
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	return meta
}
