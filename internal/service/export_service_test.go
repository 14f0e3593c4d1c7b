package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/civic-report-api/internal/dto"
	"github.com/noah-isme/civic-report-api/internal/models"
	appErrors "github.com/noah-isme/civic-report-api/pkg/errors"
)

type stubIssueLister struct {
	issues []models.Issue
	filter models.IssueFilter
	err    error
}

func (s *stubIssueLister) ListAll(_ context.Context, filter models.IssueFilter) ([]models.Issue, error) {
	s.filter = filter
	return s.issues, s.err
}

func exportIssues() []models.Issue {
	crew := "Crew 7"
	created := time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)
	return []models.Issue{
		{ID: 2, Name: "Ravi", Category: models.CategoryWaterSupply, Priority: models.PriorityHigh, Status: models.StatusInProgress,
			Location: "Ward 9", AssignedTo: &crew, AuthorityNotified: true, CreatedAt: created},
		{ID: 1, Name: "Asha", Category: models.CategoryPotholes, Priority: models.PriorityMedium, Status: models.StatusSubmitted,
			Location: "Main Street 12", CreatedAt: created.Add(-time.Hour)},
	}
}

func TestExportServiceGenerateCSV(t *testing.T) {
	lister := &stubIssueLister{issues: exportIssues()}
	svc := NewExportService(lister, nil)
	svc.now = func() time.Time { return time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC) }

	file, err := svc.Export(context.Background(), dto.ExportQuery{IssueListQuery: dto.IssueListQuery{Status: "all", Category: "water_supply"}})
	require.NoError(t, err)
	assert.Equal(t, "civic-issues-20240502-100000.csv", file.Filename)
	assert.Contains(t, file.ContentType, "text/csv")
	assert.Equal(t, 2, file.Rows)
	assert.Equal(t, models.IssueFilter{Category: models.CategoryWaterSupply}, lister.filter)

	records, err := csv.NewReader(bytes.NewReader(file.Data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, exportHeaders, records[0])
	assert.Equal(t, []string{"2", "2024-05-01 08:30", "Water Supply", "High", "In Progress", "Ward 9", "Ravi", "Crew 7", "Yes"}, records[1])
}

func TestExportServiceGeneratePDF(t *testing.T) {
	svc := NewExportService(&stubIssueLister{issues: exportIssues()}, nil)

	file, err := svc.Export(context.Background(), dto.ExportQuery{Format: "PDF"})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, bytes.HasPrefix(file.Data, []byte("%PDF")))
}

func TestExportServiceRejectsUnknownFormat(t *testing.T) {
	lister := &stubIssueLister{}
	svc := NewExportService(lister, nil)

	_, err := svc.Export(context.Background(), dto.ExportQuery{Format: "xlsx"})
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Details, "format")
}

func TestExportServiceListError(t *testing.T) {
	svc := NewExportService(&stubIssueLister{err: errors.New("db down")}, nil)

	_, err := svc.Export(context.Background(), dto.ExportQuery{})
	assert.True(t, errors.Is(err, appErrors.ErrInternal))
}
