package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/civic-report-api/internal/dto"
	"github.com/noah-isme/civic-report-api/internal/middleware"
	"github.com/noah-isme/civic-report-api/internal/models"
	appErrors "github.com/noah-isme/civic-report-api/pkg/errors"
)

type responseEnvelope struct {
	Data       map[string]interface{} `json:"data"`
	Error      map[string]interface{} `json:"error"`
	Pagination map[string]interface{} `json:"pagination"`
	Meta       map[string]interface{} `json:"meta"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

type fakeIssueSrv struct {
	created    *models.Issue
	createErr  error
	lastCreate dto.CreateIssueRequest
	photoName  string
	photoBody  string

	issue     *models.Issue
	getErr    error
	updateErr error
	lastID    int64
	lastEdit  dto.UpdateIssueRequest

	list      *dto.IssueListResponse
	lastQuery dto.IssueListQuery
	all       []models.Issue
}

func (f *fakeIssueSrv) Create(_ context.Context, req dto.CreateIssueRequest, photo *dto.PhotoUpload) (*models.Issue, error) {
	f.lastCreate = req
	if photo != nil {
		f.photoName = photo.Filename
		body, _ := io.ReadAll(photo.Content)
		f.photoBody = string(body)
	}
	return f.created, f.createErr
}

func (f *fakeIssueSrv) UpdateStatus(_ context.Context, id int64, req dto.UpdateIssueRequest) (*models.Issue, error) {
	f.lastID = id
	f.lastEdit = req
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return f.issue, nil
}

func (f *fakeIssueSrv) Get(_ context.Context, id int64) (*models.Issue, error) {
	f.lastID = id
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.issue, nil
}

func (f *fakeIssueSrv) List(_ context.Context, query dto.IssueListQuery) (*dto.IssueListResponse, *models.Pagination, error) {
	f.lastQuery = query
	return f.list, &models.Pagination{Page: query.Page, PageSize: 20, TotalCount: len(f.list.Issues)}, nil
}

func (f *fakeIssueSrv) ListAll(context.Context, dto.IssueListQuery) ([]models.Issue, error) {
	return f.all, nil
}

type fakeSigner struct{}

func (fakeSigner) Generate(ownerID, relPath string) (string, time.Time, error) {
	return ownerID + "." + relPath + ".sig", time.Date(2024, 1, 15, 15, 0, 0, 0, time.UTC), nil
}

func handlerIssue() *models.Issue {
	created := time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)
	return &models.Issue{
		ID: 12, Name: "Asha", Email: "asha@example.com", Category: models.CategoryPotholes,
		Priority: models.PriorityMedium, Description: "Deep pothole on main road", Location: "Main Street 12",
		Status: models.StatusSubmitted, AuthorityNotified: true, CreatedAt: created, UpdatedAt: created,
	}
}

func newTestContext(method, target string, body io.Reader) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(method, target, body)
	return c, rec
}

func TestIssueHandlerSubmitMultipartWithPhoto(t *testing.T) {
	srv := &fakeIssueSrv{created: handlerIssue()}
	handler := NewIssueHandler(srv, fakeSigner{}, 1<<20, nil)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	_ = writer.WriteField("name", "Asha")
	_ = writer.WriteField("email", "asha@example.com")
	_ = writer.WriteField("category", "potholes")
	_ = writer.WriteField("description", "Deep pothole on main road")
	_ = writer.WriteField("location", "Main Street 12")
	_ = writer.WriteField("latitude", "12.97")
	part, err := writer.CreateFormFile("photo", "hole.jpg")
	require.NoError(t, err)
	_, _ = part.Write([]byte("jpeg-bytes"))
	require.NoError(t, writer.Close())

	c, rec := newTestContext(http.MethodPost, "/submit_issue", &body)
	c.Request.Header.Set("Content-Type", writer.FormDataContentType())

	handler.Submit(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Asha", srv.lastCreate.Name)
	assert.Equal(t, "12.97", srv.lastCreate.Latitude)
	assert.Equal(t, "hole.jpg", srv.photoName)
	assert.Equal(t, "jpeg-bytes", srv.photoBody)

	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, noticeSubmitted, envelope.Meta["notice"])
	assert.EqualValues(t, 12, envelope.Data["id"])
}

func TestIssueHandlerSubmitURLEncodedWithoutNotification(t *testing.T) {
	issue := handlerIssue()
	issue.AuthorityNotified = false
	srv := &fakeIssueSrv{created: issue}
	handler := NewIssueHandler(srv, nil, 0, nil)

	form := url.Values{
		"name": {"Asha"}, "email": {"asha@example.com"}, "category": {"roads"},
		"description": {"Broken kerb near school"}, "location": {"School Road"},
	}
	c, rec := newTestContext(http.MethodPost, "/submit_issue", strings.NewReader(form.Encode()))
	c.Request.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	handler.Submit(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Empty(t, srv.photoName)
	assert.Equal(t, noticeSubmittedQueued, decodeEnvelope(t, rec).Meta["notice"])
}

func TestIssueHandlerSubmitValidationDetails(t *testing.T) {
	srv := &fakeIssueSrv{createErr: appErrors.Validation(map[string][]string{"email": {"Please enter a valid email"}})}
	handler := NewIssueHandler(srv, nil, 0, nil)

	c, rec := newTestContext(http.MethodPost, "/submit_issue", strings.NewReader("name=A"))
	c.Request.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	handler.Submit(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	envelope := decodeEnvelope(t, rec)
	details, ok := envelope.Error["details"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, details, "email")
}

func TestIssueHandlerSubmitRejectsOversizedBody(t *testing.T) {
	handler := NewIssueHandler(&fakeIssueSrv{}, nil, 64, nil)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, _ := writer.CreateFormFile("photo", "big.png")
	_, _ = part.Write(bytes.Repeat([]byte("x"), 4096))
	_ = writer.Close()

	c, rec := newTestContext(http.MethodPost, "/submit_issue", &body)
	c.Request.Header.Set("Content-Type", writer.FormDataContentType())

	handler.Submit(c)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestIssueHandlerDetailSignsPhoto(t *testing.T) {
	issue := handlerIssue()
	photo := "20240115_143000_hole.jpg"
	issue.PhotoFilename = &photo
	handler := NewIssueHandler(&fakeIssueSrv{issue: issue}, fakeSigner{}, 0, nil)

	c, rec := newTestContext(http.MethodGet, "/issue/12", nil)
	c.Params = gin.Params{{Key: "id", Value: "12"}}

	handler.Detail(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, "/uploads/12."+photo+".sig", envelope.Data["photo_url"])
	assert.NotNil(t, envelope.Data["photo_url_expires_at"])
}

func TestIssueHandlerDetailNotFound(t *testing.T) {
	srv := &fakeIssueSrv{getErr: appErrors.Clone(appErrors.ErrNotFound, "issue not found")}
	handler := NewIssueHandler(srv, fakeSigner{}, 0, nil)

	for _, raw := range []string{"abc", "0", "99"} {
		c, rec := newTestContext(http.MethodGet, "/issue/"+raw, nil)
		c.Params = gin.Params{{Key: "id", Value: raw}}

		handler.Detail(c)

		assert.Equal(t, http.StatusNotFound, rec.Code, raw)
	}
}

func TestIssueHandlerUpdate(t *testing.T) {
	issue := handlerIssue()
	issue.Status = models.StatusResolved
	srv := &fakeIssueSrv{issue: issue}
	handler := NewIssueHandler(srv, fakeSigner{}, 0, nil)

	form := url.Values{"status": {"resolved"}, "priority": {"high"}, "admin_notes": {"patched"}, "assigned_to": {"Crew 4"}}
	c, rec := newTestContext(http.MethodPost, "/update_issue/12", strings.NewReader(form.Encode()))
	c.Request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	c.Params = gin.Params{{Key: "id", Value: "12"}}
	c.Set(middleware.ContextAdminKey, &models.SessionClaims{AdminID: 1, Username: "admin"})

	handler.Update(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(12), srv.lastID)
	assert.Equal(t, "resolved", srv.lastEdit.Status)
	assert.Equal(t, "patched", srv.lastEdit.AdminNotes)
	assert.Equal(t, "Crew 4", srv.lastEdit.AssignedTo)
	assert.Equal(t, noticeUpdated, decodeEnvelope(t, rec).Meta["notice"])
}

func TestIssueHandlerUpdateMissingIssue(t *testing.T) {
	srv := &fakeIssueSrv{updateErr: appErrors.Clone(appErrors.ErrNotFound, "issue not found")}
	handler := NewIssueHandler(srv, nil, 0, nil)

	c, rec := newTestContext(http.MethodPost, "/update_issue/5", strings.NewReader("status=resolved&priority=low"))
	c.Request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	c.Params = gin.Params{{Key: "id", Value: "5"}}

	handler.Update(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIssueHandlerAdminListPassesFilters(t *testing.T) {
	srv := &fakeIssueSrv{list: &dto.IssueListResponse{
		Issues:  []models.Issue{*handlerIssue()},
		Stats:   models.StatusCounts{Total: 1, Submitted: 1},
		Filters: dto.IssueFilters{Status: "submitted", Category: "all", Priority: "all"},
	}}
	handler := NewIssueHandler(srv, nil, 0, nil)

	c, rec := newTestContext(http.MethodGet, "/admin?status=submitted&page=x", nil)
	c.Set(middleware.ContextAdminKey, &models.SessionClaims{AdminID: 3, Username: "ops", Role: models.RoleAdmin})

	handler.AdminList(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "submitted", srv.lastQuery.Status)
	assert.Equal(t, 1, srv.lastQuery.Page)

	envelope := decodeEnvelope(t, rec)
	admin, ok := envelope.Data["admin"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "ops", admin["username"])
	assert.NotNil(t, envelope.Pagination)
}

func TestIssueHandlerPublicListIgnoresPageSize(t *testing.T) {
	srv := &fakeIssueSrv{list: &dto.IssueListResponse{Issues: []models.Issue{}}}
	handler := NewIssueHandler(srv, nil, 0, nil)

	c, rec := newTestContext(http.MethodGet, "/all-issues?page=2&page_size=100", nil)

	handler.PublicList(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, srv.lastQuery.Page)
	assert.Zero(t, srv.lastQuery.PageSize)
}

func TestIssueHandlerAPIIssuesFlattens(t *testing.T) {
	srv := &fakeIssueSrv{all: []models.Issue{*handlerIssue()}}
	handler := NewIssueHandler(srv, nil, 0, nil)

	c, rec := newTestContext(http.MethodGet, "/api/issues", nil)

	handler.APIIssues(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data []map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, "2024-01-15 14:30:00", envelope.Data[0]["created_at"])
}

func TestIssueHandlerInternalErrorIsMasked(t *testing.T) {
	srv := &fakeIssueSrv{getErr: errors.New("pq: connection refused")}
	handler := NewIssueHandler(srv, nil, 0, nil)

	c, rec := newTestContext(http.MethodGet, "/issue/1", nil)
	c.Params = gin.Params{{Key: "id", Value: "1"}}

	handler.Detail(c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}
