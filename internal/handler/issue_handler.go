package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/civic-report-api/internal/dto"
	"github.com/noah-isme/civic-report-api/internal/middleware"
	"github.com/noah-isme/civic-report-api/internal/models"
	appErrors "github.com/noah-isme/civic-report-api/pkg/errors"
	"github.com/noah-isme/civic-report-api/pkg/response"
)

const (
	noticeSubmitted       = "Your issue has been submitted successfully! Authorities have been notified."
	noticeSubmittedQueued = "Your issue has been submitted successfully!"
	noticeUpdated         = "Issue updated successfully!"
	multipartMemory       = 8 << 20
)

type issueService interface {
	Create(ctx context.Context, req dto.CreateIssueRequest, photo *dto.PhotoUpload) (*models.Issue, error)
	UpdateStatus(ctx context.Context, id int64, req dto.UpdateIssueRequest) (*models.Issue, error)
	Get(ctx context.Context, id int64) (*models.Issue, error)
	List(ctx context.Context, query dto.IssueListQuery) (*dto.IssueListResponse, *models.Pagination, error)
	ListAll(ctx context.Context, query dto.IssueListQuery) ([]models.Issue, error)
}

type photoURLSigner interface {
	Generate(ownerID, relPath string) (string, time.Time, error)
}

// IssueHandler exposes submission, triage and listing endpoints.
type IssueHandler struct {
	service   issueService
	signer    photoURLSigner
	maxUpload int64
	logger    *zap.Logger
}

// NewIssueHandler constructs the handler. maxUpload bounds the request body in bytes.
func NewIssueHandler(service issueService, signer photoURLSigner, maxUpload int64, logger *zap.Logger) *IssueHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxUpload <= 0 {
		maxUpload = 16 << 20
	}
	return &IssueHandler{service: service, signer: signer, maxUpload: maxUpload, logger: logger}
}

// Submit godoc
// @Summary Report a civic issue
// @Tags Issues
// @Accept multipart/form-data
// @Produce json
// @Param name formData string true "Reporter name"
// @Param email formData string true "Reporter email"
// @Param category formData string true "Issue category"
// @Param description formData string true "Description"
// @Param location formData string true "Location"
// @Param latitude formData number false "Latitude"
// @Param longitude formData number false "Longitude"
// @Param photo formData file false "Photo evidence"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /submit_issue [post]
func (h *IssueHandler) Submit(c *gin.Context) {
	if c.Request.ContentLength > h.maxUpload {
		response.Error(c, appErrors.Clone(appErrors.ErrPayloadTooLarge, ""))
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
			h.bindError(c, err)
			return
		}
	}

	var req dto.CreateIssueRequest
	if err := c.ShouldBind(&req); err != nil {
		h.bindError(c, err)
		return
	}

	var photo *dto.PhotoUpload
	if header, err := c.FormFile("photo"); err == nil && header.Filename != "" {
		file, err := header.Open()
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read photo"))
			return
		}
		defer file.Close()
		photo = &dto.PhotoUpload{Filename: header.Filename, Size: header.Size, Content: file}
	}

	issue, err := h.service.Create(c.Request.Context(), req, photo)
	if err != nil {
		response.Error(c, err)
		return
	}

	notice := noticeSubmitted
	if !issue.AuthorityNotified {
		notice = noticeSubmittedQueued
	}
	middleware.SetNotice(c, notice)
	response.Created(c, h.detail(issue), responseMeta(c))
}

// Detail godoc
// @Summary Issue detail
// @Tags Issues
// @Produce json
// @Param id path int true "Issue ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /issue/{id} [get]
func (h *IssueHandler) Detail(c *gin.Context) {
	id, err := issueIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	issue, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, h.detail(issue), nil)
}

// Update godoc
// @Summary Triage an issue
// @Tags Issues
// @Accept x-www-form-urlencoded
// @Produce json
// @Param id path int true "Issue ID"
// @Param status formData string true "New status"
// @Param priority formData string true "Priority"
// @Param admin_notes formData string false "Admin notes"
// @Param assigned_to formData string false "Assignee"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /update_issue/{id} [post]
func (h *IssueHandler) Update(c *gin.Context) {
	id, err := issueIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UpdateIssueRequest
	if err := c.ShouldBind(&req); err != nil {
		h.bindError(c, err)
		return
	}

	issue, err := h.service.UpdateStatus(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if claims := claimsFromContext(c); claims != nil {
		h.logger.Info("issue updated by admin", zap.Int64("issue_id", id), zap.String("admin", claims.Username))
	}
	middleware.SetNotice(c, noticeUpdated)
	response.JSON(c, http.StatusOK, h.detail(issue), nil, responseMeta(c))
}

// AdminList godoc
// @Summary Admin issue listing
// @Tags Admin
// @Produce json
// @Param status query string false "Status filter or all"
// @Param category query string false "Category filter or all"
// @Param priority query string false "Priority filter or all"
// @Param page query int false "Page"
// @Success 200 {object} response.Envelope
// @Router /admin [get]
func (h *IssueHandler) AdminList(c *gin.Context) {
	result, pagination, err := h.service.List(c.Request.Context(), listQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	payload := dto.AdminDashboardResponse{IssueListResponse: *result}
	if claims := claimsFromContext(c); claims != nil {
		payload.Admin = models.AdminInfo{ID: claims.AdminID, Username: claims.Username, Role: claims.Role}
	}
	response.JSON(c, http.StatusOK, payload, pagination)
}

// PublicList godoc
// @Summary Public issue listing
// @Tags Issues
// @Produce json
// @Param status query string false "Status filter or all"
// @Param category query string false "Category filter or all"
// @Param priority query string false "Priority filter or all"
// @Param page query int false "Page"
// @Success 200 {object} response.Envelope
// @Router /all-issues [get]
func (h *IssueHandler) PublicList(c *gin.Context) {
	query := listQuery(c)
	query.PageSize = 0
	result, pagination, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.PublicIssuesResponse{IssueListResponse: *result}, pagination)
}

// APIIssues godoc
// @Summary Every issue as flat records
// @Tags API
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /api/issues [get]
func (h *IssueHandler) APIIssues(c *gin.Context) {
	issues, err := h.service.ListAll(c.Request.Context(), dto.IssueListQuery{})
	if err != nil {
		response.Error(c, err)
		return
	}
	out := make([]dto.IssueDict, 0, len(issues))
	for _, issue := range issues {
		out = append(out, dto.NewIssueDict(issue))
	}
	response.JSON(c, http.StatusOK, out, nil)
}

func (h *IssueHandler) detail(issue *models.Issue) dto.IssueDetailResponse {
	out := dto.IssueDetailResponse{Issue: *issue}
	if !issue.HasPhoto() || h.signer == nil {
		return out
	}
	token, expiresAt, err := h.signer.Generate(strconv.FormatInt(issue.ID, 10), *issue.PhotoFilename)
	if err != nil {
		h.logger.Warn("failed to sign photo url", zap.Int64("issue_id", issue.ID), zap.Error(err))
		return out
	}
	out.PhotoURL = "/uploads/" + token
	out.PhotoExpiresAt = &expiresAt
	return out
}

func (h *IssueHandler) bindError(c *gin.Context, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrPayloadTooLarge.Code, appErrors.ErrPayloadTooLarge.Status, appErrors.ErrPayloadTooLarge.Message))
		return
	}
	response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid form payload"))
}
