package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/civic-report-api/internal/dto"
	"github.com/noah-isme/civic-report-api/internal/service"
	"github.com/noah-isme/civic-report-api/pkg/response"
)

type exportService interface {
	Export(ctx context.Context, query dto.ExportQuery) (*service.ExportFile, error)
}

// ExportHandler serves CSV and PDF exports of the admin listing.
type ExportHandler struct {
	exports exportService
}

// NewExportHandler constructs the export handler.
func NewExportHandler(exports exportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// Export godoc
// @Summary Export issues
// @Tags Admin
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf"
// @Param status query string false "Status filter or all"
// @Param category query string false "Category filter or all"
// @Param priority query string false "Priority filter or all"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /admin/issues/export [get]
func (h *ExportHandler) Export(c *gin.Context) {
	query := dto.ExportQuery{IssueListQuery: listQuery(c), Format: c.Query("format")}
	file, err := h.exports.Export(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", file.Filename))
	c.Header("X-Export-Rows", strconv.Itoa(file.Rows))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
