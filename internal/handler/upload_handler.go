package handler

import (
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/civic-report-api/pkg/errors"
	"github.com/noah-isme/civic-report-api/pkg/response"
)

type photoTokenParser interface {
	Parse(token string) (ownerID, relPath string, err error)
}

type photoOpener interface {
	Open(name string) (*os.File, error)
}

// UploadHandler streams stored photos addressed by signed tokens.
type UploadHandler struct {
	signer photoTokenParser
	files  photoOpener
	logger *zap.Logger
}

// NewUploadHandler constructs the upload handler.
func NewUploadHandler(signer photoTokenParser, files photoOpener, logger *zap.Logger) *UploadHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UploadHandler{signer: signer, files: files, logger: logger}
}

// Serve godoc
// @Summary Download an issue photo
// @Tags Issues
// @Produce octet-stream
// @Param token path string true "Signed photo token"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /uploads/{token} [get]
func (h *UploadHandler) Serve(c *gin.Context) {
	notFound := appErrors.Clone(appErrors.ErrNotFound, "photo not found")

	ownerID, name, err := h.signer.Parse(c.Param("token"))
	if err != nil {
		h.logger.Debug("rejected photo token", zap.Error(err))
		response.Error(c, notFound)
		return
	}

	file, err := h.files.Open(name)
	if err != nil {
		h.logger.Warn("photo unavailable", zap.String("issue_id", ownerID), zap.String("file", name), zap.Error(err))
		response.Error(c, notFound)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil || info.IsDir() {
		response.Error(c, notFound)
		return
	}

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Cache-Control", "private, max-age=300")
	c.DataFromReader(http.StatusOK, info.Size(), contentType, file, map[string]string{
		"Content-Disposition": "inline; filename=\"" + filepath.Base(name) + "\"",
	})
}
