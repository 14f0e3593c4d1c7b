package handler

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/civic-report-api/internal/middleware"
	"github.com/noah-isme/civic-report-api/internal/models"
	appErrors "github.com/noah-isme/civic-report-api/pkg/errors"
	"github.com/noah-isme/civic-report-api/pkg/response"
)

const (
	adminHomePath = "/admin"

	noticeLoggedIn     = "Successfully logged in!"
	noticeLoggedOut    = "You have been logged out."
	noticeAdminCreated = "Admin account created successfully! You can now log in."
)

type authService interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.Session, error)
	AdminExists(ctx context.Context) (bool, error)
	Bootstrap(ctx context.Context, req models.CreateAdminRequest) (*models.Admin, error)
}

// SessionCookie describes how the admin session cookie is written.
type SessionCookie struct {
	Name   string
	Secure bool
}

// AdminHandler serves login, logout and first-admin bootstrap.
type AdminHandler struct {
	auth   authService
	cookie SessionCookie
	logger *zap.Logger
}

// NewAdminHandler constructs the admin handler.
func NewAdminHandler(auth authService, cookie SessionCookie, logger *zap.Logger) *AdminHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cookie.Name == "" {
		cookie.Name = "civic_session"
	}
	return &AdminHandler{auth: auth, cookie: cookie, logger: logger}
}

// LoginPage godoc
// @Summary Login state
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Success 303 {object} response.Envelope
// @Router /admin/login [get]
func (h *AdminHandler) LoginPage(c *gin.Context) {
	if claimsFromContext(c) != nil {
		response.SeeOther(c, adminHomePath, nil)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"authenticated": false}, nil)
}

// Login godoc
// @Summary Authenticate an admin
// @Tags Admin
// @Accept x-www-form-urlencoded
// @Produce json
// @Param username formData string true "Username"
// @Param password formData string true "Password"
// @Param next query string false "Local path to continue to"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /admin/login [post]
func (h *AdminHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}

	session, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.setCookie(c, session.Token, session.ExpiresAt)
	middleware.SetNotice(c, noticeLoggedIn)
	response.JSON(c, http.StatusOK, gin.H{
		"redirect": safeRedirect(c.Query("next")),
		"admin":    session.Admin,
	}, nil, responseMeta(c))
}

// Logout godoc
// @Summary End the admin session
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/logout [get]
func (h *AdminHandler) Logout(c *gin.Context) {
	if claims := claimsFromContext(c); claims != nil {
		h.logger.Info("admin logged out", zap.String("admin", claims.Username))
	}
	h.clearCookie(c)
	middleware.SetNotice(c, noticeLoggedOut)
	response.JSON(c, http.StatusOK, gin.H{"redirect": middleware.LoginPath}, nil, responseMeta(c))
}

// CreatePage godoc
// @Summary Bootstrap availability
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Success 303 {object} response.Envelope
// @Router /admin/create [get]
func (h *AdminHandler) CreatePage(c *gin.Context) {
	exists, err := h.auth.AdminExists(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	if exists {
		response.SeeOther(c, middleware.LoginPath, adminExistsNotice())
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"admin_exists": false}, nil)
}

// Create godoc
// @Summary Create the first admin
// @Tags Admin
// @Accept x-www-form-urlencoded
// @Produce json
// @Param username formData string true "Username"
// @Param email formData string true "Email"
// @Param password formData string true "Password"
// @Success 201 {object} response.Envelope
// @Success 303 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/create [post]
func (h *AdminHandler) Create(c *gin.Context) {
	exists, err := h.auth.AdminExists(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	if exists {
		response.SeeOther(c, middleware.LoginPath, adminExistsNotice())
		return
	}

	var req models.CreateAdminRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid admin payload"))
		return
	}

	admin, err := h.auth.Bootstrap(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, appErrors.ErrAdminExists) {
			response.SeeOther(c, middleware.LoginPath, adminExistsNotice())
			return
		}
		response.Error(c, err)
		return
	}

	middleware.SetNotice(c, noticeAdminCreated)
	response.Created(c, admin, responseMeta(c))
}

func (h *AdminHandler) setCookie(c *gin.Context, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, token, maxAge, "/", "", h.cookie.Secure, true)
}

func (h *AdminHandler) clearCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, "", -1, "/", "", h.cookie.Secure, true)
}

func adminExistsNotice() *appErrors.Error {
	return appErrors.Clone(appErrors.ErrAdminExists, "Admin account already exists. Please contact an existing admin.")
}

// safeRedirect only accepts local absolute paths so a crafted next parameter
// cannot bounce the admin to another host.
func safeRedirect(next string) string {
	next = strings.TrimSpace(next)
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return adminHomePath
	}
	u, err := url.Parse(next)
	if err != nil || u.Host != "" || u.Scheme != "" {
		return adminHomePath
	}
	return next
}
