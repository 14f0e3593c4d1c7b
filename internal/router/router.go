// Package router assembles the gin engine: global middleware, the route table
// and the fallback handlers.
package router

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/civic-report-api/internal/handler"
	"github.com/noah-isme/civic-report-api/internal/middleware"
	"github.com/noah-isme/civic-report-api/internal/models"
	"github.com/noah-isme/civic-report-api/internal/service"
	appErrors "github.com/noah-isme/civic-report-api/pkg/errors"
	"github.com/noah-isme/civic-report-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/civic-report-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/civic-report-api/pkg/middleware/requestid"
	"github.com/noah-isme/civic-report-api/pkg/response"
)

type sessionValidator interface {
	ValidateToken(token string) (*models.SessionClaims, error)
}

type rateCounter interface {
	Enabled() bool
	Increment(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// Handlers groups the HTTP handlers mounted by New.
type Handlers struct {
	Issues    *handler.IssueHandler
	Admin     *handler.AdminHandler
	Analytics *handler.AnalyticsHandler
	Uploads   *handler.UploadHandler
	Export    *handler.ExportHandler
	Metrics   *handler.MetricsHandler
}

// Options configures the engine.
type Options struct {
	Handlers       Handlers
	Auth           sessionValidator
	CookieName     string
	AllowedOrigins []string
	RateCounter    rateCounter
	SubmitPerDay   int
	MetricsService *service.MetricsService
	Logger         *zap.Logger
	EnableDocs     bool
}

// New builds the gin engine with every route of the service.
func New(opts Options) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(opts.Logger))
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		opts.Logger.Error("panic recovered", zap.Any("panic", recovered), zap.String("path", c.Request.URL.Path))
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "An internal error occurred"))
		c.Abort()
	}))
	r.Use(corsmiddleware.New(opts.AllowedOrigins))
	r.Use(middleware.Metrics(opts.MetricsService))
	r.Use(middleware.WithResponseMeta())

	r.NoRoute(func(c *gin.Context) {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "Page not found"))
	})

	h := opts.Handlers
	session := middleware.Session(opts.Auth, opts.CookieName)
	optionalSession := middleware.OptionalSession(opts.Auth, opts.CookieName)
	submitLimit := middleware.SubmitRateLimiter(opts.RateCounter, opts.SubmitPerDay, opts.MetricsService, opts.Logger)

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)
	if opts.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	r.POST("/submit_issue", submitLimit, h.Issues.Submit)
	r.GET("/all-issues", h.Issues.PublicList)
	r.GET("/uploads/:token", h.Uploads.Serve)

	r.GET("/admin/login", optionalSession, h.Admin.LoginPage)
	r.POST("/admin/login", h.Admin.Login)
	r.GET("/admin/create", h.Admin.CreatePage)
	r.POST("/admin/create", h.Admin.Create)

	admin := r.Group("/", session)
	{
		admin.GET("/admin", h.Issues.AdminList)
		admin.GET("/admin/logout", h.Admin.Logout)
		admin.GET("/admin/issues/export", h.Export.Export)
		admin.GET("/issue/:id", h.Issues.Detail)
		admin.POST("/update_issue/:id", h.Issues.Update)
		admin.GET("/analytics", h.Analytics.Full)
		admin.GET("/analytics/system", h.Analytics.System)
	}

	api := r.Group("/api")
	{
		api.GET("/issues", h.Issues.APIIssues)
		api.GET("/analytics", session, h.Analytics.API)
	}

	return r
}
