package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/civic-report-api/internal/middleware"
	"github.com/noah-isme/civic-report-api/internal/models"
	appErrors "github.com/noah-isme/civic-report-api/pkg/errors"
	"github.com/noah-isme/civic-report-api/pkg/response"
)

type analyticsService interface {
	Analytics(ctx context.Context) (*models.IssueAnalytics, bool, error)
	APIAnalytics(ctx context.Context) (*models.APIAnalytics, bool, error)
	SystemMetrics() models.AnalyticsSystemMetrics
}

// AnalyticsHandler exposes dashboard-ready analytics endpoints.
type AnalyticsHandler struct {
	analytics analyticsService
}

// NewAnalyticsHandler constructs the analytics handler.
func NewAnalyticsHandler(analytics analyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// Full godoc
// @Summary Issue analytics
// @Description Distributions, resolution rate, average resolution time and map points
// @Tags Analytics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /analytics [get]
func (h *AnalyticsHandler) Full(c *gin.Context) {
	if h.analytics == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	start := time.Now()
	result, cacheHit, err := h.analytics.Analytics(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	h.respond(c, result, cacheHit, start)
}

// API godoc
// @Summary Chart analytics
// @Description Status, category and priority distributions plus the monthly trend
// @Tags Analytics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /api/analytics [get]
func (h *AnalyticsHandler) API(c *gin.Context) {
	if h.analytics == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	start := time.Now()
	result, cacheHit, err := h.analytics.APIAnalytics(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	h.respond(c, result, cacheHit, start)
}

// System godoc
// @Summary Instrumentation snapshot
// @Tags Analytics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /analytics/system [get]
func (h *AnalyticsHandler) System(c *gin.Context) {
	if h.analytics == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	h.respond(c, h.analytics.SystemMetrics(), false, time.Now())
}

func (h *AnalyticsHandler) respond(c *gin.Context, data interface{}, cacheHit bool, start time.Time) {
	middleware.SetCacheHit(c, cacheHit)
	meta := responseMeta(c)
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, data, nil, meta)
}
