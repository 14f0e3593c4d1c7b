package middleware

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/civic-report-api/internal/service"
	appErrors "github.com/noah-isme/civic-report-api/pkg/errors"
	"github.com/noah-isme/civic-report-api/pkg/response"
)

const submitWindow = 24 * time.Hour

type counterStore interface {
	Enabled() bool
	Increment(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// SubmitRateLimiter caps public submissions per client IP per day. It is a
// no-op when the limit is not positive or Redis is absent, and fails open on
// Redis errors.
func SubmitRateLimiter(store counterStore, limit int, metrics *service.MetricsService, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		if limit <= 0 || store == nil || !store.Enabled() {
			c.Next()
			return
		}

		key := fmt.Sprintf("ratelimit:submit:%s", c.ClientIP())
		count, ttl, err := store.Increment(c.Request.Context(), key, submitWindow)
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.String("ip", c.ClientIP()), zap.Error(err))
			c.Next()
			return
		}

		if count > int64(limit) {
			if ttl <= 0 {
				ttl = submitWindow
			}
			retryAfter := int64(math.Ceil(ttl.Seconds()))
			metrics.SubmissionRateLimited()
			c.Header("Retry-After", strconv.FormatInt(retryAfter, 10))
			appErr := appErrors.Clone(appErrors.ErrRateLimited, "")
			appErr.Details = map[string][]string{"retry_after": {strconv.FormatInt(retryAfter, 10)}}
			response.Error(c, appErr)
			c.Abort()
			return
		}
		c.Next()
	}
}
