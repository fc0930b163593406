package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/osvaldoandrade/scanq/internal/metrics"
	"github.com/osvaldoandrade/scanq/internal/ratelimit"
	"github.com/osvaldoandrade/scanq/pkg/config"
)

func RateLimitSubmit(lim ratelimit.Limiter, cfg *config.Config) gin.HandlerFunc {
	bucket := ratelimit.Bucket{RequestsPerMinute: cfg.RateLimitPerMinute, BurstSize: cfg.RateLimitBurst}
	return rateLimitKeyed(lim, "submit", "submit", bucket)
}

func RateLimitAdminCleanup(lim ratelimit.Limiter, cfg *config.Config) gin.HandlerFunc {
	bucket := ratelimit.Bucket{RequestsPerMinute: cfg.RateLimitPerMinute, BurstSize: cfg.RateLimitBurst}
	return rateLimitKeyed(lim, "admin", "cleanup", bucket)
}

// rateLimitKeyed buckets by bearer token when present, client IP otherwise,
// so open dev submissions are still bounded per source.
func rateLimitKeyed(lim ratelimit.Limiter, scope string, operation string, bucket ratelimit.Bucket) gin.HandlerFunc {
	return func(c *gin.Context) {
		if lim == nil || !bucket.Enabled() {
			c.Next()
			return
		}

		subject := bearerToken(c.GetHeader("Authorization"))
		if subject == "" {
			subject = c.ClientIP()
		}

		dec, err := lim.Allow(c.Request.Context(), scope, subject, bucket)
		if err != nil {
			// Fail open to avoid turning Redis hiccups into outages.
			slog.Default().Warn("rate limit check failed", "scope", scope, "op", operation, "err", err)
			c.Next()
			return
		}
		if dec.Allowed {
			c.Next()
			return
		}

		retryAfterSeconds := int(dec.RetryAfter.Seconds())
		if retryAfterSeconds <= 0 {
			retryAfterSeconds = 1
		}
		c.Header("Retry-After", strconv.Itoa(retryAfterSeconds))
		metrics.RateLimitHitsTotal.WithLabelValues(scope, operation).Inc()
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"success":           false,
			"error":             "rate limit exceeded",
			"retryAfterSeconds": retryAfterSeconds,
		})
	}
}

func bearerToken(authHeader string) string {
	authHeader = strings.TrimSpace(authHeader)
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
