package middlewares

import (
	"log/slog"
	"net/http"

	"github.com/geocoder89/taskhub/internal/auth"
	"github.com/geocoder89/taskhub/internal/ratelimit"
	"github.com/gin-gonic/gin"
)

const (
	TierAnonymous     = "anonymous"
	TierAuthenticated = "authenticated"
)

// RateLimiter picks a quota pool per request before any authentication runs.
type RateLimiter struct {
	anon    ratelimit.Limiter
	authed  ratelimit.Limiter
	metrics Recorder
}

func NewRateLimiter(anon, authed ratelimit.Limiter, metrics Recorder) *RateLimiter {
	return &RateLimiter{anon: anon, authed: authed, metrics: metrics}
}

// RateLimitKey derives the bucket key from the path and the raw bearer
// token. The token is not verified here: a forged or malformed token still
// gets (and burns) its own bucket, so garbage tokens cannot skip the limit.
func RateLimitKey(path, token string) (key, tier string) {
	if token == "" {
		// every anonymous caller of an endpoint shares this one bucket
		return path + "-free-user", TierAnonymous
	}
	return path + "-logged-user-" + token, TierAuthenticated
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := auth.ExtractToken(c.GetHeader("Authorization"))
		key, tier := RateLimitKey(c.Request.URL.Path, token)

		limiter := rl.anon
		if tier == TierAuthenticated {
			limiter = rl.authed
		}

		ok, err := limiter.Limit(c.Request.Context(), key)
		if err != nil {
			slog.Default().ErrorContext(c.Request.Context(), "rate limiter failed", "tier", tier, "path", c.Request.URL.Path, "err", err)
			abort(c, http.StatusInternalServerError, "internal_error", "Internal server error")
			return
		}

		if !ok {
			if rl.metrics != nil {
				rl.metrics.RateLimited(tier)
			}
			abort(c, http.StatusTooManyRequests, "rate_limited", "Rate limit exceeded")
			return
		}

		c.Next()
	}
}
