package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/geocoder89/taskhub/internal/actorctx"
	"github.com/geocoder89/taskhub/internal/auth"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (auth.Identity, error)
}

type AuthMiddleware struct {
	gate    Authenticator
	metrics Recorder
}

func NewAuthMiddleware(gate Authenticator, metrics Recorder) *AuthMiddleware {
	return &AuthMiddleware{gate: gate, metrics: metrics}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.authenticate(c) {
			c.Next()
		}
	}
}

// authenticate runs the gate and stashes the identity. It writes the
// response and returns false when the request must stop.
func (m *AuthMiddleware) authenticate(c *gin.Context) bool {
	raw := auth.ExtractToken(c.GetHeader("Authorization"))

	id, err := m.gate.Authenticate(c.Request.Context(), raw)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrNoToken):
			m.reject(c, "missing")
			abort(c, http.StatusUnauthorized, "unauthorized", "No token provided")
		case auth.IsRejection(err):
			m.reject(c, rejectionReason(err))
			abort(c, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
		default:
			slog.Default().ErrorContext(c.Request.Context(), "authentication failed", "err", err, "path", c.Request.URL.Path)
			abort(c, http.StatusInternalServerError, "internal_error", "Authentication failed")
		}
		return false
	}

	// Stash useful bits of identity on the context
	c.Set(CtxIdentity, id)
	c.Set(CtxRawToken, raw)
	c.Request = c.Request.WithContext(actorctx.WithIdentity(c.Request.Context(), id))

	return true
}

func (m *AuthMiddleware) reject(c *gin.Context, reason string) {
	if m.metrics != nil {
		m.metrics.AuthRejected(reason)
	}
	slog.Default().DebugContext(c.Request.Context(), "auth rejected", "reason", reason, "path", c.Request.URL.Path)
}

func rejectionReason(err error) string {
	if errors.Is(err, auth.ErrStaleToken) {
		return "revoked"
	}
	return "invalid"
}

// Optional helpers so handlers don't need to know the magic keys.

func IdentityFromContext(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(CtxIdentity)
	if !ok {
		return auth.Identity{}, false
	}
	id, ok := v.(auth.Identity)
	return id, ok && id.ID != ""
}

func UserIDFromContext(c *gin.Context) (string, bool) {
	id, ok := IdentityFromContext(c)
	return id.ID, ok
}

func TokenFromContext(c *gin.Context) (string, bool) {
	raw := c.GetString(CtxRawToken)
	return raw, raw != ""
}
