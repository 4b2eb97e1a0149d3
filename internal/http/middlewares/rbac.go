package middlewares

import (
	"net/http"

	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// RequireAdmin authenticates first, so it can be mounted on its own.
// 401 means we could not tell who the caller is; 403 means we could and
// the answer is no.
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.authenticate(c) {
			return
		}

		id, _ := IdentityFromContext(c)
		if id.Role != user.RoleAdmin {
			m.reject(c, "forbidden")
			abort(c, http.StatusForbidden, "forbidden", "Admin access required")
			return
		}
		c.Next()
	}
}

// RequireSelfOrAdmin lets admins through and regular users only when the
// :param route value is their own id. Mount after RequireAuth.
func RequireSelfOrAdmin(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFromContext(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "unauthorized", "Authentication required")
			return
		}

		if id.Role != user.RoleAdmin && id.ID != c.Param(param) {
			abort(c, http.StatusForbidden, "forbidden", "Not allowed to act on another user")
			return
		}
		c.Next()
	}
}
