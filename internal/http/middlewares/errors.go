package middlewares

import (
	"github.com/gin-gonic/gin"
)

// Recorder receives admission and authentication outcomes. Nil is allowed.
type Recorder interface {
	AuthRejected(reason string)
	RateLimited(tier string)
}

// abort writes the same {success:false, error} body as handlers.RespondError.
func abort(c *gin.Context, status int, code, message string) {
	body := gin.H{
		"success": false,
		"error":   message,
		"code":    code,
	}

	if id := c.GetString(CtxRequestID); id != "" {
		body["requestId"] = id
	}

	c.AbortWithStatusJSON(status, body)
}
