package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	userIDHeader     = "X-User-ID"
	userIDContextKey = "user_id"
)

// Identity returns a gin middleware that resolves the acting user from the
// X-User-ID header set by the authenticating gateway in front of this
// service. Routes wrapped with it reject requests without a valid positive
// integer id; authorization decisions that depend on record state (buyer vs
// seller, transaction status) stay in the services.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(userIDHeader)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    http.StatusUnauthorized,
				"message": "missing " + userIDHeader + " header",
				"data":    nil,
			})
			return
		}

		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    http.StatusUnauthorized,
				"message": "invalid " + userIDHeader + " header",
				"data":    nil,
			})
			return
		}

		c.Set(userIDContextKey, uint(id))
		c.Next()
	}
}

// GetUserID extracts the acting user id set by Identity.
// The second return value is false when no identity is attached.
func GetUserID(c *gin.Context) (uint, bool) {
	v, exists := c.Get(userIDContextKey)
	if !exists {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}
