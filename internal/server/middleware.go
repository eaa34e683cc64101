package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sparkmatch/discovery/internal/logger"
)

const userIDKey = "auth_user_id"

// UserIDHeader carries the caller identity resolved by the gateway's auth
// service. The gateway strips any client-supplied value before setting it.
const UserIDHeader = "X-User-ID"

// RequestLogger tags each request with a uuid and logs method, path,
// status and latency on completion.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := uuid.New().String()
		c.Header("X-Request-ID", requestID)

		c.Next()

		logger.L().Info("request completed",
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

// RequireIdentity rejects requests without a resolved caller identity.
// Authentication itself is the gateway's job; this only enforces that the
// identity header arrived and parses.
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(UserIDHeader)
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"kind":    "unauthorized",
					"message": "missing or invalid caller identity",
				},
			})
			return
		}
		c.Set(userIDKey, id)
		c.Next()
	}
}

// UserID returns the authenticated caller id set by RequireIdentity.
func UserID(c *gin.Context) uint64 {
	if v, ok := c.Get(userIDKey); ok {
		if id, ok := v.(uint64); ok {
			return id
		}
	}
	return 0
}
