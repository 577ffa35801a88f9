package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger returns a middleware that logs one line per request: method, path,
// query, status, latency, response size, and client IP. A nil logger falls
// back to slog.Default.
//
// Log records go through the context-aware slog entry points so the
// request_id attached by the RequestID middleware ends up on every line.
func Logger(log *slog.Logger) gin.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}

	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		attrs := []slog.Attr{
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.String("query", c.Request.URL.RawQuery),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.Int("size", c.Writer.Size()),
			slog.String("client_ip", c.ClientIP()),
		}

		log.LogAttrs(c.Request.Context(), levelForStatus(status), "request", attrs...)
	}
}

// levelForStatus picks the log level by response class: server errors are
// errors, client errors are warnings, everything else is informational.
func levelForStatus(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
