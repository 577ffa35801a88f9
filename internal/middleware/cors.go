package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// CORSConfig holds the configuration for the CORS middleware.
type CORSConfig struct {
	// AllowOrigins lists origins permitted to make cross-origin requests.
	// ["*"] allows any origin; an empty list denies all of them.
	AllowOrigins []string

	// AllowMethods lists HTTP methods permitted for cross-origin requests.
	AllowMethods []string

	// AllowHeaders lists request headers permitted in cross-origin requests.
	AllowHeaders []string

	// AllowCredentials permits cookies and authorization headers on
	// cross-origin requests.
	AllowCredentials bool

	// MaxAge is the preflight cache lifetime in seconds, as a string.
	MaxAge string
}

// DefaultCORSConfig returns a permissive configuration for development use.
// The identity header is included so browser clients can send it cross-origin.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", "X-User-ID"},
		AllowCredentials: false,
		MaxAge:           "86400",
	}
}

// CORS returns a CORS middleware with DefaultCORSConfig.
func CORS() gin.HandlerFunc {
	return CORSWithConfig(DefaultCORSConfig())
}

// CORSWithConfig returns a gin middleware handling Cross-Origin Resource
// Sharing per the given configuration. Requests without an Origin header and
// requests from disallowed origins pass through without CORS headers.
func CORSWithConfig(cfg CORSConfig) gin.HandlerFunc {
	methods := strings.Join(cfg.AllowMethods, ", ")
	headers := strings.Join(cfg.AllowHeaders, ", ")
	wildcard := len(cfg.AllowOrigins) == 1 && cfg.AllowOrigins[0] == "*"

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}

		// Caches must key on Origin once responses vary by it.
		c.Writer.Header().Add("Vary", "Origin")

		allowed, reflect := resolveOrigin(cfg.AllowOrigins, origin, wildcard, cfg.AllowCredentials)
		if !allowed {
			c.Next()
			return
		}

		c.Header("Access-Control-Allow-Origin", reflect)
		c.Header("Access-Control-Allow-Methods", methods)
		c.Header("Access-Control-Allow-Headers", headers)
		c.Header("Access-Control-Max-Age", cfg.MaxAge)
		if cfg.AllowCredentials {
			c.Header("Access-Control-Allow-Credentials", "true")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// resolveOrigin decides whether the origin may proceed and which value to put
// in Access-Control-Allow-Origin. With credentials the wildcard is forbidden
// by the fetch standard, so the concrete origin is echoed instead.
func resolveOrigin(allowList []string, origin string, wildcard, credentials bool) (bool, string) {
	if wildcard {
		if credentials {
			return true, origin
		}
		return true, "*"
	}
	for _, a := range allowList {
		if a == "*" || a == origin {
			return true, origin
		}
	}
	return false, ""
}
