package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/OldStager01/crop-advisor/internal/logger"
)

// quietPaths are polled constantly and only logged when they fail.
var quietPaths = []string{"/health/live", "/health/ready", "/swagger/"}

func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		if status < 400 && isQuiet(path) {
			return
		}

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		entry := logger.WithContext(c.Request.Context()).WithFields(map[string]interface{}{
			"status":     status,
			"method":     c.Request.Method,
			"route":      route,
			"path":       path,
			"latency_ms": time.Since(start).Milliseconds(),
			"bytes":      c.Writer.Size(),
			"ip":         c.ClientIP(),
		})

		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			entry.Error("Request failed")
		case status >= 400:
			entry.Warn("Request rejected")
		default:
			entry.Info("Request served")
		}
	}
}

func isQuiet(path string) bool {
	for _, p := range quietPaths {
		if path == p || (strings.HasSuffix(p, "/") && strings.HasPrefix(path, p)) {
			return true
		}
	}
	return false
}
