package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/jonesrussell/north-cloud/prayerbook/internal/logger"
)

// LoggerMiddleware logs one entry per request with method, path, status,
// duration and client IP.
func LoggerMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		fields := []logger.Field{
			logger.String("method", c.Request.Method),
			logger.String("path", path),
			logger.Int("status", c.Writer.Status()),
			logger.Duration("duration", time.Since(start)),
			logger.String("client_ip", c.ClientIP()),
		}
		if query := c.Request.URL.RawQuery; query != "" {
			fields = append(fields, logger.String("query", query))
		}

		if len(c.Errors) > 0 {
			messages := make([]string, len(c.Errors))
			for i, err := range c.Errors {
				messages[i] = err.Err.Error()
			}
			fields = append(fields, logger.Strings("errors", messages))
			log.Error("HTTP request with errors", fields...)
			return
		}

		// Health probes are noisy at info.
		if strings.HasPrefix(path, "/health") || path == "/metrics" {
			log.Debug("HTTP request", fields...)
			return
		}
		log.Info("HTTP request", fields...)
	}
}

// RateLimitMiddleware rejects requests beyond rps per second with 429.
// A shared limiter is used for all clients.
func RateLimitMiddleware(rps, burst int, log logger.Logger) gin.HandlerFunc {
	if burst <= 0 {
		burst = rps
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			log.Warn("Rate limit exceeded",
				logger.String("path", c.Request.URL.Path),
				logger.String("client_ip", c.ClientIP()),
			)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
