package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// RequestLogger logs one line per request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("http request")
	}
}

// ErrorHandler middleware handles panics
func ErrorHandler() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Error().
			Interface("panic", recovered).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("panic recovered")

		msg := "An unexpected error occurred"
		if s, ok := recovered.(string); ok {
			msg = s
		}
		abortWithError(c, http.StatusInternalServerError, "INTERNAL_ERROR", msg)
	})
}

// RateLimiter applies a token bucket per client IP. Idle limiters expire after ten minutes.
func RateLimiter(limit rate.Limit, burst int) gin.HandlerFunc {
	limiters := cache.New(10*time.Minute, 20*time.Minute)
	return func(c *gin.Context) {
		ip := c.ClientIP()

		var limiter *rate.Limiter
		if val, found := limiters.Get(ip); found {
			limiter = val.(*rate.Limiter)
		} else {
			limiter = rate.NewLimiter(limit, burst)
			if err := limiters.Add(ip, limiter, cache.DefaultExpiration); err != nil {
				// Another request created it first.
				if val, found := limiters.Get(ip); found {
					limiter = val.(*rate.Limiter)
				}
			}
		}

		if !limiter.Allow() {
			c.Header("Retry-After", "1")
			abortWithError(c, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests")
			return
		}
		c.Next()
	}
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorDetail{Code: code, Message: message},
	})
}
