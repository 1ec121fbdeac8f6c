package server

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimiter - Token bucket per client address
type RateLimiter struct {
	visitors map[string]*visitor
	mu       sync.Mutex
	rate     int // tokens added per minute
	burst    int
}

type visitor struct {
	tokens     float64
	lastUpdate time.Time
}

// NewRateLimiter creates a per-IP limiter refilling rate tokens per minute
// up to burst.
func NewRateLimiter(rate, burst int) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		burst:    burst,
	}
	go rl.cleanupVisitors()
	return rl
}

// Allow consumes one token for the address if available.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	v, exists := rl.visitors[ip]
	if !exists {
		rl.visitors[ip] = &visitor{tokens: float64(rl.burst) - 1, lastUpdate: now}
		return true
	}

	elapsed := now.Sub(v.lastUpdate)
	v.tokens += elapsed.Minutes() * float64(rl.rate)
	if v.tokens > float64(rl.burst) {
		v.tokens = float64(rl.burst)
	}
	v.lastUpdate = now

	if v.tokens >= 1 {
		v.tokens--
		return true
	}
	return false
}

func (rl *RateLimiter) cleanupVisitors() {
	for {
		time.Sleep(time.Minute)
		rl.mu.Lock()
		for ip, v := range rl.visitors {
			if time.Since(v.lastUpdate) > time.Hour {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// RateLimit rejects over-limit clients with the standard error envelope.
func RateLimit(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !rl.Allow(ip) {
			zap.S().Warnw("rate limit exceeded", "ip", ip, "path", c.Request.URL.Path)
			fail(c, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Too many requests. Please slow down.")
			return
		}
		c.Next()
	}
}

// CORS builds the cross-origin policy from the configured origin list.
func CORS(allowedOrigins string) gin.HandlerFunc {
	conf := cors.DefaultConfig()
	if allowedOrigins == "" || allowedOrigins == "*" {
		conf.AllowAllOrigins = true
	} else {
		conf.AllowOrigins = strings.Split(allowedOrigins, ",")
	}
	conf.AllowMethods = []string{"GET", "OPTIONS"}
	return cors.New(conf)
}

// RequestLogger logs one line per request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		zap.S().Infow("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"ip", c.ClientIP(),
			"elapsed", time.Since(started),
		)
	}
}

// Recovery converts handler panics into a 500 envelope instead of killing
// the connection.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				zap.S().Errorw("handler panicked", "path", c.Request.URL.Path, "panic", r)
				fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
		}()
		c.Next()
	}
}
