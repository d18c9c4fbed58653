package middleware

import (
	"crypto/sha256"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/serenespa/membership/internal/http/response"
	"github.com/serenespa/membership/pkg/logger"
)

// RateLimitConfig defines rate limiting parameters
type RateLimitConfig struct {
	Requests int           // Max requests per window
	Window   time.Duration // Window duration
}

// RateLimiter is a fixed-window limiter on Redis, keyed by client IP.
// It fails open: a Redis outage must not block signups.
type RateLimiter struct {
	client *redis.Client
	cfg    RateLimitConfig
}

func NewRateLimiter(client *redis.Client, cfg RateLimitConfig) *RateLimiter {
	return &RateLimiter{client: client, cfg: cfg}
}

func (l *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)

		// Hash the key for privacy
		sum := sha256.Sum256([]byte(ip))
		key := fmt.Sprintf("ratelimit:%x:%d", sum[:8], time.Now().Unix()/int64(l.cfg.Window.Seconds()))

		count, err := l.client.Incr(r.Context(), key).Result()
		if err != nil {
			logger.WarnContext(r.Context(), "Rate limiter unavailable, allowing request", "error", err)
			next.ServeHTTP(w, r)
			return
		}
		if count == 1 {
			l.client.Expire(r.Context(), key, l.cfg.Window)
		}

		if count > int64(l.cfg.Requests) {
			response.RateLimit(w, "too many requests, try again later")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
