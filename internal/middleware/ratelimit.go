package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/atinyakov/handmind/internal/httputil"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const rateLimitPrefix = "handmind:ratelimit:"

// RateLimiter caps requests per client IP in fixed windows counted in Redis,
// so the limit holds across server replicas.
type RateLimiter struct {
	client  redis.Cmdable
	limit   int64
	window  time.Duration
	metrics *Metrics
	logger  *zap.Logger
}

// NewRateLimiter creates a limiter allowing limit requests per window.
// metrics may be nil.
func NewRateLimiter(client redis.Cmdable, limit int, window time.Duration, metrics *Metrics, logger *zap.Logger) *RateLimiter {
	return &RateLimiter{client: client, limit: int64(limit), window: window, metrics: metrics, logger: logger}
}

// Handler rejects requests over the limit with 429. When Redis is unreachable
// requests are let through.
func (l *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := rateLimitPrefix + r.URL.Path + ":" + clientIP(r)

		var (
			incr *redis.IntCmd
			ttl  *redis.DurationCmd
		)
		_, err := l.client.TxPipelined(r.Context(), func(pipe redis.Pipeliner) error {
			incr = pipe.Incr(r.Context(), key)
			ttl = pipe.TTL(r.Context(), key)
			return nil
		})
		if err != nil {
			l.logger.Warn("rate limiter unavailable", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}
		count, remaining := incr.Val(), ttl.Val()

		// A key without expiry would count forever; (re)arm the window. A failed
		// EXPIRE is retried by the next request on the same key.
		if remaining < 0 {
			if err := l.client.Expire(r.Context(), key, l.window).Err(); err != nil {
				l.logger.Warn("failed to set rate limit window", zap.String("key", key), zap.Error(err))
			}
			remaining = l.window
		}

		if count > l.limit {
			w.Header().Set("Retry-After", strconv.Itoa(int(remaining.Round(time.Second)/time.Second)))
			if l.metrics != nil {
				l.metrics.RateLimited.WithLabelValues(r.URL.Path).Inc()
			}
			httputil.WriteErrorMessage(w, http.StatusTooManyRequests, "too many requests")
			return
		}

		w.Header().Set("X-RateLimit-Limit", fmt.Sprint(l.limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprint(l.limit-count))
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
