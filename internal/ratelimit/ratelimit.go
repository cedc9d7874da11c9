package ratelimit

import (
	"net"
	"net/http"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/time/rate"
)

type Limiter interface {
	Consume(key string) bool
}

type tokenBucketLimiter struct {
	limiterByKey    *ttlcache.Cache[string, *rate.Limiter]
	refillPerSecond int
	burstSize       int
}

func (l *tokenBucketLimiter) Consume(key string) bool {
	item, _ := l.limiterByKey.GetOrSet(key, rate.NewLimiter(rate.Limit(l.refillPerSecond), l.burstSize))
	return item.Value().Allow()
}

// NewTokenBucketLimiter keeps one bucket per key; idle buckets are evicted
// after 30 minutes. The returned func stops the eviction loop.
func NewTokenBucketLimiter(refillPerSecond, burstSize int) (Limiter, func()) {
	cache := ttlcache.New[string, *rate.Limiter](
		ttlcache.WithTTL[string, *rate.Limiter](30 * time.Minute),
	)
	go cache.Start()
	return &tokenBucketLimiter{
		limiterByKey:    cache,
		refillPerSecond: refillPerSecond,
		burstSize:       burstSize,
	}, cache.Stop
}

// IPKey keys requests by client address. RealIP middleware must run first.
func IPKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip: " + host
}

// Middleware rejects requests over the limit with 429.
func Middleware(l Limiter, keyFunc func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Consume(keyFunc(r)) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"rate limit exceeded"}` + "\n"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
