// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// WriteLimiterConfig bounds per-user write traffic.
type WriteLimiterConfig struct {
	Rate            rate.Limit    // writes per second per user
	Burst           int           // burst size per user
	CleanupInterval time.Duration // stale limiter sweep interval
}

// DefaultWriteLimiterConfig allows 60 writes/min with a burst of 10.
func DefaultWriteLimiterConfig() WriteLimiterConfig {
	return WriteLimiterConfig{
		Rate:            rate.Limit(60.0 / 60.0),
		Burst:           10,
		CleanupInterval: 5 * time.Minute,
	}
}

// NewWriteLimiterConfig builds a config from per-minute units.
func NewWriteLimiterConfig(perMinute, burst int) WriteLimiterConfig {
	cfg := DefaultWriteLimiterConfig()
	if perMinute > 0 {
		cfg.Rate = rate.Limit(float64(perMinute) / 60.0)
	}
	if burst > 0 {
		cfg.Burst = burst
	}
	return cfg
}

type userLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// WriteLimiter throttles the observation write path per user. Reads
// are left unthrottled; they are served from the result cache anyway.
type WriteLimiter struct {
	config WriteLimiterConfig

	mu       sync.Mutex
	limiters map[string]*userLimiter

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewWriteLimiter creates a limiter and starts its background sweep.
func NewWriteLimiter(config WriteLimiterConfig) *WriteLimiter {
	wl := &WriteLimiter{
		config:   config,
		limiters: make(map[string]*userLimiter),
		stopCh:   make(chan struct{}),
	}
	go wl.cleanupLoop()
	return wl
}

// Stop terminates the background sweep.
func (wl *WriteLimiter) Stop() {
	wl.stopOnce.Do(func() { close(wl.stopCh) })
}

// Middleware throttles mutating requests by the user_id the handler
// will act for. Non-mutating methods pass through untouched.
func (wl *WriteLimiter) Middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}

		// Throttle by remote address when the body has not been parsed
		// yet; user granularity is recovered via the header set by
		// well-behaved clients.
		key := r.Header.Get("X-User-ID")
		if key == "" {
			key = r.RemoteAddr
		}

		if !wl.allow(key) {
			retryAfter := int(math.Ceil(1.0 / float64(wl.config.Rate)))
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			writeError(w, http.StatusTooManyRequests, "rate_limit_exceeded", nil)
			return
		}

		next.ServeHTTP(w, r)
	}
}

// Len returns the number of tracked limiters, for tests and stats.
func (wl *WriteLimiter) Len() int {
	wl.mu.Lock()
	defer wl.mu.Unlock()
	return len(wl.limiters)
}

func (wl *WriteLimiter) allow(key string) bool {
	wl.mu.Lock()
	ul, ok := wl.limiters[key]
	if !ok {
		ul = &userLimiter{limiter: rate.NewLimiter(wl.config.Rate, wl.config.Burst)}
		wl.limiters[key] = ul
	}
	ul.lastAccess = time.Now()
	wl.mu.Unlock()
	return ul.limiter.Allow()
}

func (wl *WriteLimiter) cleanupLoop() {
	ticker := time.NewTicker(wl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			wl.cleanup()
		case <-wl.stopCh:
			return
		}
	}
}

// cleanup drops limiters idle for more than twice the sweep interval.
func (wl *WriteLimiter) cleanup() {
	ttl := wl.config.CleanupInterval * 2
	now := time.Now()

	wl.mu.Lock()
	for key, ul := range wl.limiters {
		if now.Sub(ul.lastAccess) > ttl {
			delete(wl.limiters, key)
		}
	}
	wl.mu.Unlock()
}
