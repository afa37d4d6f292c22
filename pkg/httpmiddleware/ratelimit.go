package httpmiddleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimitConfig configures the sliding window rate limiter.
type RateLimitConfig struct {
	// Max is the number of requests allowed per Window.
	Max    int
	Window time.Duration
	// KeyFunc buckets requests. Defaults to ClientIP.
	KeyFunc func(*http.Request) string
}

// window counts requests in the current and the previous fixed window. The
// previous count is weighted by its overlap with the sliding window.
type window struct {
	start time.Time
	curr  float64
	prev  float64
}

type rateLimiter struct {
	max    int
	size   time.Duration
	keyFor func(*http.Request) string
	now    func() time.Time

	mu      sync.Mutex
	windows map[string]*window
}

func newRateLimiter(cfg RateLimitConfig) *rateLimiter {
	keyFor := cfg.KeyFunc
	if keyFor == nil {
		keyFor = ClientIP
	}
	return &rateLimiter{
		max:     cfg.Max,
		size:    cfg.Window,
		keyFor:  keyFor,
		now:     time.Now,
		windows: make(map[string]*window),
	}
}

// take consumes one request for key. It returns the remaining budget, the end
// of the current window and whether the request is allowed.
func (rl *rateLimiter) take(key string, now time.Time) (int, time.Time, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[key]
	if !ok {
		w = &window{start: now.Truncate(rl.size)}
		rl.windows[key] = w
	}
	switch elapsed := now.Sub(w.start); {
	case elapsed >= 2*rl.size:
		w.start, w.prev, w.curr = now.Truncate(rl.size), 0, 0
	case elapsed >= rl.size:
		w.start, w.prev, w.curr = w.start.Add(rl.size), w.curr, 0
	}

	weight := 1 - float64(now.Sub(w.start))/float64(rl.size)
	used := w.prev*max(weight, 0) + w.curr
	reset := w.start.Add(rl.size)
	if used >= float64(rl.max) {
		return 0, reset, false
	}
	w.curr++
	return max(int(float64(rl.max)-used-1), 0), reset, true
}

// evict drops keys idle for two windows.
func (rl *rateLimiter) evict(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, w := range rl.windows {
		if now.Sub(w.start) >= 2*rl.size {
			delete(rl.windows, key)
		}
	}
}

func (rl *rateLimiter) middleware() Middleware {
	limit := strconv.Itoa(rl.max)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			now := rl.now()
			remaining, reset, ok := rl.take(rl.keyFor(r), now)

			h := w.Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
			if !ok {
				retry := math.Ceil(max(reset.Sub(now), 0).Seconds())
				h.Set("Retry-After", strconv.Itoa(int(retry)))
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit enforces a per-key sliding window limit and answers 429 once it
// is exceeded. Idle keys are never evicted; see RateLimitWithCleanup.
func RateLimit(cfg RateLimitConfig) Middleware {
	return newRateLimiter(cfg).middleware()
}

// RateLimitWithCleanup is RateLimit plus a goroutine that evicts idle keys
// every two windows until ctx is done.
func RateLimitWithCleanup(ctx context.Context, cfg RateLimitConfig) Middleware {
	rl := newRateLimiter(cfg)
	go func() {
		ticker := time.NewTicker(2 * rl.size)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				rl.evict(now)
			}
		}
	}()
	return rl.middleware()
}

// ClientIP returns the first X-Forwarded-For hop, X-Real-IP, or the remote
// address host, in that order.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
