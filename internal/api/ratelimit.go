package api

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/hyperengineering/cellar/internal/observability"
)

// visitorTTL is how long an idle client's bucket is kept.
const visitorTTL = 3 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a per-client token bucket keyed by remote IP.
type RateLimiter struct {
	rate  rate.Limit
	burst int
	now   func() time.Time

	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
}

// NewRateLimiter allows perMinute requests per client, with bursts of up to
// burst requests. A non-positive perMinute disables limiting.
func NewRateLimiter(perMinute float64, burst int) *RateLimiter {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Limit(perMinute / 60)
	}
	return &RateLimiter{
		rate:     limit,
		burst:    max(1, burst),
		now:      time.Now,
		visitors: make(map[string]*visitor),
	}
}

// Allow reports whether the client may make a request now.
func (rl *RateLimiter) Allow(client string) bool {
	if rl.rate == rate.Inf {
		return true
	}

	rl.mu.Lock()
	now := rl.now()
	if now.Sub(rl.lastSweep) > time.Minute {
		for key, v := range rl.visitors {
			if now.Sub(v.lastSeen) > visitorTTL {
				delete(rl.visitors, key)
			}
		}
		rl.lastSweep = now
	}
	v, ok := rl.visitors[client]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.visitors[client] = v
	}
	v.lastSeen = now
	rl.mu.Unlock()

	return v.limiter.AllowN(now, 1)
}

// Middleware rejects requests over the limit with 429 Problem Details.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(clientKey(r)) {
			observability.RateLimited.WithLabelValues(r.URL.Path).Inc()
			slog.Warn("rate limited",
				"component", "api",
				"path", r.URL.Path,
				"remote_ip", r.RemoteAddr,
			)
			if rl.rate > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(int(max(1, 1/float64(rl.rate)))))
			}
			WriteProblem(w, r, http.StatusTooManyRequests, "Rate limit exceeded, try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientKey is the request's remote host. RealIP has already replaced
// RemoteAddr when the server runs behind a proxy.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
