package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/csrf"
	"golang.org/x/time/rate"
)

// visitorIdle is how long an IP's limiter is kept after its last request.
const visitorIdle = 5 * time.Minute

// RateLimiter is a per-IP token bucket limiter.
type RateLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	limit     rate.Limit
	burst     int
	lastPrune time.Time
	now       func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows perSecond sustained requests per IP with bursts of burst.
func NewRateLimiter(perSecond, burst int) *RateLimiter {
	if burst < perSecond {
		burst = perSecond
	}
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(perSecond),
		burst:    burst,
		now:      time.Now,
	}
}

// Allow checks if a request from the given IP is allowed.
// POST: Returns false once the IP's bucket is empty; idle IPs are pruned
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastPrune) > time.Minute {
		for key, v := range rl.visitors {
			if now.Sub(v.lastSeen) > visitorIdle {
				delete(rl.visitors, key)
			}
		}
		rl.lastPrune = now
	}

	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = now
	if !v.limiter.AllowN(now, 1) {
		slog.Warn("rate_limit_exceeded", "ip", ip)
		return false
	}
	return true
}

// Visitors returns how many IPs are currently tracked.
func (rl *RateLimiter) Visitors() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.visitors)
}

// RateLimit returns middleware that limits requests per client IP.
func RateLimit(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(ClientIP(r)) {
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the request's remote address without the port.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// SecurityHeaders adds OWASP recommended headers.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; script-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// CSRF returns a handler that protects form posts against CSRF attacks.
// JSON API requests (Content-Type: application/json) are exempted.
// PRE: authKey is 32 bytes
func CSRF(authKey []byte, secure bool, trustedOrigins []string) func(http.Handler) http.Handler {
	csrfProtect := csrf.Protect(
		authKey,
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.TrustedOrigins(trustedOrigins),
	)

	return func(next http.Handler) http.Handler {
		protected := csrfProtect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
				next.ServeHTTP(w, r)
				return
			}
			if !secure {
				r = csrf.PlaintextHTTPRequest(r)
			}
			protected.ServeHTTP(w, r)
		})
	}
}

// Chain applies middlewares in order; the last one is outermost.
func Chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for _, m := range middlewares {
		h = m(h)
	}
	return h
}
