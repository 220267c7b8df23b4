package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// TestRateLimiter_PerIP verifies buckets are independent per IP and refill.
func TestRateLimiter_PerIP(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, 2)
	rl.now = func() time.Time { return now }

	if !rl.Allow("10.0.0.1") || !rl.Allow("10.0.0.1") {
		t.Fatal("first two requests rejected")
	}
	if rl.Allow("10.0.0.1") {
		t.Error("third request in the same instant allowed")
	}
	if !rl.Allow("10.0.0.2") {
		t.Error("other IP rejected")
	}

	now = now.Add(time.Second)
	if !rl.Allow("10.0.0.1") {
		t.Error("request after refill rejected")
	}
}

// TestRateLimiter_PrunesIdle verifies idle visitors are dropped.
func TestRateLimiter_PrunesIdle(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(5, 5)
	rl.now = func() time.Time { return now }
	rl.Allow("10.0.0.1")
	rl.Allow("10.0.0.2")

	now = now.Add(visitorIdle + time.Minute)
	rl.Allow("10.0.0.3")
	if n := rl.Visitors(); n != 1 {
		t.Errorf("Visitors = %d, want 1", n)
	}
}

// TestRateLimit_StripsPort verifies connections from one host share a bucket.
func TestRateLimit_StripsPort(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	handler := RateLimit(rl)(okHandler())

	codes := []int{}
	for _, addr := range []string{"192.0.2.7:5000", "192.0.2.7:5001"} {
		req := httptest.NewRequest("GET", "/", nil)
		req.RemoteAddr = addr
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [200 429]", codes)
	}
}

// TestSecurityHeaders verifies the headers are set.
func TestSecurityHeaders(t *testing.T) {
	rr := httptest.NewRecorder()
	SecurityHeaders(okHandler()).ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	for _, h := range []string{"Content-Security-Policy", "X-Frame-Options", "X-Content-Type-Options", "Referrer-Policy"} {
		if rr.Header().Get(h) == "" {
			t.Errorf("%s not set", h)
		}
	}
}

// TestCSRF verifies form posts need a token and JSON posts are exempt.
func TestCSRF(t *testing.T) {
	key := []byte(strings.Repeat("k", 32))
	handler := CSRF(key, false, nil)(okHandler())

	form := httptest.NewRequest("POST", "/customers", strings.NewReader("name=Ana"))
	form.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, form)
	if rr.Code != http.StatusForbidden {
		t.Errorf("form without token = %d, want 403", rr.Code)
	}

	jsonReq := httptest.NewRequest("POST", "/calendar/events", strings.NewReader("{}"))
	jsonReq.Header.Set("Content-Type", "application/json")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, jsonReq)
	if rr.Code != http.StatusOK {
		t.Errorf("json post = %d, want 200", rr.Code)
	}
}

// TestChain verifies the last middleware runs first.
func TestChain(t *testing.T) {
	var order []string
	mw := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	Chain(okHandler(), mw("inner"), mw("outer")).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	if strings.Join(order, ",") != "outer,inner" {
		t.Errorf("order = %v", order)
	}
}
