package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"gymhub/internal/adapters/http/perf"
)

// DefaultSlowRequest is the latency above which a request is logged at WARN.
const DefaultSlowRequest = 200 * time.Millisecond

// UnmatchedRoute labels requests no route pattern matched.
const UnmatchedRoute = "unmatched"

// RequestIDHeader carries the request ID in and out.
const RequestIDHeader = "X-Request-ID"

const requestContextKey contextKey = "request"

// requestInfo is filled in as the request passes inward and read by Timing
// once the response is written.
type requestInfo struct {
	id       string
	route    string
	branchID string
	status   int
}

type statusWriter struct {
	http.ResponseWriter
	info *requestInfo
}

func (sw statusWriter) WriteHeader(code int) {
	sw.info.status = code
	sw.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (sw statusWriter) Unwrap() http.ResponseWriter {
	return sw.ResponseWriter
}

// Route records the matched mux pattern and the signed-in branch for Timing.
// Register every route through it so metrics are labelled by pattern
// instead of raw path, which would otherwise carry customer IDs.
// PRE: h is registered on an http.ServeMux (which sets r.Pattern)
func Route(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if info, ok := r.Context().Value(requestContextKey).(*requestInfo); ok {
			info.route = r.Pattern
			if id, ok := GetIdentity(r.Context()); ok {
				info.branchID = id.BranchID
			}
		}
		h.ServeHTTP(w, r)
	})
}

// RequestID returns the ID Timing assigned to the request, "" outside it.
func RequestID(ctx context.Context) string {
	if info, ok := ctx.Value(requestContextKey).(*requestInfo); ok {
		return info.id
	}
	return ""
}

// routeLabel turns a pattern into "METHOD /path".
func routeLabel(method, pattern string) string {
	switch {
	case pattern == "":
		return method + " " + UnmatchedRoute
	case strings.Contains(pattern, " "):
		return pattern
	default:
		return method + " " + pattern
	}
}

// Timing assigns each request an ID, logs its latency, and records it in
// collector (when non-nil) under the label set by Route. Requests at or
// above slow log at WARN, the rest at DEBUG. /static/ is not timed.
// A non-positive slow means DefaultSlowRequest.
func Timing(collector *perf.Collector, slow time.Duration) func(http.Handler) http.Handler {
	if slow <= 0 {
		slow = DefaultSlowRequest
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/static/") {
				next.ServeHTTP(w, r)
				return
			}

			info := &requestInfo{id: r.Header.Get(RequestIDHeader), status: http.StatusOK}
			if info.id == "" || len(info.id) > 64 {
				info.id = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, info.id)

			start := time.Now()
			next.ServeHTTP(statusWriter{ResponseWriter: w, info: info},
				r.WithContext(context.WithValue(r.Context(), requestContextKey, info)))
			elapsed := time.Since(start)

			label := routeLabel(r.Method, info.route)
			level := slog.LevelDebug
			msg := "request"
			if elapsed >= slow {
				level, msg = slog.LevelWarn, "slow_request"
			}
			slog.Log(r.Context(), level, msg,
				"request_id", info.id,
				"route", label,
				"path", r.URL.Path,
				"branch_id", info.branchID,
				"status", info.status,
				"duration_ms", float64(elapsed.Microseconds())/1000.0,
			)

			if collector != nil {
				collector.Record(perf.Entry{
					Kind:       perf.KindRequest,
					Path:       label,
					StatusCode: info.status,
					DurationMs: float64(elapsed.Microseconds()) / 1000.0,
					Timestamp:  start,
				})
			}
		})
	}
}
