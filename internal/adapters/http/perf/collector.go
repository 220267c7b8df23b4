// Package perf keeps a bounded in-memory window of request and query
// timings for the admin performance page and mirrors every observation
// into Prometheus collectors served on /metrics.
package perf

import (
	"math"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultRingSize is the default capacity of the ring buffer.
const DefaultRingSize = 10000

// EntryKind distinguishes request vs query entries.
type EntryKind uint8

const (
	KindRequest EntryKind = iota
	KindQuery
)

// Entry is a single timing record stored in the ring buffer.
type Entry struct {
	Kind       EntryKind
	Path       string // "METHOD route" for requests, "VERB table" for queries
	StatusCode int    // 0 for queries
	DurationMs float64
	Timestamp  time.Time
}

// Collector is a fixed-size ring buffer of timing entries plus the
// Prometheus collectors fed from the same observations.
// Writes never block on readers; when full, the oldest entry is overwritten.
type Collector struct {
	mu      sync.Mutex
	entries []Entry
	pos     int
	count   atomic.Int64

	registry *prometheus.Registry
	requests *prometheus.HistogramVec
	queries  *prometheus.HistogramVec
	events   *prometheus.CounterVec
}

// NewCollector creates a collector with the given ring buffer capacity and
// its own Prometheus registry.
// POST: Returns a ready-to-use collector with pre-allocated storage
func NewCollector(size int) *Collector {
	if size <= 0 {
		size = DefaultRingSize
	}
	c := &Collector{
		entries:  make([]Entry, size),
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gymhub",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method, route and status code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "code"}),
		queries: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gymhub",
			Name:      "db_query_duration_seconds",
			Help:      "SQLite statement latency by verb and table.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"query"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gymhub",
			Name:      "events_total",
			Help:      "Attendance, scheduling and login events.",
		}, []string{"event"}),
	}
	c.registry.MustRegister(
		c.requests, c.queries, c.events,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Record appends an entry to the ring buffer and observes it in the
// matching histogram.
// POST: Entry stored; if buffer full, oldest entry overwritten
func (c *Collector) Record(e Entry) {
	c.mu.Lock()
	c.entries[c.pos] = e
	c.pos = (c.pos + 1) % len(c.entries)
	c.mu.Unlock()
	c.count.Add(1)

	seconds := e.DurationMs / 1000
	switch e.Kind {
	case KindRequest:
		c.requests.WithLabelValues(e.Path, strconv.Itoa(e.StatusCode)).Observe(seconds)
	case KindQuery:
		c.queries.WithLabelValues(e.Path).Observe(seconds)
	}
}

// Count adds n to the named domain event counter. A nil collector is a no-op.
func (c *Collector) Count(event string, n int) {
	if c == nil || n <= 0 {
		return
	}
	c.events.WithLabelValues(event).Add(float64(n))
}

// TotalRecorded returns the total number of entries ever recorded.
func (c *Collector) TotalRecorded() int64 {
	return c.count.Load()
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Registry exposes the underlying registry for tests and extra collectors.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Snapshot holds aggregated performance data computed on read.
type Snapshot struct {
	Since          time.Time
	TotalRecorded  int64
	Requests       int
	ServerErrors   int
	Queries        int
	RequestP50Ms   float64
	RequestP95Ms   float64
	RequestP99Ms   float64
	SlowestPaths   []PathStat
	SlowestQueries []PathStat
}

// PathStat aggregates timing for a single route or query label.
type PathStat struct {
	Path    string
	AvgMs   float64
	MaxMs   float64
	Count   int
	TotalMs float64
}

// Snapshot aggregates the buffered entries recorded at or after since.
// Sorting happens here, so callers should only use it on page loads.
// POST: SlowestPaths and SlowestQueries hold at most topN entries each
func (c *Collector) Snapshot(since time.Time, topN int) Snapshot {
	c.mu.Lock()
	buf := make([]Entry, len(c.entries))
	copy(buf, c.entries)
	c.mu.Unlock()

	snap := Snapshot{Since: since, TotalRecorded: c.TotalRecorded()}
	var durations []float64
	requests := map[string]*PathStat{}
	queries := map[string]*PathStat{}

	for _, e := range buf {
		if e.Timestamp.IsZero() || e.Timestamp.Before(since) {
			continue
		}
		switch e.Kind {
		case KindRequest:
			snap.Requests++
			if e.StatusCode >= 500 {
				snap.ServerErrors++
			}
			durations = append(durations, e.DurationMs)
			accumulate(requests, e)
		case KindQuery:
			snap.Queries++
			accumulate(queries, e)
		}
	}

	snap.SlowestPaths = topByAvg(requests, topN)
	snap.SlowestQueries = topByAvg(queries, topN)
	if len(durations) > 0 {
		sort.Float64s(durations)
		snap.RequestP50Ms = percentile(durations, 50)
		snap.RequestP95Ms = percentile(durations, 95)
		snap.RequestP99Ms = percentile(durations, 99)
	}
	return snap
}

func accumulate(stats map[string]*PathStat, e Entry) {
	s, ok := stats[e.Path]
	if !ok {
		s = &PathStat{Path: e.Path}
		stats[e.Path] = s
	}
	s.Count++
	s.TotalMs += e.DurationMs
	s.MaxMs = math.Max(s.MaxMs, e.DurationMs)
}

// percentile interpolates the p-th percentile of a sorted slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (p / 100) * float64(len(sorted)-1)
	lower := int(math.Floor(idx))
	upper := int(math.Ceil(idx))
	if lower == upper || upper >= len(sorted) {
		return sorted[lower]
	}
	frac := idx - float64(lower)
	return sorted[lower]*(1-frac) + sorted[upper]*frac
}

// topByAvg returns the n slowest entries by average duration.
func topByAvg(stats map[string]*PathStat, n int) []PathStat {
	list := make([]PathStat, 0, len(stats))
	for _, s := range stats {
		s.AvgMs = s.TotalMs / float64(s.Count)
		list = append(list, *s)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].AvgMs == list[j].AvgMs {
			return list[i].Path < list[j].Path
		}
		return list[i].AvgMs > list[j].AvgMs
	})
	if n >= 0 && len(list) > n {
		list = list[:n]
	}
	return list
}
