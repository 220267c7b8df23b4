package web

import (
	"crypto/rand"
	"log/slog"
	"net/http"
	"time"

	"gymhub/internal/adapters/email"
	"gymhub/internal/adapters/http/middleware"
	"gymhub/internal/adapters/http/perf"
	"gymhub/internal/adapters/photos"
	accountStore "gymhub/internal/adapters/storage/account"
	attendanceStore "gymhub/internal/adapters/storage/attendance"
	auditStore "gymhub/internal/adapters/storage/audit"
	branchStore "gymhub/internal/adapters/storage/branch"
	customerStore "gymhub/internal/adapters/storage/customer"
	featureFlagStore "gymhub/internal/adapters/storage/featureflag"
	reportStore "gymhub/internal/adapters/storage/report"
	scheduleStore "gymhub/internal/adapters/storage/schedule"
	trainerStore "gymhub/internal/adapters/storage/trainer"
)

// Stores holds all storage dependencies.
type Stores struct {
	AccountStore     accountStore.Store
	BranchStore      branchStore.Store
	FeatureFlagStore featureFlagStore.Store
	AuditStore       auditStore.Store
	CustomerStore    customerStore.Store
	TrainerStore     trainerStore.Store
	AttendanceStore  attendanceStore.Store
	ScheduleStore    scheduleStore.Store
	ReportStore      reportStore.Store
}

// Config carries everything NewMux needs besides the stores.
type Config struct {
	Collector *perf.Collector
	Photos    *photos.Store
	Email     email.Sender // nil skips welcome emails
	CSRFKey   []byte       // 32 bytes; empty generates a per-process key
	Secure    bool         // production: Secure cookies and strict CSRF origin checks
	BaseURL   string       // used in emailed login links
	RateLimit int          // requests per second per IP

	// SlowRequest is the latency logged as slow_request; zero uses the default.
	SlowRequest time.Duration

	// TrustedOrigins are extra host:port values accepted in the Origin
	// header of form posts, e.g. behind a reverse proxy.
	TrustedOrigins []string
}

// Global stores instance (set by NewMux)
var stores *Stores

// Global session store instance
var sessions *middleware.SessionStore

// RateLimitPerSecond is the per-IP limit used when Config.RateLimit is zero.
var RateLimitPerSecond = 10

// Global perf collector (set by NewMux)
var perfCollector *perf.Collector

// Global photo store (set by NewMux)
var photoStore *photos.Store

// Global email sender instance (set by NewMux)
var emailSender email.Sender

// baseURL prefixes links sent outside the app.
var baseURL string

// csrfKeyOrRandom returns key, or a random key when none is configured.
// Sessions signed with a random key do not survive a restart.
func csrfKeyOrRandom(key []byte) []byte {
	if len(key) == 32 {
		return key
	}
	key = make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		panic("failed to generate CSRF key: " + err.Error())
	}
	slog.Warn("config_event", "event", "random_csrf_key", "hint", "set GYM_CSRF_KEY so forms survive a restart")
	return key
}

// NewMux wires HTTP handlers for the app.
func NewMux(s *Stores, cfg Config) http.Handler {
	stores = s
	perfCollector = cfg.Collector
	photoStore = cfg.Photos
	emailSender = cfg.Email
	baseURL = cfg.BaseURL
	sessions = middleware.NewSessionStore()
	middleware.SecureCookies = cfg.Secure

	mux := http.NewServeMux()
	registerRoutes(mux)

	perSecond := cfg.RateLimit
	if perSecond <= 0 {
		perSecond = RateLimitPerSecond
	}
	limiter := middleware.NewRateLimiter(perSecond, perSecond*2)

	// Apply middleware: Timing -> RateLimit -> Auth -> CSRF -> SecurityHeaders -> Mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(csrfKeyOrRandom(cfg.CSRFKey), cfg.Secure, cfg.TrustedOrigins),
		middleware.Auth(sessions),
		middleware.RateLimit(limiter),
		middleware.Timing(cfg.Collector, cfg.SlowRequest),
	)
}
