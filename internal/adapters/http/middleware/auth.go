package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"gymhub/internal/domain/featureflag"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const identityContextKey contextKey = "identity"

// SessionTTL is how long a session lives after login.
const SessionTTL = 24 * time.Hour

// Notice kinds
const (
	NoticeSuccess = "success"
	NoticeError   = "error"
	NoticeWarning = "warning"
)

// Notice is a one-shot message shown on the next rendered page.
type Notice struct {
	Kind string
	Text string
}

// Session represents an authenticated session.
type Session struct {
	AccountID  string
	Name       string
	Email      string
	Role       string
	BranchID   string // empty for super admins
	BranchName string
	CreatedAt  time.Time
	Notices    []Notice
}

// Identity is the per-request view of the signed-in account.
type Identity struct {
	Token string
	Session
}

// SessionStore is an in-memory session store.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]Session
	now      func() time.Time
}

// NewSessionStore creates a new in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]Session),
		now:      time.Now,
	}
}

// Create stores a new session and returns the token.
// PRE: s.AccountID and s.Role are non-empty
// POST: Session is stored with CreatedAt = now, token is returned
func (ss *SessionStore) Create(s Session) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	ss.mu.Lock()
	defer ss.mu.Unlock()
	s.CreatedAt = ss.now()
	ss.sessions[token] = s
	return token, nil
}

// Get retrieves a session by token.
// POST: Returns the session if present and younger than SessionTTL;
// expired sessions are removed
func (ss *SessionStore) Get(token string) (Session, bool) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	s, ok := ss.sessions[token]
	if !ok {
		return Session{}, false
	}
	if ss.now().Sub(s.CreatedAt) > SessionTTL {
		delete(ss.sessions, token)
		return Session{}, false
	}
	return s, true
}

// Delete removes a session by token.
func (ss *SessionStore) Delete(token string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	delete(ss.sessions, token)
}

// RevokeAccount deletes every session of accountID except keep, which may
// be empty, and returns how many it removed.
func (ss *SessionStore) RevokeAccount(accountID, keep string) int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	n := 0
	for token, s := range ss.sessions {
		if s.AccountID == accountID && token != keep {
			delete(ss.sessions, token)
			n++
		}
	}
	return n
}

// Update replaces the session for a given token in-place.
// POST: false when the token is unknown
func (ss *SessionStore) Update(token string, s Session) bool {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if _, ok := ss.sessions[token]; !ok {
		return false
	}
	ss.sessions[token] = s
	return true
}

// Push queues a notice for the session's next page.
func (ss *SessionStore) Push(token string, n Notice) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	s, ok := ss.sessions[token]
	if !ok {
		return
	}
	s.Notices = append(s.Notices, n)
	ss.sessions[token] = s
}

// PopNotices returns and clears the queued notices.
// POST: a second call returns nothing until another Push
func (ss *SessionStore) PopNotices(token string) []Notice {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	s, ok := ss.sessions[token]
	if !ok || len(s.Notices) == 0 {
		return nil
	}
	out := s.Notices
	s.Notices = nil
	ss.sessions[token] = s
	return out
}

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "gymhub_session"

// SecureCookies marks session cookies Secure. Enabled in production.
var SecureCookies bool

// Auth returns middleware that extracts the session from the cookie and sets the identity in context.
// It does NOT block unauthenticated requests; use RequireAuth or RequireRole for that.
func Auth(sessions *SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err == nil && cookie.Value != "" {
				if s, ok := sessions.Get(cookie.Value); ok {
					r = r.WithContext(ContextWithIdentity(r.Context(), Identity{Token: cookie.Value, Session: s}))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth returns middleware that blocks unauthenticated requests.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetIdentity(r.Context()); !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole returns middleware that blocks requests from users without one of the specified roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	roleSet := make(map[string]bool, len(roles))
	for _, r := range roles {
		roleSet[r] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := GetIdentity(r.Context())
			if !ok {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			if !roleSet[id.Role] {
				slog.Warn("auth_event", "event", "forbidden_role", "account_id", id.AccountID, "role", id.Role, "path", r.URL.Path)
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GrantLister loads an account's feature grants.
type GrantLister interface {
	ListGrants(ctx context.Context, accountID string) ([]featureflag.Grant, error)
}

// RequireFeature returns middleware that blocks branch admins whose grant
// for key is disabled. Grants are read on every request so a toggle takes
// effect immediately.
// PRE: runs after RequireRole
func RequireFeature(grants GrantLister, key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := GetIdentity(r.Context())
			if !ok {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			list, err := grants.ListGrants(r.Context(), id.AccountID)
			if err != nil {
				slog.Error("auth_event", "event", "grant_lookup_failed", "account_id", id.AccountID, "error", err)
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}
			if !featureflag.FromGrants(list).Allows(key) {
				slog.Info("auth_event", "event", "feature_denied", "account_id", id.AccountID, "feature", key)
				http.Error(w, "Forbidden: the "+key+" feature is disabled for your account", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetIdentity extracts the identity from the request context.
func GetIdentity(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey).(Identity)
	return id, ok
}

// ContextWithIdentity returns a context carrying id.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// SetSessionCookie sets the session cookie on the response.
func SetSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		HttpOnly: true,
		Secure:   SecureCookies,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   int(SessionTTL.Seconds()),
	})
}

// ClearSessionCookie removes the session cookie.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		HttpOnly: true,
		Secure:   SecureCookies,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   -1,
	})
}

func generateToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
