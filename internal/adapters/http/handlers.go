package web

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"gymhub/internal/adapters/export"
	"gymhub/internal/adapters/http/middleware"
	"gymhub/internal/adapters/photos"
	"gymhub/internal/application/orchestrators"
	"gymhub/internal/application/projections"
	"gymhub/internal/domain/account"
	"gymhub/internal/domain/attendance"
	"gymhub/internal/domain/branch"
	"gymhub/internal/domain/customer"
	"gymhub/internal/domain/featureflag"
	"gymhub/internal/domain/report"
	"gymhub/internal/domain/schedule"
	"gymhub/internal/domain/trainer"
)

// timeNow is a variable for testability.
var timeNow = time.Now

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set).
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// errorStatuses maps domain sentinels to HTTP statuses. Anything missing
// is an internal error.
var errorStatuses = []struct {
	err    error
	status int
}{
	{account.ErrNotFound, http.StatusNotFound},
	{branch.ErrNotFound, http.StatusNotFound},
	{customer.ErrNotFound, http.StatusNotFound},
	{trainer.ErrNotFound, http.StatusNotFound},
	{attendance.ErrNotFound, http.StatusNotFound},
	{schedule.ErrSessionNotFound, http.StatusNotFound},
	{schedule.ErrAssignmentNotFound, http.StatusNotFound},
	{schedule.ErrSlotNotFound, http.StatusNotFound},
	{orchestrators.ErrNotBranchAdmin, http.StatusNotFound},
	{export.ErrNoData, http.StatusNotFound},

	{account.ErrDuplicateEmail, http.StatusConflict},
	{branch.ErrDuplicateName, http.StatusConflict},
	{branch.ErrNotEmpty, http.StatusConflict},
	{attendance.ErrAlreadyCheckedIn, http.StatusConflict},
	{attendance.ErrOverrideRequired, http.StatusConflict},
	{attendance.ErrAlreadyCheckedOut, http.StatusConflict},
	{orchestrators.ErrCustomerInactive, http.StatusConflict},
	{schedule.ErrTrainerBusy, http.StatusConflict},
	{schedule.ErrCustomerBusy, http.StatusConflict},
	{schedule.ErrAssignmentNotActive, http.StatusConflict},
	{trainer.ErrNotSchedulable, http.StatusConflict},

	{errInvalidForm, http.StatusBadRequest},
	{schedule.ErrInvalidRequest, http.StatusBadRequest},
	{projections.ErrCalendarRange, http.StatusBadRequest},
	{photos.ErrTooLarge, http.StatusBadRequest},
	{photos.ErrUnsupportedType, http.StatusBadRequest},
	{photos.ErrUploadFailed, http.StatusInsufficientStorage},
}

// validationErrors are domain validation sentinels, all reported as 400.
var validationErrors = []error{
	account.ErrEmptyEmail, account.ErrInvalidEmail, account.ErrEmptyName, account.ErrInvalidRole,
	account.ErrNameTooLong, account.ErrEmailTooLong,
	account.ErrMissingBranch, account.ErrUnexpectedBranch, account.ErrEmptyPassword, account.ErrPasswordTooShort,
	branch.ErrEmptyName, branch.ErrNameTooLong, branch.ErrInvalidStatus,
	customer.ErrEmptyName, customer.ErrNameTooLong, customer.ErrInvalidEmail, customer.ErrMissingBranch,
	customer.ErrInvalidSubscription, customer.ErrInvalidStatus, customer.ErrInvalidJoinDate,
	customer.ErrInvalidGender, customer.ErrInvalidStartDate,
	trainer.ErrEmptyName, trainer.ErrNameTooLong, trainer.ErrBioTooLong, trainer.ErrInvalidEmail,
	trainer.ErrMissingBranch, trainer.ErrInvalidStatus, trainer.ErrInvalidHire,
	attendance.ErrInvalidMaxEntries, attendance.ErrInvalidAutoCheckout, attendance.ErrMissingCustomer,
	attendance.ErrCheckOutBeforeCheckIn,
	schedule.ErrInvalidSessionStatus, schedule.ErrInvalidEndStatus, schedule.ErrAssignmentRange,
	schedule.ErrEndNotAfter, schedule.ErrInvalidDate,
	report.ErrInvalidKind, report.ErrInvalidRange, report.ErrInvalidDate,
	orchestrators.ErrCurrentPasswordWrong, orchestrators.ErrNewPasswordSame,
	featureflag.ErrUnknownFeature,
}

// statusFor returns the HTTP status for err.
func statusFor(err error) int {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	for _, e := range validationErrors {
		if errors.Is(err, e) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

// writeError answers a non-HTML request with the mapped status.
func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		internalError(w, err)
		return
	}
	http.Error(w, err.Error(), status)
}

// notify queues a one-shot notice for the current session.
func notify(r *http.Request, kind, text string) {
	if id, ok := middleware.GetIdentity(r.Context()); ok {
		sessions.Push(id.Token, middleware.Notice{Kind: kind, Text: text})
	}
}

// redirectNotice queues a notice and redirects with 303.
func redirectNotice(w http.ResponseWriter, r *http.Request, target, kind, text string) {
	notify(r, kind, text)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// failRedirect reports err as a notice and redirects. Unmapped errors are
// logged and shown as a generic message.
func failRedirect(w http.ResponseWriter, r *http.Request, target string, err error) {
	text := err.Error()
	if statusFor(err) == http.StatusInternalServerError {
		slog.Error("internal_error", "error", text, "path", r.URL.Path)
		text = "Something went wrong, please try again."
	}
	redirectNotice(w, r, target, middleware.NoticeError, text)
}

// actorFrom builds the audit actor for the current request.
// PRE: the route requires authentication
func actorFrom(r *http.Request) orchestrators.Actor {
	id, _ := middleware.GetIdentity(r.Context())
	return orchestrators.Actor{
		ID:       id.AccountID,
		Email:    id.Email,
		Role:     id.Role,
		BranchID: id.BranchID,
		IP:       middleware.ClientIP(r),
	}
}

// branchID returns the session's branch. Branch-scoped reads and writes
// never take a branch from the request.
func branchID(r *http.Request) string {
	id, _ := middleware.GetIdentity(r.Context())
	return id.BranchID
}

func renderTemplate(w http.ResponseWriter, r *http.Request, templateName string, data any) {
	renderTemplateStatus(w, r, http.StatusOK, templateName, data)
}

// renderTemplateStatus renders templateName inside the layout with the given status.
func renderTemplateStatus(w http.ResponseWriter, r *http.Request, status int, templateName string, data any) {
	id, loggedIn := middleware.GetIdentity(r.Context())
	var notices []middleware.Notice
	if loggedIn {
		notices = sessions.PopNotices(id.Token)
	}

	funcMap := template.FuncMap{
		"currentRole":  func() string { return id.Role },
		"currentName":  func() string { return id.Name },
		"branchName":   func() string { return id.BranchName },
		"isLoggedIn":   func() bool { return loggedIn },
		"isSuperAdmin": func() bool { return id.Role == account.RoleSuperAdmin },
		"notices":      func() []middleware.Notice { return notices },
		"csrfField":    func() template.HTML { return csrf.TemplateField(r) },
		"csrfToken":    func() string { return csrf.Token(r) },
		"renderMarkdown": func(md string) template.HTML {
			var buf bytes.Buffer
			if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
				return template.HTML(template.HTMLEscapeString(md))
			}
			return template.HTML(buf.String())
		},
		"add": func(a, b int) int { return a + b },
		"sub": func(a, b int) int { return a - b },
		"fmtTime": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("2006-01-02 15:04")
		},
		"clock": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("15:04")
		},
		"fmtFloat": func(f float64) string { return strconv.FormatFloat(f, 'f', 1, 64) },
		// query marks a listutil-built query string as safe inside href.
		"query": func(encoded string) template.URL { return template.URL(encoded) },
	}

	tpl, err := template.New("layout.html").Funcs(funcMap).ParseFS(templateFS, "templates/layout.html", "templates/"+templateName)
	if err != nil {
		internalError(w, fmt.Errorf("parse template %s: %w", templateName, err))
		return
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		internalError(w, fmt.Errorf("render template %s: %w", templateName, err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// handleLogin handles GET (form) and POST (authenticate) for /login
func handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		if _, ok := middleware.GetIdentity(r.Context()); ok {
			http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
			return
		}
		renderTemplate(w, r, "login.html", map[string]any{"Email": "", "Error": ""})
		return
	}

	var form loginForm
	if err := decodeForm(r, &form); err != nil {
		renderTemplateStatus(w, r, http.StatusBadRequest, "login.html", map[string]any{"Error": err.Error(), "Email": form.Email})
		return
	}

	result, err := orchestrators.ExecuteLogin(r.Context(), orchestrators.LoginInput{
		Email:    form.Email,
		Password: form.Password,
		IP:       middleware.ClientIP(r),
	}, orchestrators.LoginDeps{
		AccountStore: stores.AccountStore,
		Audit:        stores.AuditStore,
		Counter:      perfCollector,
		Now:          timeNow,
	})
	if err != nil {
		if !errors.Is(err, orchestrators.ErrInvalidCredentials) && !errors.Is(err, orchestrators.ErrAccountLocked) {
			internalError(w, err)
			return
		}
		renderTemplateStatus(w, r, http.StatusUnauthorized, "login.html", map[string]any{"Error": err.Error(), "Email": form.Email})
		return
	}

	token, err := sessions.Create(middleware.Session{
		AccountID:  result.AccountID,
		Name:       result.Name,
		Email:      result.Email,
		Role:       result.Role,
		BranchID:   result.BranchID,
		BranchName: result.BranchName,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	middleware.SetSessionCookie(w, token)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// handleLogout handles POST /logout
func handleLogout(w http.ResponseWriter, r *http.Request) {
	if id, ok := middleware.GetIdentity(r.Context()); ok {
		sessions.Delete(id.Token)
		slog.Info("auth_event", "event", "logout", "account_id", id.AccountID)
	}
	middleware.ClearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// handleRoot sends visitors to the dashboard or the login page.
func handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// handleDashboard renders the dashboard for the session's role.
func handleDashboard(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.GetIdentity(r.Context())
	if id.Role == account.RoleSuperAdmin {
		result, err := projections.QueryGetSuperDashboard(r.Context(), projections.GetSuperDashboardDeps{
			BranchStore: stores.BranchStore,
			AuditStore:  stores.AuditStore,
			Now:         timeNow,
		})
		if err != nil {
			internalError(w, err)
			return
		}
		renderTemplate(w, r, "super_dashboard.html", result)
		return
	}

	result, err := projections.QueryGetBranchDashboard(r.Context(), projections.GetBranchDashboardQuery{BranchID: id.BranchID},
		projections.GetBranchDashboardDeps{
			BranchStore:     stores.BranchStore,
			CustomerStore:   stores.CustomerStore,
			AttendanceStore: stores.AttendanceStore,
			ScheduleStore:   stores.ScheduleStore,
			Now:             timeNow,
		})
	if err != nil {
		internalError(w, err)
		return
	}
	grants, err := stores.FeatureFlagStore.ListGrants(r.Context(), id.AccountID)
	if err != nil {
		internalError(w, err)
		return
	}
	renderTemplate(w, r, "branch_dashboard.html", map[string]any{
		"Dashboard":   result,
		"Permissions": featureflag.FromGrants(grants),
	})
}

// handleUpload serves a stored trainer photo.
func handleUpload(w http.ResponseWriter, r *http.Request) {
	full, ok := photoStore.Resolve(r.PathValue("path"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Cache-Control", "private, max-age=3600")
	http.ServeFile(w, r, full)
}
