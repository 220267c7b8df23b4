package web

import (
	"log/slog"
	"net/http"

	"gymhub/internal/adapters/http/middleware"
	"gymhub/internal/application/orchestrators"
)

// handlePasswordForm handles GET /account/password
func handlePasswordForm(w http.ResponseWriter, r *http.Request) {
	renderTemplate(w, r, "account_password.html", nil)
}

// handleChangePassword handles POST /account/password
// POST: the current session stays valid; the account's other sessions end
func handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var form passwordForm
	if err := decodeForm(r, &form); err != nil {
		failRedirect(w, r, "/account/password", err)
		return
	}
	err := orchestrators.ExecuteChangePassword(r.Context(), orchestrators.ChangePasswordInput{
		CurrentPassword: form.CurrentPassword,
		NewPassword:     form.NewPassword,
		Actor:           actorFrom(r),
	}, orchestrators.ChangePasswordDeps{
		AccountStore: stores.AccountStore,
		Audit:        stores.AuditStore,
		Now:          timeNow,
	})
	if err != nil {
		failRedirect(w, r, "/account/password", err)
		return
	}
	if id, ok := middleware.GetIdentity(r.Context()); ok {
		if n := sessions.RevokeAccount(id.AccountID, id.Token); n > 0 {
			slog.Info("auth_event", "event", "sessions_revoked", "account_id", id.AccountID, "count", n)
		}
	}
	redirectNotice(w, r, "/dashboard", middleware.NoticeSuccess, "Password changed.")
}
