package web

import (
	"net/http"
	"strconv"

	"gymhub/internal/application/projections"
)

// handleAuditLog renders the super-admin audit log (GET /admin/audit)
// PRE: User must be authenticated as super admin
// POST: Renders audit events with optional category, branch and date filters
func handleAuditLog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := projections.GetAuditLogQuery{
		Category: q.Get("category"),
		BranchID: q.Get("branch"),
		From:     q.Get("from"),
		To:       q.Get("to"),
	}
	if l, err := strconv.Atoi(q.Get("limit")); err == nil && l > 0 && l <= 1000 {
		query.Limit = l
	}

	result, err := projections.QueryGetAuditLog(r.Context(), query, projections.GetAuditLogDeps{AuditStore: stores.AuditStore})
	if err != nil {
		internalError(w, err)
		return
	}
	branches, err := stores.BranchStore.List(r.Context())
	if err != nil {
		internalError(w, err)
		return
	}
	renderTemplate(w, r, "audit.html", map[string]any{
		"Log":      result,
		"Branches": branches,
	})
}
