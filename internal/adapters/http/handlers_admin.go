package web

import (
	"net/http"
	"strings"

	"gymhub/internal/adapters/http/middleware"
	"gymhub/internal/application/orchestrators"
	"gymhub/internal/application/projections"
)

func branchDeps() orchestrators.BranchDeps {
	return orchestrators.BranchDeps{
		BranchStore: stores.BranchStore,
		Audit:       stores.AuditStore,
		Now:         timeNow,
	}
}

func branchAdminDeps() orchestrators.BranchAdminDeps {
	return orchestrators.BranchAdminDeps{
		AccountStore: stores.AccountStore,
		BranchStore:  stores.BranchStore,
		GrantStore:   stores.FeatureFlagStore,
		EmailSender:  emailSender,
		Audit:        stores.AuditStore,
		Now:          timeNow,
	}
}

// handleBranches renders branch summaries with the create form (GET /admin/branches)
func handleBranches(w http.ResponseWriter, r *http.Request) {
	result, err := projections.QueryGetSuperDashboard(r.Context(), projections.GetSuperDashboardDeps{
		BranchStore: stores.BranchStore,
		AuditStore:  stores.AuditStore,
		Now:         timeNow,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	renderTemplate(w, r, "branches.html", result)
}

// handleCreateBranch handles POST /admin/branches
// POST: branch and its default attendance settings exist, or a notice explains why not
func handleCreateBranch(w http.ResponseWriter, r *http.Request) {
	var form branchForm
	if err := decodeForm(r, &form); err != nil {
		failRedirect(w, r, "/admin/branches", err)
		return
	}
	b, err := orchestrators.ExecuteCreateBranch(r.Context(), orchestrators.BranchInput{
		Name:    form.Name,
		Address: form.Address,
		Phone:   form.Phone,
		Status:  form.Status,
		Actor:   actorFrom(r),
	}, branchDeps())
	if err != nil {
		failRedirect(w, r, "/admin/branches", err)
		return
	}
	redirectNotice(w, r, "/admin/branches", middleware.NoticeSuccess, "Branch "+b.Name+" created.")
}

// handleEditBranchForm handles GET /admin/branches/{id}/edit
func handleEditBranchForm(w http.ResponseWriter, r *http.Request) {
	b, err := stores.BranchStore.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		failRedirect(w, r, "/admin/branches", err)
		return
	}
	renderTemplate(w, r, "branch_form.html", map[string]any{"Branch": b})
}

// handleUpdateBranch handles POST /admin/branches/{id}
func handleUpdateBranch(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var form branchForm
	if err := decodeForm(r, &form); err != nil {
		failRedirect(w, r, "/admin/branches/"+id+"/edit", err)
		return
	}
	b, err := orchestrators.ExecuteUpdateBranch(r.Context(), orchestrators.BranchInput{
		ID:      id,
		Name:    form.Name,
		Address: form.Address,
		Phone:   form.Phone,
		Status:  form.Status,
		Actor:   actorFrom(r),
	}, branchDeps())
	if err != nil {
		failRedirect(w, r, "/admin/branches/"+id+"/edit", err)
		return
	}
	redirectNotice(w, r, "/admin/branches", middleware.NoticeSuccess, "Branch "+b.Name+" updated.")
}

// handleDeleteBranch handles POST /admin/branches/{id}/delete
// POST: refused with a notice while the branch has customers, trainers or admins
func handleDeleteBranch(w http.ResponseWriter, r *http.Request) {
	err := orchestrators.ExecuteDeleteBranch(r.Context(), orchestrators.BranchInput{
		ID:    r.PathValue("id"),
		Actor: actorFrom(r),
	}, branchDeps())
	if err != nil {
		failRedirect(w, r, "/admin/branches", err)
		return
	}
	redirectNotice(w, r, "/admin/branches", middleware.NoticeSuccess, "Branch deleted.")
}

// handleAdmins renders branch admins with their feature toggles (GET /admin/admins)
func handleAdmins(w http.ResponseWriter, r *http.Request) {
	query := projections.GetBranchAdminsQuery{BranchID: r.URL.Query().Get("branch")}
	result, err := projections.QueryGetBranchAdmins(r.Context(), query, projections.GetBranchAdminsDeps{
		AccountStore: stores.AccountStore,
		FeatureStore: stores.FeatureFlagStore,
		BranchStore:  stores.BranchStore,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	renderTemplate(w, r, "admins.html", map[string]any{
		"Admins": result,
		"Filter": query.BranchID,
	})
}

// handleCreateAdmin handles POST /admin/admins
// POST: account and its grants committed together; the welcome email is best-effort
func handleCreateAdmin(w http.ResponseWriter, r *http.Request) {
	var form adminForm
	if err := decodeForm(r, &form); err != nil {
		failRedirect(w, r, "/admin/admins", err)
		return
	}
	acct, err := orchestrators.ExecuteCreateBranchAdmin(r.Context(), orchestrators.CreateBranchAdminInput{
		Name:     form.Name,
		Email:    form.Email,
		Password: form.Password,
		BranchID: form.BranchID,
		LoginURL: strings.TrimRight(baseURL, "/") + "/login",
		Actor:    actorFrom(r),
	}, branchAdminDeps())
	if err != nil {
		failRedirect(w, r, "/admin/admins", err)
		return
	}
	redirectNotice(w, r, "/admin/admins", middleware.NoticeSuccess, "Branch admin "+acct.Email+" created.")
}

// handleDeleteAdmin handles POST /admin/admins/{id}/delete
func handleDeleteAdmin(w http.ResponseWriter, r *http.Request) {
	accountID := r.PathValue("id")
	err := orchestrators.ExecuteDeleteBranchAdmin(r.Context(), orchestrators.DeleteBranchAdminInput{
		AccountID: accountID,
		Actor:     actorFrom(r),
	}, branchAdminDeps())
	if err != nil {
		failRedirect(w, r, "/admin/admins", err)
		return
	}
	sessions.RevokeAccount(accountID, "")
	redirectNotice(w, r, "/admin/admins", middleware.NoticeSuccess, "Branch admin deleted.")
}

// handleToggleFeature handles POST /admin/admins/{id}/features/{key}
// POST: only that admin's grant for key changes
func handleToggleFeature(w http.ResponseWriter, r *http.Request) {
	var form featureForm
	if err := decodeForm(r, &form); err != nil {
		failRedirect(w, r, "/admin/admins", err)
		return
	}
	err := orchestrators.ExecuteToggleFeature(r.Context(), orchestrators.ToggleFeatureInput{
		AccountID:  r.PathValue("id"),
		FeatureKey: r.PathValue("key"),
		Enabled:    form.Enabled,
		Actor:      actorFrom(r),
	}, branchAdminDeps())
	if err != nil {
		failRedirect(w, r, "/admin/admins", err)
		return
	}
	redirectNotice(w, r, "/admin/admins", middleware.NoticeSuccess, "Permissions updated.")
}

// handleSweepAll runs the auto-checkout sweep for every branch (POST /admin/sweep)
func handleSweepAll(w http.ResponseWriter, r *http.Request) {
	closed, err := orchestrators.ExecuteAutoCheckoutAll(r.Context(), actorFrom(r), attendanceDeps())
	if err != nil {
		failRedirect(w, r, "/dashboard", err)
		return
	}
	redirectNotice(w, r, "/dashboard", middleware.NoticeSuccess, pluralize(closed, "open visit")+" auto checked-out.")
}
