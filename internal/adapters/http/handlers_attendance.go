package web

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"gymhub/internal/adapters/http/middleware"
	"gymhub/internal/application/orchestrators"
	"gymhub/internal/application/projections"
	"gymhub/internal/domain/attendance"
)

func attendanceDeps() orchestrators.AttendanceDeps {
	return orchestrators.AttendanceDeps{
		AttendanceStore: stores.AttendanceStore,
		CustomerStore:   stores.CustomerStore,
		BranchStore:     stores.BranchStore,
		Audit:           stores.AuditStore,
		Counter:         perfCollector,
		Now:             timeNow,
	}
}

// handleAttendance runs the branch's auto-checkout sweep and renders the
// attendance page (GET /attendance)
// POST: every open record past the threshold is closed before the page is read
func handleAttendance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	branch := branchID(r)
	if _, err := orchestrators.ExecuteAutoCheckout(ctx, branch, orchestrators.SystemActorFor(), attendanceDeps()); err != nil {
		internalError(w, err)
		return
	}

	result, err := projections.QueryGetAttendancePage(ctx, projections.GetAttendancePageQuery{
		BranchID: branch,
		Date:     r.URL.Query().Get("date"),
	}, projections.GetAttendancePageDeps{
		AttendanceStore: stores.AttendanceStore,
		CustomerStore:   stores.CustomerStore,
		Now:             timeNow,
	})
	if err != nil {
		internalError(w, err)
		return
	}

	data := map[string]any{"Page": result}
	if id := r.URL.Query().Get("override"); id != "" {
		for _, p := range result.Customers {
			if p.Customer.ID == id {
				data["OverrideCustomer"] = p.Customer
				break
			}
		}
	}
	renderTemplate(w, r, "attendance.html", data)
}

// handleCheckIn handles POST /attendance/checkin
// POST: when the daily limit is reached the admin is sent back to confirm an override
func handleCheckIn(w http.ResponseWriter, r *http.Request) {
	var form checkInForm
	if err := decodeForm(r, &form); err != nil {
		failRedirect(w, r, "/attendance", err)
		return
	}
	rec, err := orchestrators.ExecuteCheckIn(r.Context(), orchestrators.CheckInInput{
		BranchID:   branchID(r),
		CustomerID: form.CustomerID,
		Notes:      form.Notes,
		Override:   form.Override,
		Actor:      actorFrom(r),
	}, attendanceDeps())
	if errors.Is(err, attendance.ErrOverrideRequired) {
		redirectNotice(w, r, "/attendance?override="+url.QueryEscape(form.CustomerID), middleware.NoticeWarning, err.Error())
		return
	}
	if err != nil {
		failRedirect(w, r, "/attendance", err)
		return
	}
	text := rec.CustomerName + " checked in."
	if rec.AdminOverride {
		text = rec.CustomerName + " checked in with admin override."
	}
	redirectNotice(w, r, "/attendance", middleware.NoticeSuccess, text)
}

// handleCheckOut handles POST /attendance/{id}/checkout
func handleCheckOut(w http.ResponseWriter, r *http.Request) {
	var form checkOutForm
	if err := decodeForm(r, &form); err != nil {
		failRedirect(w, r, "/attendance", err)
		return
	}
	rec, err := orchestrators.ExecuteCheckOut(r.Context(), orchestrators.CheckOutInput{
		BranchID:     branchID(r),
		AttendanceID: r.PathValue("id"),
		Notes:        form.Notes,
		Actor:        actorFrom(r),
	}, attendanceDeps())
	if err != nil {
		failRedirect(w, r, "/attendance", err)
		return
	}
	redirectNotice(w, r, "/attendance", middleware.NoticeSuccess,
		fmt.Sprintf("Checked out after %d minutes.", rec.ElapsedMinutes(rec.CheckOutTime)))
}

// handleAttendanceSettings handles POST /attendance/settings
func handleAttendanceSettings(w http.ResponseWriter, r *http.Request) {
	var form settingsForm
	if err := decodeForm(r, &form); err != nil {
		failRedirect(w, r, "/attendance", err)
		return
	}
	_, err := orchestrators.ExecuteUpdateAttendanceSettings(r.Context(), orchestrators.AttendanceSettingsInput{
		BranchID:          branchID(r),
		MaxEntriesPerDay:  form.MaxEntriesPerDay,
		AutoCheckoutAfter: form.AutoCheckoutAfter,
		RequireCheckout:   form.RequireCheckout,
		Actor:             actorFrom(r),
	}, attendanceDeps())
	if err != nil {
		failRedirect(w, r, "/attendance", err)
		return
	}
	redirectNotice(w, r, "/attendance", middleware.NoticeSuccess, "Attendance settings saved.")
}

// handleRunAutoCheckout runs the sweep on demand (POST /attendance/auto-checkout)
func handleRunAutoCheckout(w http.ResponseWriter, r *http.Request) {
	closed, err := orchestrators.ExecuteAutoCheckout(r.Context(), branchID(r), actorFrom(r), attendanceDeps())
	if err != nil {
		failRedirect(w, r, "/attendance", err)
		return
	}
	redirectNotice(w, r, "/attendance", middleware.NoticeSuccess, pluralize(len(closed), "open visit")+" auto checked-out.")
}

// handleCleanupAttendance deletes the branch's closed records older than
// one year (POST /attendance/cleanup)
func handleCleanupAttendance(w http.ResponseWriter, r *http.Request) {
	n, err := orchestrators.ExecuteCleanupAttendance(r.Context(), branchID(r), actorFrom(r), attendanceDeps())
	if err != nil {
		failRedirect(w, r, "/attendance", err)
		return
	}
	redirectNotice(w, r, "/attendance", middleware.NoticeSuccess, pluralize(n, "old attendance record")+" deleted.")
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
