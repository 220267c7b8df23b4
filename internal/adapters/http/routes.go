package web

import (
	"io/fs"
	"net/http"

	"gymhub/internal/adapters/http/middleware"
	"gymhub/internal/domain/account"
	"gymhub/internal/domain/featureflag"
)

// registerRoutes wires every page. Each handler is wrapped in
// middleware.Route so metrics are labelled by pattern, not raw path.
func registerRoutes(mux *http.ServeMux) {
	handle := func(pattern string, h http.Handler) {
		mux.Handle(pattern, middleware.Route(h))
	}
	authed := func(h http.HandlerFunc) http.Handler {
		return middleware.RequireAuth(h)
	}
	super := func(h http.HandlerFunc) http.Handler {
		return middleware.RequireRole(account.RoleSuperAdmin)(h)
	}
	feature := func(key string, h http.HandlerFunc) http.Handler {
		return middleware.Chain(h,
			middleware.RequireFeature(stores.FeatureFlagStore, key),
			middleware.RequireRole(account.RoleBranchAdmin),
		)
	}

	static, _ := fs.Sub(staticFS, "static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))
	handle("GET /uploads/{path...}", authed(handleUpload))
	if perfCollector != nil {
		handle("GET /metrics", super(perfCollector.Handler().ServeHTTP))
	}

	handle("/", http.HandlerFunc(handleRoot))
	handle("GET /login", http.HandlerFunc(handleLogin))
	handle("POST /login", http.HandlerFunc(handleLogin))
	handle("POST /logout", http.HandlerFunc(handleLogout))
	handle("GET /dashboard", authed(handleDashboard))
	handle("GET /account/password", authed(handlePasswordForm))
	handle("POST /account/password", authed(handleChangePassword))

	// Super admin
	handle("GET /admin/branches", super(handleBranches))
	handle("POST /admin/branches", super(handleCreateBranch))
	handle("GET /admin/branches/{id}/edit", super(handleEditBranchForm))
	handle("POST /admin/branches/{id}", super(handleUpdateBranch))
	handle("POST /admin/branches/{id}/delete", super(handleDeleteBranch))
	handle("GET /admin/admins", super(handleAdmins))
	handle("POST /admin/admins", super(handleCreateAdmin))
	handle("POST /admin/admins/{id}/delete", super(handleDeleteAdmin))
	handle("POST /admin/admins/{id}/features/{key}", super(handleToggleFeature))
	handle("GET /admin/audit", super(handleAuditLog))
	handle("POST /admin/sweep", super(handleSweepAll))

	// Branch admin
	handle("GET /customers", feature(featureflag.Customers, handleCustomers))
	handle("POST /customers", feature(featureflag.Customers, handleCreateCustomer))
	handle("GET /customers/new", feature(featureflag.Customers, handleNewCustomerForm))
	handle("GET /customers/export.csv", feature(featureflag.Customers, handleExportCustomers))
	handle("GET /customers/{id}/edit", feature(featureflag.Customers, handleEditCustomerForm))
	handle("POST /customers/{id}", feature(featureflag.Customers, handleUpdateCustomer))
	handle("POST /customers/{id}/delete", feature(featureflag.Customers, handleDeleteCustomer))
	handle("GET /customers/{id}/qr.png", feature(featureflag.Customers, handleCustomerQR))

	handle("GET /trainers", feature(featureflag.Trainers, handleTrainers))
	handle("POST /trainers", feature(featureflag.Trainers, handleCreateTrainer))
	handle("GET /trainers/new", feature(featureflag.Trainers, handleNewTrainerForm))
	handle("GET /trainers/{id}", feature(featureflag.Trainers, handleTrainerProfile))
	handle("GET /trainers/{id}/edit", feature(featureflag.Trainers, handleEditTrainerForm))
	handle("POST /trainers/{id}", feature(featureflag.Trainers, handleUpdateTrainer))
	handle("POST /trainers/{id}/delete", feature(featureflag.Trainers, handleDeleteTrainer))

	handle("GET /attendance", feature(featureflag.Attendance, handleAttendance))
	handle("POST /attendance/checkin", feature(featureflag.Attendance, handleCheckIn))
	handle("POST /attendance/{id}/checkout", feature(featureflag.Attendance, handleCheckOut))
	handle("POST /attendance/settings", feature(featureflag.Attendance, handleAttendanceSettings))
	handle("POST /attendance/auto-checkout", feature(featureflag.Attendance, handleRunAutoCheckout))
	handle("POST /attendance/cleanup", feature(featureflag.Attendance, handleCleanupAttendance))

	handle("GET /scheduling", feature(featureflag.Scheduling, handleScheduling))
	handle("POST /scheduling/sessions", feature(featureflag.Scheduling, handleScheduleSession))
	handle("POST /scheduling/sessions/{id}/status", feature(featureflag.Scheduling, handleSessionStatus))
	handle("POST /scheduling/sessions/{id}/delete", feature(featureflag.Scheduling, handleDeleteSession))
	handle("POST /scheduling/assignments/{id}/end", feature(featureflag.Scheduling, handleEndAssignment))
	handle("GET /scheduling/calendar", feature(featureflag.Scheduling, handleCalendarPage))
	handle("GET /scheduling/events", feature(featureflag.Scheduling, handleCalendarEvents))

	handle("GET /reports", feature(featureflag.Reports, handleReports))
	handle("GET /reports/export.csv", feature(featureflag.Reports, handleReportCSV))
	handle("GET /reports/export.xlsx", feature(featureflag.Reports, handleReportXLSX))
	handle("GET /reports/chart.png", feature(featureflag.Reports, handleReportChart))
}
