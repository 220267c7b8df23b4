package web

import (
	"fmt"
	"log/slog"
	"net/http"

	"gymhub/internal/adapters/export"
	"gymhub/internal/adapters/http/middleware"
	customerStore "gymhub/internal/adapters/storage/customer"
	"gymhub/internal/application/listutil"
	"gymhub/internal/application/orchestrators"
	"gymhub/internal/application/projections"
	"gymhub/internal/domain/customer"
)

// qrSize is the edge length of customer QR codes in pixels.
const qrSize = 256

func customerDeps() orchestrators.CustomerDeps {
	return orchestrators.CustomerDeps{
		CustomerStore: stores.CustomerStore,
		Audit:         stores.AuditStore,
		Now:           timeNow,
	}
}

func customerListQuery(r *http.Request) projections.GetCustomerListQuery {
	return projections.GetCustomerListQuery{
		BranchID: branchID(r),
		Params:   listutil.Parse(r.URL.Query(), projections.CustomerListSpec),
	}
}

// handleCustomers lists the branch's customers with search, status filter,
// sorting and pagination (GET /customers)
func handleCustomers(w http.ResponseWriter, r *http.Request) {
	result, err := projections.QueryGetCustomerList(r.Context(), customerListQuery(r),
		projections.GetCustomerListDeps{CustomerStore: stores.CustomerStore})
	if err != nil {
		internalError(w, err)
		return
	}
	renderTemplate(w, r, "customers.html", map[string]any{
		"List":           result,
		"Status":         result.Params.Filter("status"),
		"PerPageOptions": listutil.PerPageOptions,
		"SortColumns": []struct{ Key, Label string }{
			{customerStore.SortName, "Name"},
			{customerStore.SortJoinDate, "Joined"},
			{customerStore.SortMemberTill, "Member till"},
			{customerStore.SortStatus, "Status"},
		},
	})
}

// handleNewCustomerForm handles GET /customers/new
func handleNewCustomerForm(w http.ResponseWriter, r *http.Request) {
	renderTemplate(w, r, "customer_form.html", map[string]any{
		"Customer": customer.Customer{
			SubscriptionType: customer.SubscriptionMonthly,
			JoinDate:         timeNow().Format(customer.DateLayout),
			Status:           customer.StatusActive,
		},
	})
}

// handleCreateCustomer handles POST /customers
// POST: customer and membership written together
func handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	var form customerForm
	if err := decodeForm(r, &form); err != nil {
		failRedirect(w, r, "/customers/new", err)
		return
	}
	p, err := orchestrators.ExecuteCreateCustomer(r.Context(), form.input("", r), customerDeps())
	if err != nil {
		failRedirect(w, r, "/customers/new", err)
		return
	}
	redirectNotice(w, r, "/customers", middleware.NoticeSuccess,
		fmt.Sprintf("%s added, membership until %s.", p.Customer.Name, p.Membership.EndDate))
}

// handleEditCustomerForm handles GET /customers/{id}/edit
func handleEditCustomerForm(w http.ResponseWriter, r *http.Request) {
	p, err := stores.CustomerStore.GetProfile(r.Context(), branchID(r), r.PathValue("id"))
	if err != nil {
		failRedirect(w, r, "/customers", err)
		return
	}
	renderTemplate(w, r, "customer_form.html", map[string]any{
		"Customer":   p.Customer,
		"Membership": p.Membership,
	})
}

// handleUpdateCustomer handles POST /customers/{id}
// POST: membership recomputed; a changed subscription type restarts it today
func handleUpdateCustomer(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var form customerForm
	if err := decodeForm(r, &form); err != nil {
		failRedirect(w, r, "/customers/"+id+"/edit", err)
		return
	}
	p, err := orchestrators.ExecuteUpdateCustomer(r.Context(), form.input(id, r), customerDeps())
	if err != nil {
		failRedirect(w, r, "/customers/"+id+"/edit", err)
		return
	}
	redirectNotice(w, r, "/customers", middleware.NoticeSuccess, p.Customer.Name+" updated.")
}

// handleDeleteCustomer handles POST /customers/{id}/delete
func handleDeleteCustomer(w http.ResponseWriter, r *http.Request) {
	err := orchestrators.ExecuteDeleteCustomer(r.Context(), orchestrators.CustomerInput{
		ID:       r.PathValue("id"),
		BranchID: branchID(r),
		Actor:    actorFrom(r),
	}, customerDeps())
	if err != nil {
		failRedirect(w, r, "/customers", err)
		return
	}
	redirectNotice(w, r, "/customers", middleware.NoticeSuccess, "Customer deleted.")
}

// handleExportCustomers streams the filtered customer list as CSV (GET /customers/export.csv)
func handleExportCustomers(w http.ResponseWriter, r *http.Request) {
	rows, err := projections.QueryExportCustomers(r.Context(), customerListQuery(r),
		projections.GetCustomerListDeps{CustomerStore: stores.CustomerStore})
	if err != nil {
		internalError(w, err)
		return
	}
	slog.Info("export_event", "event", "customers_exported", "branch_id", branchID(r), "rows", len(rows)-1)
	attachment(w, export.ContentTypeCSV, fmt.Sprintf("customers-%s.csv", timeNow().Format(customer.DateLayout)))
	if err := export.WriteCSV(w, rows); err != nil {
		slog.Error("export_event", "event", "customers_export_failed", "error", err)
	}
}

// handleCustomerQR renders the customer's check-in QR code (GET /customers/{id}/qr.png)
// POST: the code encodes the customer ID; other branches' customers are 404
func handleCustomerQR(w http.ResponseWriter, r *http.Request) {
	c, err := stores.CustomerStore.GetByID(r.Context(), branchID(r), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	png, err := export.QRCode(c.ID, qrSize)
	if err != nil {
		internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", export.ContentTypePNG)
	w.Header().Set("Cache-Control", "private, max-age=86400")
	_, _ = w.Write(png)
}

func (f customerForm) input(id string, r *http.Request) orchestrators.CustomerInput {
	return orchestrators.CustomerInput{
		ID:               id,
		BranchID:         branchID(r),
		Name:             f.Name,
		Email:            f.Email,
		Phone:            f.Phone,
		Gender:           f.Gender,
		SubscriptionType: f.SubscriptionType,
		JoinDate:         f.JoinDate,
		Status:           f.Status,
		Actor:            actorFrom(r),
	}
}

// attachment sets download headers.
func attachment(w http.ResponseWriter, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
}
