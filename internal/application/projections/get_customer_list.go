package projections

import (
	"context"

	"gymhub/internal/adapters/storage/customer"
	"gymhub/internal/application/listutil"
	domainCustomer "gymhub/internal/domain/customer"
)

// CustomerListSpec is what the customer list accepts from a query string.
var CustomerListSpec = listutil.Spec{
	SortColumns: customer.SortColumns,
	FilterKeys:  []string{"status"},
}

// GetCustomerListQuery carries query parameters.
type GetCustomerListQuery struct {
	BranchID string
	Params   listutil.Params
}

// GetCustomerListResult carries the query result.
type GetCustomerListResult struct {
	Customers []domainCustomer.Profile
	Page      listutil.PageInfo
	Params    listutil.Params
}

// GetCustomerListDeps holds dependencies for GetCustomerList.
type GetCustomerListDeps struct {
	CustomerStore CustomerStore
}

// QueryGetCustomerList returns one page of a branch's customers.
// PRE: query.BranchID is the session's branch
// POST: Page.Total counts every match; Customers holds at most Page.PerPage rows
func QueryGetCustomerList(ctx context.Context, query GetCustomerListQuery, deps GetCustomerListDeps) (GetCustomerListResult, error) {
	p := query.Params
	filter := customer.ListFilter{
		BranchID: query.BranchID,
		Search:   p.Search,
		Status:   p.Filter("status"),
		Sort:     p.Sort,
		Desc:     p.Desc(),
	}
	total, err := deps.CustomerStore.Count(ctx, filter)
	if err != nil {
		return GetCustomerListResult{}, err
	}

	page := listutil.NewPageInfo(p.Page, p.PerPage, total)
	filter.Limit = page.PerPage
	filter.Offset = page.Offset()
	rows, err := deps.CustomerStore.List(ctx, filter)
	if err != nil {
		return GetCustomerListResult{}, err
	}
	return GetCustomerListResult{Customers: rows, Page: page, Params: p}, nil
}

// QueryExportCustomers returns every customer matching the list filters
// as a header row plus data rows.
func QueryExportCustomers(ctx context.Context, query GetCustomerListQuery, deps GetCustomerListDeps) ([][]string, error) {
	p := query.Params
	rows, err := deps.CustomerStore.List(ctx, customer.ListFilter{
		BranchID: query.BranchID,
		Search:   p.Search,
		Status:   p.Filter("status"),
		Sort:     p.Sort,
		Desc:     p.Desc(),
	})
	if err != nil {
		return nil, err
	}
	table := [][]string{{"Name", "Email", "Phone", "Gender", "Subscription", "Join date", "Status", "Membership end", "Membership status"}}
	for _, r := range rows {
		c := r.Customer
		table = append(table, []string{c.Name, c.Email, c.Phone, c.Gender, c.SubscriptionType, c.JoinDate, c.Status, r.Membership.EndDate, r.Membership.Status})
	}
	return table, nil
}
