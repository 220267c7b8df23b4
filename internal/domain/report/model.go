package report

import (
	"errors"
	"time"
)

// Report kinds
const (
	KindDaily    = "daily"
	KindWeekly   = "weekly"
	KindMonthly  = "monthly"
	KindCustomer = "customer"
)

// ValidKinds lists the report kinds in display order.
var ValidKinds = []string{KindDaily, KindWeekly, KindMonthly, KindCustomer}

// DefaultRangeDays is the report window used when no range is given.
const DefaultRangeDays = 30

const dateLayout = "2006-01-02"

var (
	ErrInvalidKind  = errors.New("report type must be one of: daily, weekly, monthly, customer")
	ErrInvalidRange = errors.New("report end date must not be before its start date")
	ErrInvalidDate  = errors.New("report dates must be in YYYY-MM-DD format")
)

// Range is an inclusive date range.
type Range struct {
	From string // YYYY-MM-DD
	To   string // YYYY-MM-DD
}

// ParseRange validates from/to, defaulting to the last DefaultRangeDays
// ending today when either is blank.
// POST: From <= To
func ParseRange(from, to string, today time.Time) (Range, error) {
	if to == "" {
		to = today.Format(dateLayout)
	}
	if from == "" {
		end, err := time.Parse(dateLayout, to)
		if err != nil {
			return Range{}, ErrInvalidDate
		}
		from = end.AddDate(0, 0, -DefaultRangeDays).Format(dateLayout)
	}
	if _, err := time.Parse(dateLayout, from); err != nil {
		return Range{}, ErrInvalidDate
	}
	if _, err := time.Parse(dateLayout, to); err != nil {
		return Range{}, ErrInvalidDate
	}
	if to < from {
		return Range{}, ErrInvalidRange
	}
	return Range{From: from, To: to}, nil
}

// PeriodRow is one row of the daily, weekly or monthly aggregation.
type PeriodRow struct {
	Period          string // YYYY-MM-DD, ISO YYYY-Www or YYYY-MM
	CheckIns        int
	UniqueCustomers int
	AvgMinutes      float64 // over closed records only
}

// CustomerRow is one row of the per-customer aggregation.
type CustomerRow struct {
	CustomerID   string
	CustomerName string
	Visits       int
	TotalMinutes float64
	AvgMinutes   float64
	LastVisit    time.Time
}

// Report is a rendered aggregation ready for display or export.
type Report struct {
	Kind      string
	Range     Range
	Periods   []PeriodRow
	Customers []CustomerRow
}

// Table returns the report as a header row plus data rows, the shape
// every exporter consumes.
func (r Report) Table() [][]string {
	if r.Kind == KindCustomer {
		rows := [][]string{{"Customer", "Visits", "Total minutes", "Average minutes", "Last visit"}}
		for _, c := range r.Customers {
			last := ""
			if !c.LastVisit.IsZero() {
				last = c.LastVisit.Format("2006-01-02 15:04")
			}
			rows = append(rows, []string{c.CustomerName, itoa(c.Visits), ftoa(c.TotalMinutes), ftoa(c.AvgMinutes), last})
		}
		return rows
	}
	rows := [][]string{{periodLabel(r.Kind), "Check-ins", "Unique customers", "Average minutes"}}
	for _, p := range r.Periods {
		rows = append(rows, []string{p.Period, itoa(p.CheckIns), itoa(p.UniqueCustomers), ftoa(p.AvgMinutes)})
	}
	return rows
}

// IsValidKind reports whether kind is a known report kind.
func IsValidKind(kind string) bool {
	for _, k := range ValidKinds {
		if k == kind {
			return true
		}
	}
	return false
}

func periodLabel(kind string) string {
	switch kind {
	case KindWeekly:
		return "Week"
	case KindMonthly:
		return "Month"
	default:
		return "Date"
	}
}
