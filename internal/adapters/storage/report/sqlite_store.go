package report

import (
	"context"
	"database/sql"
	"math"

	"gymhub/internal/adapters/storage"
	domain "gymhub/internal/domain/report"
)

// isoThursday is the Thursday of check_in's ISO week. Its year is the ISO
// year and its day of year fixes the ISO week number.
const isoThursday = "date(substr(check_in, 1, 10), '-3 days', 'weekday 4')"

// periodExpr maps a report kind to its grouping expression. Only these
// fixed strings are ever interpolated into SQL. Weeks are ISO 8601
// (Monday first, YYYY-Www), so a week spanning New Year stays one row.
var periodExpr = map[string]string{
	domain.KindDaily:   "substr(check_in, 1, 10)",
	domain.KindWeekly:  "strftime('%Y', " + isoThursday + ") || '-W' || printf('%02d', (CAST(strftime('%j', " + isoThursday + ") AS INTEGER) - 1) / 7 + 1)",
	domain.KindMonthly: "substr(check_in, 1, 7)",
}

const minutesExpr = "(julianday(check_out) - julianday(check_in)) * 1440"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new report store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Periods aggregates check-ins of a branch per day, week or month.
// PRE: kind is daily, weekly or monthly
// POST: rows ordered by period; AvgMinutes only counts closed records
// INVARIANT: Store state is not mutated
func (s *SQLiteStore) Periods(ctx context.Context, branchID, kind string, r domain.Range) ([]domain.PeriodRow, error) {
	expr, ok := periodExpr[kind]
	if !ok {
		return nil, domain.ErrInvalidKind
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+expr+` AS period,
			COUNT(*),
			COUNT(DISTINCT customer_id),
			COALESCE(AVG(CASE WHEN check_out IS NOT NULL THEN `+minutesExpr+` END), 0)
		FROM attendance
		WHERE branch_id = ? AND substr(check_in, 1, 10) BETWEEN ? AND ?
		GROUP BY period
		ORDER BY period`, branchID, r.From, r.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PeriodRow
	for rows.Next() {
		var p domain.PeriodRow
		if err := rows.Scan(&p.Period, &p.CheckIns, &p.UniqueCustomers, &p.AvgMinutes); err != nil {
			return nil, err
		}
		p.AvgMinutes = round1(p.AvgMinutes)
		out = append(out, p)
	}
	return out, rows.Err()
}

// Customers aggregates visits per customer of a branch, busiest first.
// INVARIANT: Store state is not mutated
func (s *SQLiteStore) Customers(ctx context.Context, branchID string, r domain.Range) ([]domain.CustomerRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT c.id, c.name,
			COUNT(a.id),
			COALESCE(SUM(CASE WHEN a.check_out IS NOT NULL THEN (julianday(a.check_out) - julianday(a.check_in)) * 1440 END), 0),
			COALESCE(AVG(CASE WHEN a.check_out IS NOT NULL THEN (julianday(a.check_out) - julianday(a.check_in)) * 1440 END), 0),
			MAX(a.check_in)
		FROM attendance a
		JOIN customers c ON c.id = a.customer_id
		WHERE a.branch_id = ? AND substr(a.check_in, 1, 10) BETWEEN ? AND ?
		GROUP BY c.id, c.name
		ORDER BY COUNT(a.id) DESC, c.name`, branchID, r.From, r.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.CustomerRow
	for rows.Next() {
		var c domain.CustomerRow
		var last sql.NullString
		if err := rows.Scan(&c.CustomerID, &c.CustomerName, &c.Visits, &c.TotalMinutes, &c.AvgMinutes, &last); err != nil {
			return nil, err
		}
		c.TotalMinutes = round1(c.TotalMinutes)
		c.AvgMinutes = round1(c.AvgMinutes)
		c.LastVisit, _ = storage.ParseNullTime(last)
		out = append(out, c)
	}
	return out, rows.Err()
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
