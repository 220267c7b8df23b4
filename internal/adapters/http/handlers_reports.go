package web

import (
	"fmt"
	"log/slog"
	"net/http"

	"gymhub/internal/adapters/export"
	"gymhub/internal/application/projections"
	"gymhub/internal/domain/report"
)

func loadReport(r *http.Request) (report.Report, error) {
	q := r.URL.Query()
	return projections.QueryGetReport(r.Context(), projections.GetReportQuery{
		BranchID: branchID(r),
		Kind:     q.Get("kind"),
		From:     q.Get("from"),
		To:       q.Get("to"),
	}, projections.GetReportDeps{ReportStore: stores.ReportStore, Now: timeNow})
}

func reportFilename(rep report.Report, ext string) string {
	return fmt.Sprintf("%s-report-%s-to-%s.%s", rep.Kind, rep.Range.From, rep.Range.To, ext)
}

// handleReports renders a report with its export links (GET /reports)
func handleReports(w http.ResponseWriter, r *http.Request) {
	rep, err := loadReport(r)
	if err != nil {
		if statusFor(err) == http.StatusInternalServerError {
			internalError(w, err)
			return
		}
		failRedirect(w, r, "/reports", err)
		return
	}
	table := rep.Table()
	renderTemplate(w, r, "reports.html", map[string]any{
		"Report": rep,
		"Header": table[0],
		"Rows":   table[1:],
		"Kinds":  report.ValidKinds,
	})
}

// handleReportCSV handles GET /reports/export.csv
func handleReportCSV(w http.ResponseWriter, r *http.Request) {
	rep, err := loadReport(r)
	if err != nil {
		writeError(w, err)
		return
	}
	attachment(w, export.ContentTypeCSV, reportFilename(rep, "csv"))
	if err := export.WriteCSV(w, rep.Table()); err != nil {
		slog.Error("export_event", "event", "report_csv_failed", "kind", rep.Kind, "error", err)
	}
}

// handleReportXLSX handles GET /reports/export.xlsx
func handleReportXLSX(w http.ResponseWriter, r *http.Request) {
	rep, err := loadReport(r)
	if err != nil {
		writeError(w, err)
		return
	}
	attachment(w, export.ContentTypeXLSX, reportFilename(rep, "xlsx"))
	if err := export.WriteXLSX(w, rep.Kind, rep.Table()); err != nil {
		slog.Error("export_event", "event", "report_xlsx_failed", "kind", rep.Kind, "error", err)
	}
}

// handleReportChart renders check-ins per period, or visits per customer,
// as a PNG bar chart (GET /reports/chart.png)
func handleReportChart(w http.ResponseWriter, r *http.Request) {
	rep, err := loadReport(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var bars []export.Bar
	title := "Check-ins " + rep.Range.From + " to " + rep.Range.To
	if rep.Kind == report.KindCustomer {
		title = "Visits per customer " + rep.Range.From + " to " + rep.Range.To
		for _, c := range rep.Customers {
			bars = append(bars, export.Bar{Label: c.CustomerName, Value: float64(c.Visits)})
		}
	} else {
		for _, p := range rep.Periods {
			bars = append(bars, export.Bar{Label: p.Period, Value: float64(p.CheckIns)})
		}
	}
	if len(bars) == 0 {
		writeError(w, export.ErrNoData)
		return
	}
	w.Header().Set("Content-Type", export.ContentTypePNG)
	if err := export.WriteBarChart(w, title, bars); err != nil {
		slog.Error("export_event", "event", "report_chart_failed", "kind", rep.Kind, "error", err)
	}
}
