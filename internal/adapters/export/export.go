// Package export renders tabular data and charts into downloadable files:
// CSV, XLSX, PNG bar charts and check-in QR codes.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/skip2/go-qrcode"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/xuri/excelize/v2"
)

// Content types for the formats produced here.
const (
	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypePNG  = "image/png"
)

// ErrNoData is returned when a chart has nothing to plot.
var ErrNoData = errors.New("nothing to chart for this range")

// WriteCSV writes rows, the first being the header, as CSV.
func WriteCSV(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// WriteXLSX writes rows into a single-sheet workbook with a styled header row.
// PRE: rows[0] is the header
func WriteXLSX(w io.Writer, sheet string, rows [][]string) error {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("export_event", "event", "xlsx_close_failed", "error", err)
		}
	}()

	if sheet == "" {
		sheet = "Report"
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}
	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#3b82f6"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	for r, row := range rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("set %s: %w", cell, err)
			}
			if r == 0 {
				if err := f.SetCellStyle(sheet, cell, cell, header); err != nil {
					return fmt.Errorf("style %s: %w", cell, err)
				}
			}
		}
	}
	if len(rows) > 0 {
		last, _ := excelize.ColumnNumberToName(len(rows[0]))
		if err := f.SetColWidth(sheet, "A", last, 18); err != nil {
			return fmt.Errorf("column width: %w", err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

// Bar is one labelled value of a bar chart.
type Bar struct {
	Label string
	Value float64
}

// WriteBarChart renders bars as an 800x400 PNG.
// POST: ErrNoData when bars is empty
func WriteBarChart(w io.Writer, title string, bars []Bar) error {
	if len(bars) == 0 {
		return ErrNoData
	}
	graph := chart.BarChart{
		Title:    title,
		Width:    800,
		Height:   400,
		BarWidth: barWidth(len(bars)),
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
	}
	allZero := true
	for _, b := range bars {
		graph.Bars = append(graph.Bars, chart.Value{Label: b.Label, Value: b.Value})
		if b.Value != 0 {
			allZero = false
		}
	}
	if allZero {
		// go-chart cannot scale an all-zero range.
		graph.YAxis.Range = &chart.ContinuousRange{Min: 0, Max: 1}
	}
	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

func barWidth(n int) int {
	w := 700 / n
	switch {
	case w > 60:
		return 60
	case w < 4:
		return 4
	}
	return w - 2
}

// QRCode encodes content as a square PNG of the given pixel size.
func QRCode(content string, size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}
	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}
