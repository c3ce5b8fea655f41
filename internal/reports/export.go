package reports

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"medreport-backend/internal/analysis"
)

const (
	// ExportLimit caps how many reports go into one workbook.
	ExportLimit = 100

	reportsSheet = "Reports"
	metricsSheet = "Metrics"
)

// ExportXLSX renders reports into a workbook with a Reports overview sheet and
// a Metrics sheet holding one row per measured value.
func ExportXLSX(reports []Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", reportsSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(metricsSheet); err != nil {
		return nil, err
	}

	writeRow(f, reportsSheet, 1, "Report ID", "Created At", "Key Findings", "Critical Findings", "Urgent Concerns", "Metrics", "Main Point")
	writeRow(f, metricsSheet, 1, "Report ID", "Created At", "Metric", "Value", "Unit", "Normal Range", "Status", "Trend")

	metricRow := 2
	for i, report := range reports {
		a := report.Analysis
		created := report.CreatedAt.UTC().Format(time.RFC3339)
		writeRow(f, reportsSheet, i+2,
			report.ID,
			created,
			len(a.KeyFindings),
			a.CountBySeverity()[analysis.SeverityCritical],
			len(a.UrgentConcerns),
			len(a.NumericalData.Metrics),
			firstOrEmpty(a.SimplifiedSummary.MainPoints),
		)
		for _, m := range a.NumericalData.Metrics {
			writeRow(f, metricsSheet, metricRow,
				report.ID,
				created,
				m.Name,
				m.Value,
				m.Unit,
				m.NormalRange,
				m.Status,
				m.Trend,
			)
			metricRow++
		}
	}

	_ = f.SetColWidth(reportsSheet, "A", "A", 38)
	_ = f.SetColWidth(reportsSheet, "B", "B", 22)
	_ = f.SetColWidth(reportsSheet, "C", "F", 16)
	_ = f.SetColWidth(reportsSheet, "G", "G", 80)
	_ = f.SetColWidth(metricsSheet, "A", "A", 38)
	_ = f.SetColWidth(metricsSheet, "B", "B", 22)
	_ = f.SetColWidth(metricsSheet, "C", "C", 28)
	_ = f.SetColWidth(metricsSheet, "D", "H", 14)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values ...any) {
	for col, v := range values {
		cell, _ := excelize.CoordinatesToCellName(col+1, row)
		_ = f.SetCellValue(sheet, cell, cellValue(v))
	}
}

// cellValue keeps numbers numeric; json.Number and other scalars fall back to text.
func cellValue(v any) any {
	switch val := v.(type) {
	case nil:
		return ""
	case string, int, int64, float64, bool:
		return val
	default:
		return fmt.Sprint(val)
	}
}

func firstOrEmpty(items []string) string {
	if len(items) == 0 {
		return ""
	}
	return items[0]
}
