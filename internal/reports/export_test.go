package reports

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

func TestExportXLSXSheets(t *testing.T) {
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	first := sampleReport("r1", "google:1", base)
	second := sampleReport("r2", "google:1", base.Add(time.Hour))
	second.Analysis.NumericalData.Metrics = nil

	payload, err := ExportXLSX([]Report{second, first})
	if err != nil {
		t.Fatalf("ExportXLSX: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != "Reports" || sheets[1] != "Metrics" {
		t.Fatalf("unexpected sheets %v", sheets)
	}

	rows, err := f.GetRows("Reports")
	if err != nil {
		t.Fatalf("GetRows Reports: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[1][0] != "r2" || rows[2][3] != "1" || rows[2][6] != "Your hemoglobin is low." {
		t.Fatalf("unexpected report rows %v", rows)
	}

	metricRows, err := f.GetRows("Metrics")
	if err != nil {
		t.Fatalf("GetRows Metrics: %v", err)
	}
	if len(metricRows) != 2 {
		t.Fatalf("expected header + 1 metric row, got %d", len(metricRows))
	}
	if metricRows[1][2] != "Hemoglobin" || metricRows[1][3] != "10" || metricRows[1][6] != "critical" {
		t.Fatalf("unexpected metric row %v", metricRows[1])
	}
}

func TestExportXLSXEmpty(t *testing.T) {
	payload, err := ExportXLSX(nil)
	if err != nil {
		t.Fatalf("ExportXLSX: %v", err)
	}
	if len(payload) == 0 {
		t.Fatalf("expected workbook bytes")
	}
}
