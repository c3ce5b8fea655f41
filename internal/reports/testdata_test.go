package reports

import (
	"time"

	"medreport-backend/internal/analysis"
)

func sampleReport(id, userID string, created time.Time) Report {
	a := analysis.Empty()
	a.NumericalData.Metrics = []analysis.Metric{{
		Name:        "Hemoglobin",
		Value:       float64(10),
		Unit:        "g/dL",
		NormalRange: "13-17",
		Status:      analysis.StatusCritical,
	}}
	a.KeyFindings = []analysis.KeyFinding{{
		Finding:     "Low hemoglobin",
		Severity:    analysis.SeverityCritical,
		Category:    "Blood",
		Explanation: "Hemoglobin is below the normal range.",
	}}
	a.SimplifiedSummary.MainPoints = []string{"Your hemoglobin is low."}
	return Report{
		ID:           id,
		UserID:       userID,
		OriginalText: "Hemoglobin 10 g/dL (normal 13-17)",
		Summary:      `{"keyFindings":[]}`,
		Analysis:     a,
		CreatedAt:    created.UTC(),
	}
}
