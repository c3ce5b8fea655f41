package reports

import (
	"time"

	"medreport-backend/internal/analysis"
)

// HistoryLimit caps how many reports the history endpoint returns.
const HistoryLimit = 10

// Report is one analyzed medical report owned by a single user. Reports are
// written once and never updated.
type Report struct {
	ID           string                      `json:"id"`
	UserID       string                      `json:"userId"`
	OriginalText string                      `json:"originalText"`
	// Summary is the raw completion text the analysis was normalized from.
	Summary   string                      `json:"summary"`
	Analysis  analysis.StructuredAnalysis `json:"analysis"`
	CreatedAt time.Time                   `json:"createdAt"`
}
