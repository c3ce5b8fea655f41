package reports

import (
	"encoding/json"
	"fmt"

	"medreport-backend/internal/analysis"
)

// decodeAnalysis restores a stored analysis. Rows written by older builds may
// lack sections, so the payload goes back through the normalizer's defaults.
func decodeAnalysis(payload []byte, report *Report) error {
	if len(payload) == 0 {
		report.Analysis = analysis.Empty()
		return nil
	}
	if !json.Valid(payload) {
		return fmt.Errorf("decode analysis for report %s: invalid json", report.ID)
	}
	report.Analysis = analysis.Normalize(string(payload)).Analysis
	return nil
}
