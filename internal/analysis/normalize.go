package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Fallback content returned when the model output cannot be parsed.
const (
	FallbackFinding     = "Unable to fully analyze the report"
	FallbackCategory    = "Processing"
	FallbackExplanation = "The analysis results could not be processed into a structured format. The extracted text is still available."
	FallbackMainPoint   = "The report was read, but the automated analysis could not be completed. Please try again."
	FallbackNextStep    = "Try uploading the report again, ideally as a clear, well-lit image."

	// DegradedWarning is the advisory returned alongside a fallback analysis.
	DegradedWarning = "The analysis could not be fully structured, so a simplified result is shown. Please try again for a complete analysis."
)

// Repair reasons.
const (
	RepairMissing = "missing" // section absent, default used
	RepairNull    = "null"    // section null, default used
	RepairInvalid = "invalid" // section container of the wrong shape, default used
	RepairCoerced = "coerced" // field converted to its declared type
	RepairDropped = "dropped" // item or field removed, siblings kept
)

// Repair records one change the normalizer made to the model output. Path is
// a JSON pointer below the section and is empty for whole-section repairs.
type Repair struct {
	Section string `json:"section"`
	Path    string `json:"path,omitempty"`
	Reason  string `json:"reason"`
	Detail  string `json:"detail,omitempty"`
}

// Outcome is the result of normalizing one raw completion.
type Outcome struct {
	Analysis StructuredAnalysis
	// Degraded is true when the raw text was not a parseable object and the
	// fallback analysis was returned.
	Degraded bool
	// Reason explains a degraded outcome.
	Reason  string
	Repairs []Repair
}

// Normalize turns untrusted model output into a complete StructuredAnalysis.
// It never fails: unparseable input yields the fallback analysis with
// Degraded set; missing, null or mis-shaped sections are replaced by their
// empty defaults without touching the other sections. Inside a well-shaped
// section, a bad item or field is repaired alone and its siblings are kept.
func Normalize(raw string) Outcome {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") || !strings.HasSuffix(trimmed, "}") {
		return fallbackOutcome("response is not a JSON object")
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &top); err != nil {
		return fallbackOutcome("parse: " + err.Error())
	}

	out := Outcome{Analysis: Empty()}
	for _, section := range Sections {
		body, ok := top[section]
		if !ok {
			out.Repairs = append(out.Repairs, Repair{Section: section, Reason: RepairMissing})
			continue
		}
		if isNull(body) {
			out.Repairs = append(out.Repairs, Repair{Section: section, Reason: RepairNull})
			continue
		}
		if err := decodeSection(section, body, &out); err != nil {
			out.Repairs = append(out.Repairs, Repair{Section: section, Reason: RepairInvalid, Detail: err.Error()})
		}
	}
	out.Analysis.ensureLists()
	return out
}

// decodeSection checks the container shape of body and decodes its items one
// by one into out.Analysis. The section is left at its default on error.
func decodeSection(section string, body json.RawMessage, out *Outcome) error {
	generic, err := decodeGeneric(body)
	if err != nil {
		return err
	}
	if err := ValidateSection(section, generic); err != nil {
		return err
	}

	r := &itemRepairer{section: section, out: out}
	a := &out.Analysis
	switch section {
	case SectionNumericalData:
		var v struct {
			Metrics                 []json.RawMessage `json:"metrics"`
			SuggestedVisualizations []json.RawMessage `json:"suggestedVisualizations"`
		}
		if err := json.Unmarshal(body, &v); err != nil {
			return err
		}
		a.NumericalData.Metrics = decodeItems[Metric](r, "/metrics", ItemMetric, v.Metrics)
		a.NumericalData.SuggestedVisualizations = decodeItems[Visualization](r, "/suggestedVisualizations", ItemVisualization, v.SuggestedVisualizations)
	case SectionKeyFindings, SectionRecommendations, SectionUrgentConcerns:
		var v []json.RawMessage
		if err := json.Unmarshal(body, &v); err != nil {
			return err
		}
		switch section {
		case SectionKeyFindings:
			a.KeyFindings = decodeItems[KeyFinding](r, "", ItemKeyFinding, v)
		case SectionRecommendations:
			a.Recommendations = decodeItems[Recommendation](r, "", ItemRecommendation, v)
		default:
			a.UrgentConcerns = decodeItems[UrgentConcern](r, "", ItemUrgentConcern, v)
		}
	case SectionSimplifiedSummary:
		var v struct {
			MainPoints   []json.RawMessage `json:"mainPoints"`
			NextSteps    []json.RawMessage `json:"nextSteps"`
			MedicalTerms []json.RawMessage `json:"medicalTerms"`
		}
		if err := json.Unmarshal(body, &v); err != nil {
			return err
		}
		a.SimplifiedSummary.MainPoints = r.strings("/mainPoints", v.MainPoints)
		a.SimplifiedSummary.NextSteps = r.strings("/nextSteps", v.NextSteps)
		a.SimplifiedSummary.MedicalTerms = decodeItems[MedicalTerm](r, "/medicalTerms", ItemMedicalTerm, v.MedicalTerms)
	default:
		return fmt.Errorf("unknown section %q", section)
	}
	return nil
}

func isNull(body json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(body), []byte("null"))
}

// Fallback returns the minimal analysis used when model output is unusable.
func Fallback() StructuredAnalysis {
	a := Empty()
	a.KeyFindings = []KeyFinding{{
		Finding:     FallbackFinding,
		Severity:    SeverityWarning,
		Category:    FallbackCategory,
		Explanation: FallbackExplanation,
	}}
	a.SimplifiedSummary.MainPoints = []string{FallbackMainPoint}
	a.SimplifiedSummary.NextSteps = []string{FallbackNextStep}
	return a
}

func fallbackOutcome(reason string) Outcome {
	return Outcome{Analysis: Fallback(), Degraded: true, Reason: reason}
}
