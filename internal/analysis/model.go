package analysis

// StructuredAnalysis is the patient-facing analysis of one medical report.
// All five sections are always present; lists serialize as [] rather than null.
//
// Enumerated fields (status, trend, type, severity, priority, timeframe) are
// carried as plain strings. Values outside the documented sets are kept as
// the model produced them.
type StructuredAnalysis struct {
	NumericalData     NumericalData     `json:"numericalData"`
	KeyFindings       []KeyFinding      `json:"keyFindings"`
	Recommendations   []Recommendation  `json:"recommendations"`
	UrgentConcerns    []UrgentConcern   `json:"urgentConcerns"`
	SimplifiedSummary SimplifiedSummary `json:"simplifiedSummary"`
}

type NumericalData struct {
	Metrics                 []Metric        `json:"metrics"`
	SuggestedVisualizations []Visualization `json:"suggestedVisualizations"`
}

// Metric is one measured value. Value keeps the model's scalar, which is a
// number or a string such as "<0.5".
type Metric struct {
	Name        string `json:"name"`
	Value       any    `json:"value"`
	Unit        string `json:"unit"`
	NormalRange string `json:"normalRange"`
	Status      string `json:"status"`
	Trend       string `json:"trend,omitempty"`
}

type Visualization struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type KeyFinding struct {
	Finding     string `json:"finding"`
	Severity    string `json:"severity"`
	Category    string `json:"category"`
	Explanation string `json:"explanation"`
}

type Recommendation struct {
	Recommendation string `json:"recommendation"`
	Priority       string `json:"priority"`
	Timeframe      string `json:"timeframe"`
	Rationale      string `json:"rationale"`
}

type UrgentConcern struct {
	Concern string `json:"concern"`
	Action  string `json:"action"`
	Impact  string `json:"impact"`
}

type SimplifiedSummary struct {
	MainPoints   []string      `json:"mainPoints"`
	NextSteps    []string      `json:"nextSteps"`
	MedicalTerms []MedicalTerm `json:"medicalTerms"`
}

type MedicalTerm struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
}

// Documented enum values, used by the prompt skeleton and by reporting.
const (
	StatusNormal   = "normal"
	StatusWarning  = "warning"
	StatusCritical = "critical"

	SeverityNormal   = "normal"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Empty returns an analysis with every section present and empty.
func Empty() StructuredAnalysis {
	var a StructuredAnalysis
	a.ensureLists()
	return a
}

// ensureLists replaces nil slices with empty ones so every list serializes as [].
func (a *StructuredAnalysis) ensureLists() {
	if a.NumericalData.Metrics == nil {
		a.NumericalData.Metrics = []Metric{}
	}
	if a.NumericalData.SuggestedVisualizations == nil {
		a.NumericalData.SuggestedVisualizations = []Visualization{}
	}
	if a.KeyFindings == nil {
		a.KeyFindings = []KeyFinding{}
	}
	if a.Recommendations == nil {
		a.Recommendations = []Recommendation{}
	}
	if a.UrgentConcerns == nil {
		a.UrgentConcerns = []UrgentConcern{}
	}
	if a.SimplifiedSummary.MainPoints == nil {
		a.SimplifiedSummary.MainPoints = []string{}
	}
	if a.SimplifiedSummary.NextSteps == nil {
		a.SimplifiedSummary.NextSteps = []string{}
	}
	if a.SimplifiedSummary.MedicalTerms == nil {
		a.SimplifiedSummary.MedicalTerms = []MedicalTerm{}
	}
}

// CountBySeverity tallies key findings per severity value.
func (a StructuredAnalysis) CountBySeverity() map[string]int {
	out := make(map[string]int, 3)
	for _, f := range a.KeyFindings {
		out[f.Severity]++
	}
	return out
}
