package pipeline

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"medreport-backend/internal/analysis"
	"medreport-backend/internal/llm"
	"medreport-backend/internal/reports"
	"medreport-backend/internal/uploads"
)

// State is a position in one analysis run.
type State string

const (
	StateUploaded   State = "uploaded"
	StateExtracted  State = "extracted"
	StatePrompted   State = "prompted"
	StateCompleted  State = "completed"
	StateNormalized State = "normalized"
	StatePersisted  State = "persisted"
	StateResponded  State = "responded"
	StateFailed     State = "failed"
)

// Terminal reports whether no further step is possible.
func (s State) Terminal() bool {
	return s == StateResponded || s == StateFailed
}

// Kind classifies a fatal run failure.
type Kind string

const (
	KindValidation Kind = "ValidationError"
	KindExtraction Kind = "ExtractionError"
	KindNoText     Kind = "NoTextFound"
	KindCompletion Kind = "CompletionError"
)

// Failure is the terminal reason of a failed run.
type Failure struct {
	// Stage is the state the run was in when it failed.
	Stage   State
	Kind    Kind
	Status  int
	Message string
	Details string
	Err     error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("%s at %s: %s", f.Kind, f.Stage, f.Message)
	}
	return fmt.Sprintf("%s at %s: %s: %v", f.Kind, f.Stage, f.Message, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Run carries one request through the pipeline. A Run is owned by a single
// goroutine.
type Run struct {
	UserID string
	Upload uploads.RawUpload
	State  State

	Text     string
	Prompt   llm.Prompt
	Raw      string
	Analysis analysis.StructuredAnalysis
	Degraded bool
	Repairs  []analysis.Repair

	Report reports.Report
	Saved  bool
	// PersistErr is set when the report could not be saved; the run still
	// responds with the in-memory analysis.
	PersistErr error
	Failure    *Failure

	Transitions []State
	StartedAt   time.Time
}

// NewRun starts a run in the uploaded state.
func NewRun(userID string, upload uploads.RawUpload) *Run {
	return &Run{
		UserID:      userID,
		Upload:      upload,
		State:       StateUploaded,
		Transitions: []State{StateUploaded},
	}
}

// TransitionSummary renders the first and last state, e.g. "uploaded->responded".
func (r *Run) TransitionSummary() string {
	if len(r.Transitions) == 0 {
		return ""
	}
	return string(r.Transitions[0]) + "->" + string(r.Transitions[len(r.Transitions)-1])
}

// Path renders every visited state joined by "->".
func (r *Run) Path() string {
	parts := make([]string, len(r.Transitions))
	for i, s := range r.Transitions {
		parts[i] = string(s)
	}
	return strings.Join(parts, "->")
}

func (r *Run) advance(next State) {
	r.State = next
	r.Transitions = append(r.Transitions, next)
}

func (r *Run) fail(f *Failure) {
	f.Stage = r.State
	r.Failure = f
	r.advance(StateFailed)
}

// ValidationFailure describes an upload rejected before any stage ran.
func ValidationFailure(err error) *Failure {
	return &Failure{
		Stage:   StateUploaded,
		Kind:    KindValidation,
		Status:  http.StatusBadRequest,
		Message: uploadMessage(err),
		Err:     err,
	}
}
