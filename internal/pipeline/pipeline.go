package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"medreport-backend/internal/analysis"
	"medreport-backend/internal/llm"
	"medreport-backend/internal/reports"
	"medreport-backend/internal/shared/metrics"
	"medreport-backend/internal/shared/telemetry"
	"medreport-backend/internal/shared/util"
	"medreport-backend/internal/uploads"
)

// ErrRunFinished is returned by Step for a run already in a terminal state.
var ErrRunFinished = errors.New("run already finished")

// TextExtractor turns image bytes into text.
type TextExtractor interface {
	Extract(ctx context.Context, image []byte) (string, error)
}

// Saver persists a finished report.
type Saver interface {
	Save(ctx context.Context, report reports.Report) error
}

// Pipeline runs report analyses. It holds no per-request state and is safe
// for concurrent use.
type Pipeline struct {
	Extractor TextExtractor
	Completer llm.Completer
	// Store may be nil, in which case reports are not persisted.
	Store Saver
	Now   func() time.Time
	NewID func() string
}

func New(extractor TextExtractor, completer llm.Completer, store Saver) *Pipeline {
	return &Pipeline{
		Extractor: extractor,
		Completer: completer,
		Store:     store,
		Now:       time.Now,
		NewID:     uuid.NewString,
	}
}

// Execute runs a validated upload to a terminal state.
func (p *Pipeline) Execute(ctx context.Context, userID string, upload uploads.RawUpload) *Run {
	run := NewRun(userID, upload)
	run.StartedAt = p.now()
	metrics.IncAnalysisStarted()

	for !run.State.Terminal() {
		if err := p.Step(ctx, run); err != nil {
			break
		}
	}

	metrics.ObserveAnalysisDurationMs(metrics.SinceMillis(run.StartedAt))
	fields := map[string]any{
		"request_id":  telemetry.RequestID(ctx),
		"user_id":     userID,
		"path":        run.Path(),
		"degraded":    run.Degraded,
		"saved":       run.Saved,
		"duration_ms": metrics.SinceMillis(run.StartedAt),
	}
	if run.Failure != nil {
		metrics.IncAnalysisFailed(string(run.Failure.Stage))
		fields["stage"] = run.Failure.Stage
		fields["kind"] = run.Failure.Kind
		fields["error"] = run.Failure.Details
		telemetry.Warn("pipeline.failed", fields)
		return run
	}
	metrics.IncAnalysisCompleted()
	if run.Degraded {
		metrics.IncAnalysisDegraded()
	}
	fields["report_id"] = run.Report.ID
	telemetry.Info("pipeline.responded", fields)
	return run
}

// Step advances run by exactly one state.
func (p *Pipeline) Step(ctx context.Context, run *Run) error {
	if run == nil {
		return fmt.Errorf("nil run")
	}
	from := run.State
	switch run.State {
	case StateUploaded:
		p.extract(ctx, run)
	case StateExtracted:
		p.prompt(run)
	case StatePrompted:
		p.complete(ctx, run)
	case StateCompleted:
		p.normalize(ctx, run)
	case StateNormalized:
		p.persist(ctx, run)
	case StatePersisted:
		run.advance(StateResponded)
	default:
		return ErrRunFinished
	}
	telemetry.Info("pipeline.transition", map[string]any{
		"request_id": telemetry.RequestID(ctx),
		"from":       from,
		"to":         run.State,
	})
	return nil
}

func (p *Pipeline) extract(ctx context.Context, run *Run) {
	if p.Extractor == nil {
		run.fail(extractionFailure(errors.New("text extractor not configured")))
		return
	}
	text, err := p.Extractor.Extract(ctx, run.Upload.Data)
	if err != nil {
		run.fail(extractionFailure(err))
		return
	}
	run.Text = text
	run.advance(StateExtracted)
}

// prompt rejects empty text before building the prompt, so NoTextFound is
// reported from the extracted state.
func (p *Pipeline) prompt(run *Run) {
	if strings.TrimSpace(run.Text) == "" {
		run.fail(&Failure{
			Kind:    KindNoText,
			Status:  http.StatusBadRequest,
			Message: "No text could be extracted from the image",
		})
		return
	}
	run.Prompt = llm.BuildAnalysisPrompt(run.Text)
	run.advance(StatePrompted)
}

func (p *Pipeline) complete(ctx context.Context, run *Run) {
	if p.Completer == nil {
		run.fail(completionFailure(llm.ErrNotConfigured))
		return
	}
	raw, err := p.Completer.Complete(ctx, llm.AnalysisRequest(run.Prompt))
	if err != nil {
		run.fail(completionFailure(err))
		return
	}
	run.Raw = raw
	run.advance(StateCompleted)
}

func (p *Pipeline) normalize(ctx context.Context, run *Run) {
	out := analysis.Normalize(run.Raw)
	run.Analysis = out.Analysis
	run.Degraded = out.Degraded
	run.Repairs = out.Repairs
	if out.Degraded || len(out.Repairs) > 0 {
		telemetry.Warn("pipeline.normalized_with_repairs", map[string]any{
			"request_id": telemetry.RequestID(ctx),
			"degraded":   out.Degraded,
			"reason":     out.Reason,
			"repairs":    out.Repairs,
		})
	}
	run.advance(StateNormalized)
}

// persist never fails the run. A nil Store skips the write.
func (p *Pipeline) persist(ctx context.Context, run *Run) {
	run.Report = reports.Report{
		ID:           p.newID(),
		UserID:       run.UserID,
		OriginalText: run.Text,
		Summary:      run.Raw,
		Analysis:     run.Analysis,
		CreatedAt:    p.now().UTC(),
	}
	if p.Store == nil {
		telemetry.Info("pipeline.persist_skipped", map[string]any{
			"request_id": telemetry.RequestID(ctx),
			"report_id":  run.Report.ID,
		})
		run.advance(StatePersisted)
		return
	}
	if err := p.Store.Save(ctx, run.Report); err != nil {
		run.PersistErr = err
		metrics.IncPersistFailure()
		telemetry.Error("pipeline.persist_failed", map[string]any{
			"request_id": telemetry.RequestID(ctx),
			"user_id":    run.UserID,
			"report_id":  run.Report.ID,
			"error":      util.SanitizeError(err),
		})
	} else {
		run.Saved = true
	}
	run.advance(StatePersisted)
}

func (p *Pipeline) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

func (p *Pipeline) newID() string {
	if p.NewID == nil {
		return uuid.NewString()
	}
	return p.NewID()
}

func extractionFailure(err error) *Failure {
	return &Failure{
		Kind:    KindExtraction,
		Status:  http.StatusInternalServerError,
		Message: "Failed to extract text from image",
		Details: util.SanitizeError(err),
		Err:     err,
	}
}

func completionFailure(err error) *Failure {
	return &Failure{
		Kind:    KindCompletion,
		Status:  http.StatusInternalServerError,
		Message: "Failed to analyze report",
		Details: util.SanitizeError(err),
		Err:     err,
	}
}

func uploadMessage(err error) string {
	switch {
	case errors.Is(err, uploads.ErrTooLarge):
		return "File too large. Maximum size is 5MB"
	case errors.Is(err, uploads.ErrNotImage):
		return "Only image files are allowed"
	case errors.Is(err, uploads.ErrMissingFile):
		return "No image file provided"
	default:
		return "Invalid upload"
	}
}
