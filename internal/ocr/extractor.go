package ocr

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"medreport-backend/internal/shared/telemetry"
)

// Extractor turns image bytes into plain text using a scoped worker.
type Extractor struct {
	Engine Engine
}

func NewExtractor(engine Engine) *Extractor {
	return &Extractor{Engine: engine}
}

// Extract acquires a worker, recognizes the image, and always terminates the
// worker. Empty text is returned as-is; callers decide what it means.
func (e *Extractor) Extract(ctx context.Context, image []byte) (string, error) {
	if e == nil || e.Engine == nil {
		return "", fmt.Errorf("%w: no engine configured", ErrEngineInit)
	}
	start := time.Now()
	worker, err := e.Engine.Acquire(ctx)
	if err != nil {
		if !errors.Is(err, ErrEngineInit) {
			err = fmt.Errorf("%w: %v", ErrEngineInit, err)
		}
		return "", err
	}
	defer worker.Terminate()

	text, err := worker.Recognize(ctx, image)
	if err != nil {
		if !errors.Is(err, ErrRecognition) {
			err = fmt.Errorf("%w: %v", ErrRecognition, err)
		}
		return "", err
	}
	text = Normalize(text)
	telemetry.Info("ocr.extracted", map[string]any{
		"bytes":       len(image),
		"chars":       len(text),
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return text, nil
}

var (
	reSpaceRuns = regexp.MustCompile(`[ \t\f\v]+`)
	reBlankRuns = regexp.MustCompile(`\n{3,}`)
)

// Normalize unifies line endings, collapses runs of horizontal whitespace and
// squeezes long blank gaps tesseract leaves between blocks.
func Normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	lines := strings.Split(s, "\n")
	for i, ln := range lines {
		lines[i] = strings.TrimSpace(reSpaceRuns.ReplaceAllString(ln, " "))
	}
	s = strings.Join(lines, "\n")
	s = reBlankRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
