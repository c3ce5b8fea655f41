package pipeline

import (
	"bytes"
	"context"
	"os"
	"sync"

	"medreport-backend/internal/llm"
	"medreport-backend/internal/reports"
)

type fakeExtractor struct {
	text  string
	err   error
	calls int
}

func (f *fakeExtractor) Extract(ctx context.Context, image []byte) (string, error) {
	f.calls++
	return f.text, f.err
}

type fakeCompleter struct {
	mu    sync.Mutex
	raw   string
	err   error
	calls int
	last  llm.Request
}

func (f *fakeCompleter) Complete(ctx context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.last = req
	return f.raw, f.err
}

type fakeStore struct {
	mu    sync.Mutex
	err   error
	saved []reports.Report
}

func (f *fakeStore) Save(ctx context.Context, report reports.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, report)
	return nil
}

const hemoglobinText = "Hemoglobin 10 g/dL (normal 13-17)"

const hemoglobinCompletion = `{
  "numericalData": {
    "metrics": [
      {"name": "Hemoglobin", "value": 10, "unit": "g/dL", "normalRange": "13-17", "status": "critical", "trend": "decreasing"}
    ],
    "suggestedVisualizations": [
      {"type": "gauge", "title": "Hemoglobin", "description": "Hemoglobin against its normal range"}
    ]
  },
  "keyFindings": [
    {"finding": "Hemoglobin is well below normal", "severity": "critical", "category": "Blood", "explanation": "A value of 10 g/dL indicates anemia."}
  ],
  "recommendations": [
    {"recommendation": "See your doctor", "priority": "high", "timeframe": "immediate", "rationale": "Low hemoglobin needs follow-up."}
  ],
  "urgentConcerns": [
    {"concern": "Possible anemia", "action": "Contact your doctor", "impact": "Fatigue and shortness of breath"}
  ],
  "simplifiedSummary": {
    "mainPoints": ["Your hemoglobin is low."],
    "nextSteps": ["Book an appointment."],
    "medicalTerms": [{"term": "Hemoglobin", "definition": "The protein in red blood cells that carries oxygen."}]
  }
}`

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

// pageRunner stands in for the tesseract CLI. It answers --version and
// otherwise reports the bytes that follow the PNG header of the page file.
type pageRunner struct {
	mu    sync.Mutex
	calls int
}

func (r *pageRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	if len(args) == 1 && args[0] == "--version" {
		return []byte("tesseract 5.3.0"), nil, nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, []byte(err.Error()), err
	}
	tag := bytes.TrimPrefix(data, pngBytes)
	return []byte(hemoglobinText + "\nPatient " + string(tag)), nil, nil
}
