package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"medreport-backend/internal/bootstrap"
	"medreport-backend/internal/llm"
	"medreport-backend/internal/shared/config"
)

type fakeRunner struct{}

func (fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	if len(args) == 1 && args[0] == "--version" {
		return []byte("tesseract 5.3.0"), nil, nil
	}
	return []byte("Hemoglobin 10 g/dL (normal 13-17)"), nil, nil
}

type fakeCompleter struct{}

func (fakeCompleter) Complete(ctx context.Context, req llm.Request) (string, error) {
	return `{"keyFindings":[{"finding":"Low hemoglobin","severity":"critical","category":"blood","explanation":"Below range"}],"simplifiedSummary":{"mainPoints":["Your hemoglobin is low."]}}`, nil
}

func sharedApp(t *testing.T) buildFunc {
	t.Helper()
	t.Setenv("ENV", "dev")
	t.Setenv("REPORT_STORE", "memory")
	t.Setenv("LLM_PROVIDER", "none")
	app, err := bootstrap.BuildWith(context.Background(), config.Config{Env: "dev", ReportStore: "memory"}, bootstrap.Options{
		OCRRunner: fakeRunner{},
		Completer: fakeCompleter{},
	})
	if err != nil {
		t.Fatalf("BuildWith: %v", err)
	}
	return func(ctx context.Context, cfg config.Config) (*bootstrap.App, error) {
		return app, nil
	}
}

func writeImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lab.png")
	if err := os.WriteFile(path, []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), 0o600); err != nil {
		t.Fatalf("write image: %v", err)
	}
	return path
}

func execute(t *testing.T, build buildFunc, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(build)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestAnalyzeSavesAndListsReport(t *testing.T) {
	build := sharedApp(t)
	image := writeImage(t)

	out, err := execute(t, build, "analyze", image, "--user", "u1", "--save")
	if err != nil {
		t.Fatalf("analyze: %v\n%s", err, out)
	}
	var resp struct {
		Success  bool `json:"success"`
		Analysis struct {
			SimplifiedSummary struct {
				MainPoints []string `json:"mainPoints"`
			} `json:"simplifiedSummary"`
		} `json:"analysis"`
	}
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if !resp.Success || len(resp.Analysis.SimplifiedSummary.MainPoints) != 1 {
		t.Fatalf("unexpected response %s", out)
	}

	out, err = execute(t, build, "reports", "u1")
	if err != nil {
		t.Fatalf("reports: %v", err)
	}
	if !strings.Contains(out, `"userId": "u1"`) {
		t.Fatalf("expected saved report in %s", out)
	}
}

func TestAnalyzeWithoutSaveLeavesHistoryEmpty(t *testing.T) {
	build := sharedApp(t)
	if out, err := execute(t, build, "analyze", writeImage(t), "--user", "u2"); err != nil {
		t.Fatalf("analyze: %v\n%s", err, out)
	}
	out, err := execute(t, build, "reports", "u2")
	if err != nil {
		t.Fatalf("reports: %v", err)
	}
	if !strings.Contains(out, `"reports": []`) {
		t.Fatalf("expected empty history, got %s", out)
	}
}

func TestAnalyzeRejectsNonImage(t *testing.T) {
	build := sharedApp(t)
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := execute(t, build, "analyze", path); err == nil {
		t.Fatalf("expected non-image to be rejected")
	}
}
