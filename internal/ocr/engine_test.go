package ocr

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"
)

type call struct {
	name string
	args []string
}

type fakeRunner struct {
	mu     sync.Mutex
	calls  []call
	stdout string
	stderr string
	err    error
	// seen records whether the input file existed when tesseract ran.
	seen []bool
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{name: name, args: append([]string(nil), args...)})
	if len(args) > 0 && args[0] != "--version" {
		_, statErr := os.Stat(args[0])
		f.seen = append(f.seen, statErr == nil)
	}
	return []byte(f.stdout), []byte(f.stderr), f.err
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestRecognizeBuildsTesseractArgs(t *testing.T) {
	runner := &fakeRunner{stdout: "Hemoglobin 10 g/dL\n"}
	engine := NewTesseractEngine(Config{Tesseract: "/usr/bin/tesseract", Language: "eng+deu", PSM: 6, TempDir: t.TempDir()}, runner)

	worker, err := engine.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer worker.Terminate()

	text, err := worker.Recognize(context.Background(), pngHeader)
	if err != nil {
		t.Fatalf("recognize: %v", err)
	}
	if text != "Hemoglobin 10 g/dL\n" {
		t.Fatalf("unexpected text %q", text)
	}
	if len(runner.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(runner.calls))
	}
	got := runner.calls[0]
	if got.name != "/usr/bin/tesseract" {
		t.Fatalf("unexpected binary %q", got.name)
	}
	if !strings.HasSuffix(got.args[0], ".png") {
		t.Fatalf("expected png input file, got %q", got.args[0])
	}
	want := []string{"stdout", "-l", "eng+deu", "--psm", "6"}
	if strings.Join(got.args[1:], " ") != strings.Join(want, " ") {
		t.Fatalf("unexpected args %v", got.args)
	}
	if !runner.seen[0] {
		t.Fatalf("expected image to be written before tesseract ran")
	}
}

func TestRecognizeWrapsRunnerFailure(t *testing.T) {
	runner := &fakeRunner{err: errors.New("exit status 1"), stderr: "Error in pixReadStream"}
	engine := NewTesseractEngine(Config{TempDir: t.TempDir()}, runner)

	worker, err := engine.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer worker.Terminate()

	_, err = worker.Recognize(context.Background(), pngHeader)
	if !errors.Is(err, ErrRecognition) {
		t.Fatalf("expected ErrRecognition, got %v", err)
	}
	if !strings.Contains(err.Error(), "pixReadStream") {
		t.Fatalf("expected stderr in error, got %v", err)
	}
}

func TestTerminateRemovesScratchDirAndReleasesSlot(t *testing.T) {
	engine := NewTesseractEngine(Config{MaxWorkers: 1, TempDir: t.TempDir()}, &fakeRunner{})

	worker, err := engine.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	dir := worker.(*tesseractWorker).dir
	worker.Terminate()
	worker.Terminate()

	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("expected scratch dir removed, stat err=%v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	again, err := engine.Acquire(ctx)
	if err != nil {
		t.Fatalf("expected slot to be released: %v", err)
	}
	again.Terminate()
}

func TestAcquireBlocksWhenWorkersBusy(t *testing.T) {
	engine := NewTesseractEngine(Config{MaxWorkers: 1, TempDir: t.TempDir()}, &fakeRunner{})

	held, err := engine.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer held.Terminate()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := engine.Acquire(ctx); !errors.Is(err, ErrEngineInit) {
		t.Fatalf("expected ErrEngineInit while busy, got %v", err)
	}
}

func TestReadyRunsVersionCheck(t *testing.T) {
	runner := &fakeRunner{}
	engine := NewTesseractEngine(Config{}, runner)
	if err := engine.Ready(context.Background()); err != nil {
		t.Fatalf("ready: %v", err)
	}
	if runner.calls[0].args[0] != "--version" {
		t.Fatalf("expected --version probe, got %v", runner.calls[0].args)
	}

	failing := NewTesseractEngine(Config{}, &fakeRunner{err: errors.New("not installed")})
	if err := failing.Ready(context.Background()); !errors.Is(err, ErrEngineInit) {
		t.Fatalf("expected ErrEngineInit, got %v", err)
	}
}
