package ocr

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/semaphore"
)

// Config controls the tesseract engine.
type Config struct {
	Tesseract  string // binary name or absolute path; if empty -> "tesseract"
	Language   string // default "eng"
	PSM        int    // page segmentation mode; 0 leaves tesseract's default
	MaxWorkers int    // concurrent workers; default 2, 1 serializes recognition
	TempDir    string // parent for per-worker scratch dirs; "" uses os.TempDir
}

// Engine hands out scoped OCR workers.
type Engine interface {
	Acquire(ctx context.Context) (Worker, error)
}

// Worker recognizes images until it is terminated. A worker is owned by one
// caller and must be terminated on every exit path.
type Worker interface {
	Recognize(ctx context.Context, image []byte) (string, error)
	Terminate()
}

// TesseractEngine runs the tesseract CLI. Each worker gets a private scratch
// directory and holds one semaphore slot until terminated.
type TesseractEngine struct {
	cfg    Config
	runner Runner
	sem    *semaphore.Weighted
}

// NewTesseractEngine builds an engine; a nil runner executes real commands.
func NewTesseractEngine(cfg Config, runner Runner) *TesseractEngine {
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 2
	}
	if runner == nil {
		runner = execRunner{}
	}
	return &TesseractEngine{
		cfg:    cfg,
		runner: runner,
		sem:    semaphore.NewWeighted(int64(cfg.MaxWorkers)),
	}
}

// Ready verifies the tesseract binary can be started.
func (e *TesseractEngine) Ready(ctx context.Context) error {
	if _, isRealRunner := e.runner.(execRunner); isRealRunner {
		if _, err := exec.LookPath(e.cfg.Tesseract); err != nil {
			return fmt.Errorf("%w: %s not found in PATH: %v", ErrEngineInit, e.cfg.Tesseract, err)
		}
	}
	if _, stderr, err := e.runner.Run(ctx, e.cfg.Tesseract, "--version"); err != nil {
		return fmt.Errorf("%w: %s --version: %v %s", ErrEngineInit, e.cfg.Tesseract, err, strings.TrimSpace(string(stderr)))
	}
	return nil
}

// Acquire blocks until a worker slot is free and starts a worker.
func (e *TesseractEngine) Acquire(ctx context.Context) (Worker, error) {
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("%w: waiting for worker: %v", ErrEngineInit, err)
	}
	dir, err := os.MkdirTemp(e.cfg.TempDir, "medreport-ocr-*")
	if err != nil {
		e.sem.Release(1)
		return nil, fmt.Errorf("%w: scratch dir: %v", ErrEngineInit, err)
	}
	return &tesseractWorker{engine: e, dir: dir}, nil
}

type tesseractWorker struct {
	engine *TesseractEngine
	dir    string
	seq    int
	once   sync.Once
	done   bool
}

func (w *tesseractWorker) Recognize(ctx context.Context, image []byte) (string, error) {
	if w.done {
		return "", fmt.Errorf("%w: worker terminated", ErrRecognition)
	}
	w.seq++
	path := filepath.Join(w.dir, "page-"+strconv.Itoa(w.seq)+mimetype.Detect(image).Extension())
	if err := os.WriteFile(path, image, 0o600); err != nil {
		return "", fmt.Errorf("%w: write image: %v", ErrRecognition, err)
	}

	cfg := w.engine.cfg
	// tesseract <file> stdout -l <lang> [--psm N]
	args := []string{path, "stdout", "-l", cfg.Language}
	if cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(cfg.PSM))
	}
	out, errb, err := w.engine.runner.Run(ctx, cfg.Tesseract, args...)
	if err != nil {
		return "", fmt.Errorf("%w: tesseract: %v %s", ErrRecognition, err, truncate(strings.TrimSpace(string(errb)), 512))
	}
	return string(out), nil
}

func (w *tesseractWorker) Terminate() {
	w.once.Do(func() {
		w.done = true
		_ = os.RemoveAll(w.dir)
		w.engine.sem.Release(1)
	})
}
