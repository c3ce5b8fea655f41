package ocr

import (
	"context"
	"errors"
	"testing"
)

type stubEngine struct {
	acquireErr error
	worker     *stubWorker
}

func (s *stubEngine) Acquire(ctx context.Context) (Worker, error) {
	if s.acquireErr != nil {
		return nil, s.acquireErr
	}
	return s.worker, nil
}

type stubWorker struct {
	text       string
	err        error
	terminated int
}

func (w *stubWorker) Recognize(ctx context.Context, image []byte) (string, error) {
	return w.text, w.err
}

func (w *stubWorker) Terminate() { w.terminated++ }

func TestExtractTerminatesWorkerOnSuccess(t *testing.T) {
	worker := &stubWorker{text: "  Hemoglobin\t 10 g/dL  \r\n\r\n\r\n\r\n(normal 13-17)  "}
	text, err := NewExtractor(&stubEngine{worker: worker}).Extract(context.Background(), []byte("img"))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if text != "Hemoglobin 10 g/dL\n\n(normal 13-17)" {
		t.Fatalf("unexpected text %q", text)
	}
	if worker.terminated != 1 {
		t.Fatalf("expected worker terminated once, got %d", worker.terminated)
	}
}

func TestExtractTerminatesWorkerOnRecognitionFailure(t *testing.T) {
	worker := &stubWorker{err: errors.New("segfault")}
	_, err := NewExtractor(&stubEngine{worker: worker}).Extract(context.Background(), []byte("img"))
	if !errors.Is(err, ErrRecognition) {
		t.Fatalf("expected ErrRecognition, got %v", err)
	}
	if worker.terminated != 1 {
		t.Fatalf("expected worker terminated once, got %d", worker.terminated)
	}
}

func TestExtractClassifiesAcquireFailure(t *testing.T) {
	_, err := NewExtractor(&stubEngine{acquireErr: errors.New("no binary")}).Extract(context.Background(), []byte("img"))
	if !errors.Is(err, ErrEngineInit) {
		t.Fatalf("expected ErrEngineInit, got %v", err)
	}
	if errors.Is(err, ErrRecognition) {
		t.Fatalf("init failure must not look like a recognition failure")
	}
}

func TestExtractReturnsEmptyTextWithoutError(t *testing.T) {
	worker := &stubWorker{text: " \n\t "}
	text, err := NewExtractor(&stubEngine{worker: worker}).Extract(context.Background(), []byte("img"))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if text != "" {
		t.Fatalf("expected empty text, got %q", text)
	}
}
