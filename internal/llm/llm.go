package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"

	"medreport-backend/internal/shared/telemetry"
)

var (
	// ErrCompletionEmpty means the provider answered without content.
	ErrCompletionEmpty = errors.New("completion returned no content")
	// ErrCompletionTransport covers network and provider-level failures.
	ErrCompletionTransport = errors.New("completion request failed")
	// ErrNotConfigured is returned by PlaceholderCompleter.
	ErrNotConfigured = errors.New("completion provider not configured")
)

// Request is one system+user exchange with fixed sampling settings.
type Request struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
	// Purpose labels the call site in logs ("analysis", "chat").
	Purpose string
}

// Completer sends one request to a completion service and returns its raw text.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// ModelCompleter adapts a langchaingo model. It calls the provider exactly
// once per request.
type ModelCompleter struct {
	Model     llms.Model
	ModelName string
}

func NewModelCompleter(model llms.Model, modelName string) *ModelCompleter {
	return &ModelCompleter{Model: model, ModelName: modelName}
}

func (c *ModelCompleter) Complete(ctx context.Context, req Request) (string, error) {
	if c == nil || c.Model == nil {
		return "", fmt.Errorf("%w: %v", ErrCompletionTransport, ErrNotConfigured)
	}
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, req.System),
		llms.TextParts(llms.ChatMessageTypeHuman, req.User),
	}

	var opts []llms.CallOption
	if req.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(req.MaxTokens))
	}
	// gpt-5 models reject any temperature other than the default.
	if !isGPT5(c.ModelName) {
		opts = append(opts, llms.WithTemperature(req.Temperature))
	}

	start := time.Now()
	resp, err := c.Model.GenerateContent(ctx, messages, opts...)
	fields := map[string]any{
		"purpose":     req.Purpose,
		"model":       c.ModelName,
		"prompt_hash": Prompt{System: req.System, User: req.User}.Hash(),
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if err != nil {
		fields["error"] = err
		telemetry.Error("llm.completion_failed", fields)
		return "", fmt.Errorf("%w: %v", ErrCompletionTransport, err)
	}
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		telemetry.Warn("llm.completion_empty", fields)
		return "", ErrCompletionEmpty
	}
	content := resp.Choices[0].Content
	if strings.TrimSpace(content) == "" {
		telemetry.Warn("llm.completion_empty", fields)
		return "", ErrCompletionEmpty
	}
	fields["chars"] = len(content)
	fields["stop_reason"] = resp.Choices[0].StopReason
	telemetry.Info("llm.completion", fields)
	return content, nil
}

// PlaceholderCompleter fails every request; it stands in when no provider is
// configured so the service can still boot in dev.
type PlaceholderCompleter struct{}

func (PlaceholderCompleter) Complete(ctx context.Context, req Request) (string, error) {
	return "", fmt.Errorf("%w: %v", ErrCompletionTransport, ErrNotConfigured)
}

func isGPT5(model string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(model)), "gpt-5")
}

var (
	_ Completer = (*ModelCompleter)(nil)
	_ Completer = PlaceholderCompleter{}
)
