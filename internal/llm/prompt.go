package llm

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"strings"
)

var (
	//go:embed prompts/analysis_system.txt
	analysisSystemPrompt string
	//go:embed prompts/analysis_user.txt
	analysisUserTemplate string
	//go:embed prompts/chat_system.txt
	chatSystemPrompt string
)

// Sampling settings per call site. Structured extraction runs cooler than chat.
const (
	AnalysisTemperature = 0.2
	AnalysisMaxTokens   = 2000
	ChatTemperature     = 0.7
	ChatMaxTokens       = 1000
)

// Prompt is the two-part instruction sent to the completion service.
type Prompt struct {
	System string
	User   string
}

// Hash identifies a prompt in logs without logging report contents.
func (p Prompt) Hash() string {
	sum := sha256.Sum256([]byte("system: " + p.System + "\n\nuser: " + p.User))
	return hex.EncodeToString(sum[:])
}

// BuildAnalysisPrompt embeds the report text verbatim after the schema skeleton.
func BuildAnalysisPrompt(text string) Prompt {
	replacer := strings.NewReplacer("{{REPORT_TEXT}}", text)
	return Prompt{
		System: strings.TrimSpace(analysisSystemPrompt),
		User:   replacer.Replace(analysisUserTemplate),
	}
}

// AnalysisRequest wraps an analysis prompt with the analysis call settings.
func AnalysisRequest(p Prompt) Request {
	return Request{
		System:      p.System,
		User:        p.User,
		Temperature: AnalysisTemperature,
		MaxTokens:   AnalysisMaxTokens,
		Purpose:     "analysis",
	}
}

// ChatRequest wraps a free-text user message with the conversational directive.
func ChatRequest(message string) Request {
	return Request{
		System:      strings.TrimSpace(chatSystemPrompt),
		User:        message,
		Temperature: ChatTemperature,
		MaxTokens:   ChatMaxTokens,
		Purpose:     "chat",
	}
}
