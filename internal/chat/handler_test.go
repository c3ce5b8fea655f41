package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"medreport-backend/internal/llm"
)

type fakeCompleter struct {
	answer string
	err    error
	last   llm.Request
}

func (f *fakeCompleter) Complete(ctx context.Context, req llm.Request) (string, error) {
	f.last = req
	return f.answer, f.err
}

func postChat(t *testing.T, completer llm.Completer, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(completer).RegisterRoutes(r.Group("/api/v1"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestChatUsesConversationalSettings(t *testing.T) {
	fake := &fakeCompleter{answer: "Hemoglobin carries oxygen in your blood."}
	resp := postChat(t, fake, `{"message":"What is hemoglobin?"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["success"] != true || body["response"] != fake.answer {
		t.Fatalf("unexpected body %v", body)
	}
	if fake.last.Temperature != llm.ChatTemperature || fake.last.MaxTokens != llm.ChatMaxTokens || fake.last.User != "What is hemoglobin?" {
		t.Fatalf("unexpected request %+v", fake.last)
	}
}

func TestChatValidation(t *testing.T) {
	for _, body := range []string{`{}`, `{"message":"   "}`, `not json`, `{"message":"` + strings.Repeat("a", MaxMessageChars+1) + `"}`} {
		resp := postChat(t, &fakeCompleter{}, body)
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("body %.20q: expected 400, got %d", body, resp.Code)
		}
	}
}

func TestChatLengthCountsCharacters(t *testing.T) {
	atLimit := strings.Repeat("é", MaxMessageChars)
	resp := postChat(t, &fakeCompleter{answer: "ok"}, `{"message":"`+atLimit+`"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected %d two-byte characters to be accepted, got %d", MaxMessageChars, resp.Code)
	}

	resp = postChat(t, &fakeCompleter{answer: "ok"}, `{"message":"`+atLimit+`é"}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 past the limit, got %d", resp.Code)
	}
}

func TestChatCompletionFailure(t *testing.T) {
	resp := postChat(t, &fakeCompleter{err: errors.New("rate limited")}, `{"message":"hi"}`)
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"success":false`) {
		t.Fatalf("expected failure shape, got %s", resp.Body.String())
	}
}
