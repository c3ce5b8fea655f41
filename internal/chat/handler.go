package chat

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"medreport-backend/internal/llm"
	"medreport-backend/internal/shared/server/middleware"
	"medreport-backend/internal/shared/server/respond"
	"medreport-backend/internal/shared/telemetry"
	"medreport-backend/internal/shared/util"
)

// MaxMessageChars bounds a single chat message, counted in characters.
const MaxMessageChars = 4000

type request struct {
	Message string `json:"message"`
}

type response struct {
	Success  bool   `json:"success"`
	Response string `json:"response"`
}

// Handler forwards free-text questions to the completion service.
type Handler struct {
	Completer llm.Completer
}

func NewHandler(completer llm.Completer) *Handler {
	return &Handler{Completer: completer}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/chat", h.chat)
}

func (h *Handler) chat(c *gin.Context) {
	var req request
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Failure(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		respond.Failure(c, http.StatusBadRequest, "validation_error", "Message is required", nil)
		return
	}
	if utf8.RuneCountInString(message) > MaxMessageChars {
		respond.Failure(c, http.StatusBadRequest, "validation_error", "Message is too long", nil)
		return
	}

	answer, err := h.Completer.Complete(c.Request.Context(), llm.ChatRequest(message))
	if err != nil {
		telemetry.Error("chat.completion_failed", map[string]any{
			"request_id": middleware.RequestIDFromContext(c),
			"user_id":    middleware.UserIDFromContext(c),
			"error":      util.SanitizeError(err),
		})
		respond.Failure(c, http.StatusInternalServerError, "completion_error", "Failed to process chat message", util.SanitizeError(err))
		return
	}
	respond.JSON(c, http.StatusOK, response{Success: true, Response: answer})
}
