package pipeline

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"medreport-backend/internal/analysis"
	"medreport-backend/internal/shared/server/middleware"
	"medreport-backend/internal/shared/server/respond"
	"medreport-backend/internal/uploads"
)

// multipartOverhead leaves room for boundaries and headers around the image.
const multipartOverhead = 1 << 20

// AnalyzeResponse is the success body of POST /analyze-report. It does not
// depend on whether the report was saved.
type AnalyzeResponse struct {
	Success  bool                        `json:"success"`
	Text     string                      `json:"text"`
	Analysis analysis.StructuredAnalysis `json:"analysis"`
	Warning  string                      `json:"warning,omitempty"`
}

// Handler exposes the pipeline over HTTP.
type Handler struct {
	Pipeline *Pipeline
}

func NewHandler(p *Pipeline) *Handler {
	return &Handler{Pipeline: p}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/analyze-report", h.analyze)
}

func (h *Handler) analyze(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if userID == "" {
		respond.Failure(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
		return
	}

	upload, err := readUpload(c)
	if err != nil {
		c.Set(middleware.StatusTransitionKey, string(StateUploaded)+"->"+string(StateFailed))
		writeFailure(c, ValidationFailure(err))
		return
	}

	run := h.Pipeline.Execute(c.Request.Context(), userID, upload)
	c.Set(middleware.StatusTransitionKey, run.TransitionSummary())
	if run.Failure != nil {
		writeFailure(c, run.Failure)
		return
	}
	if run.Saved {
		c.Set(middleware.ReportIDKey, run.Report.ID)
	}
	c.Set(middleware.DegradedKey, run.Degraded)
	respond.JSON(c, http.StatusOK, Response(run))
}

// Response builds the success body for a responded run.
func Response(run *Run) AnalyzeResponse {
	resp := AnalyzeResponse{
		Success:  true,
		Text:     run.Text,
		Analysis: run.Analysis,
	}
	if run.Degraded {
		resp.Warning = analysis.DegradedWarning
	}
	return resp
}

func readUpload(c *gin.Context) (uploads.RawUpload, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, uploads.MaxUploadBytes+multipartOverhead)
	fileHeader, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return uploads.RawUpload{}, uploads.ErrTooLarge
		}
		return uploads.RawUpload{}, uploads.ErrMissingFile
	}
	return uploads.FromFileHeader(fileHeader)
}

func writeFailure(c *gin.Context, f *Failure) {
	var details any
	if f.Details != "" {
		details = f.Details
	}
	respond.Failure(c, f.Status, string(f.Kind), f.Message, details)
}
