package reports

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"medreport-backend/internal/shared/server/middleware"
	"medreport-backend/internal/shared/server/respond"
	"medreport-backend/internal/shared/telemetry"
	"medreport-backend/internal/shared/util"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handler serves report history for the authenticated caller.
type Handler struct {
	Repo Repo
	Now  func() time.Time
}

func NewHandler(repo Repo) *Handler {
	return &Handler{Repo: repo, Now: time.Now}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/reports", h.list)
	rg.GET("/reports/export", h.export)
	rg.GET("/reports/:id", h.get)
}

func (h *Handler) list(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if userID == "" {
		respond.Failure(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
		return
	}
	items, err := h.Repo.ListByUser(c.Request.Context(), userID, HistoryLimit)
	if err != nil {
		telemetry.Error("reports.list_failed", map[string]any{"user_id": userID, "error": err})
		respond.Failure(c, http.StatusInternalServerError, "internal_error", "Failed to fetch reports", nil)
		return
	}
	respond.Success(c, http.StatusOK, gin.H{"reports": items})
}

func (h *Handler) get(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if userID == "" {
		respond.Failure(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
		return
	}
	report, err := h.Repo.GetByID(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Failure(c, http.StatusNotFound, "not_found", "Report not found", nil)
			return
		}
		telemetry.Error("reports.get_failed", map[string]any{"user_id": userID, "report_id": c.Param("id"), "error": err})
		respond.Failure(c, http.StatusInternalServerError, "internal_error", "Failed to fetch report", nil)
		return
	}
	c.Set(middleware.ReportIDKey, report.ID)
	respond.Success(c, http.StatusOK, gin.H{"report": report})
}

func (h *Handler) export(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if userID == "" {
		respond.Failure(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
		return
	}
	items, err := h.Repo.ListByUser(c.Request.Context(), userID, ExportLimit)
	if err != nil {
		telemetry.Error("reports.export_failed", map[string]any{"user_id": userID, "error": err})
		respond.Failure(c, http.StatusInternalServerError, "internal_error", "Failed to fetch reports", nil)
		return
	}
	payload, err := ExportXLSX(items)
	if err != nil {
		telemetry.Error("reports.export_failed", map[string]any{"user_id": userID, "error": err})
		respond.Failure(c, http.StatusInternalServerError, "internal_error", "Failed to build export", nil)
		return
	}

	name := fmt.Sprintf("reports-%s-%s.xlsx", util.UserKey(userID), h.now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, xlsxContentType, payload)
}

func (h *Handler) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}
