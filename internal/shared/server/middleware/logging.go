package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"medreport-backend/internal/shared/telemetry"
)

// Context keys handlers may set for the request log line.
const (
	ReportIDKey         = "reportId"
	StatusTransitionKey = "statusTransition"
	DegradedKey         = "analysisDegraded"
)

// Logging emits a structured log per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()
		reqID := RequestIDFromContext(c)

		userID, _ := c.Get(userIDKey)
		isGuest, _ := c.Get(isGuestKey)
		reportID, _ := c.Get(ReportIDKey)
		degraded, _ := c.Get(DegradedKey)

		telemetry.Info("request.complete", map[string]any{
			"request_id":        reqID,
			"method":            c.Request.Method,
			"path":              c.Request.URL.Path,
			"status":            status,
			"status_transition": c.GetString(StatusTransitionKey),
			"duration_ms":       float64(latency.Microseconds()) / 1000.0,
			"user_id":           userID,
			"report_id":         reportID,
			"degraded":          degraded,
			"is_guest":          isGuest,
			"client_ip":         c.ClientIP(),
			"user_agent":        c.Request.UserAgent(),
		})
	}
}
