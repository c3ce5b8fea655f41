package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"

	"medreport-backend/internal/shared/metrics"
	"medreport-backend/internal/shared/server/respond"
	"medreport-backend/internal/shared/telemetry"
	"medreport-backend/internal/shared/util"
)

// Recovery turns a handler panic into a 500. Analysis and chat callers get
// the {success:false} shape their clients parse; everything else gets the
// standard error object.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			metrics.IncPanic()
			telemetry.Error("panic", map[string]any{
				"request_id": RequestIDFromContext(c),
				"error":      util.SanitizeError(fmt.Errorf("%v", rec)),
				"stack":      string(debug.Stack()),
				"path":       c.Request.URL.Path,
				"method":     c.Request.Method,
				"user_id":    c.GetString(userIDKey),
			})
			if c.Writer.Written() {
				c.Abort()
				return
			}
			if usesFailureShape(c.Request.URL.Path) {
				respond.Failure(c, http.StatusInternalServerError, "internal", "Unexpected server error", nil)
				return
			}
			respond.Error(c, http.StatusInternalServerError, "internal", "Unexpected server error", nil)
		}()
		c.Next()
	}
}

func usesFailureShape(path string) bool {
	for _, prefix := range []string{"/api/v1/analyze-report", "/api/v1/chat", "/api/v1/reports"} {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
