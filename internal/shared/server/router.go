package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"medreport-backend/internal/shared/config"
	"medreport-backend/internal/shared/metrics"
	"medreport-backend/internal/shared/server/middleware"
	"medreport-backend/internal/shared/server/respond"
)

// RouteRegistrar attaches a feature's routes to the API group.
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// RouterDeps are the handlers and collaborators the router wires together.
type RouterDeps struct {
	Config config.Config
	Tokens middleware.TokenVerifier
	Health func(c *gin.Context) (bool, any)

	AnalyzeHandler RouteRegistrar
	ReportsHandler RouteRegistrar
	ChatHandler    RouteRegistrar
	UserHandler    RouteRegistrar
	GoogleAuth     RouteRegistrar

	// Now drives the rate limiter clock; nil uses time.Now.
	Now func() time.Time
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	analyzePerMinute := deps.Config.AnalyzeRatePerMinute
	if analyzePerMinute <= 0 {
		analyzePerMinute = 10
	}

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(middleware.AuthOptions{
			Tokens:      deps.Tokens,
			AllowGuests: deps.Config.AllowGuests,
		}),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				middleware.AnalyzeRateLimitGroup: middleware.PerMinute(analyzePerMinute),
			},
			GroupFor: middleware.GroupByRoute(map[string]string{
				"/api/v1/analyze-report": middleware.AnalyzeRateLimitGroup,
				"/api/v1/chat":           middleware.AnalyzeRateLimitGroup,
			}),
			Limiter: middleware.NewRateLimiter(deps.Now),
		}),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		if deps.Health == nil {
			respond.JSON(c, http.StatusOK, gin.H{"ok": true})
			return
		}
		ok, payload := deps.Health(c)
		status := http.StatusOK
		if !ok {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, payload)
	})

	for _, h := range []RouteRegistrar{
		deps.GoogleAuth,
		deps.UserHandler,
		deps.AnalyzeHandler,
		deps.ReportsHandler,
		deps.ChatHandler,
	} {
		if h != nil {
			h.RegisterRoutes(api)
		}
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
