package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"medreport-backend/internal/shared/auth"
	"medreport-backend/internal/shared/server/respond"
)

const (
	userIDKey      = "userId"
	userEmailKey   = "userEmail"
	userNameKey    = "userName"
	userPictureKey = "userPicture"
	isGuestKey     = "isGuest"
)

// TokenVerifier validates a bearer token and returns its identity.
type TokenVerifier interface {
	Verify(token string) (auth.Claims, error)
}

// AuthOptions configures the identity middleware.
type AuthOptions struct {
	// Tokens verifies bearer tokens. Without it every bearer token is rejected.
	Tokens TokenVerifier
	// AllowGuests maps an X-Guest-Id header to the "guest:<id>" identity.
	AllowGuests bool
	// PublicPrefixes are path prefixes served without identity.
	PublicPrefixes []string
}

// DefaultPublicPrefixes lists the routes that never require identity.
var DefaultPublicPrefixes = []string{
	"/api/v1/health",
	"/api/v1/auth/google/",
	"/metrics",
}

// Auth validates bearer JWTs (or guest headers when allowed) and stores the
// identity in the gin context.
func Auth(opts AuthOptions) gin.HandlerFunc {
	public := opts.PublicPrefixes
	if public == nil {
		public = DefaultPublicPrefixes
	}

	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		path := c.Request.URL.Path
		for _, prefix := range public {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))

		if authHeader != "" {
			if !strings.HasPrefix(authHeader, "Bearer ") {
				rejectUnauthorized(c, "missing or invalid token")
				return
			}

			token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
			if token == "" {
				rejectUnauthorized(c, "missing or invalid token")
				return
			}

			if opts.Tokens == nil {
				rejectUnauthorized(c, "missing or invalid token")
				return
			}
			claims, err := opts.Tokens.Verify(token)
			if err != nil {
				rejectUnauthorized(c, "missing or invalid token")
				return
			}

			c.Set(userIDKey, claims.Sub)
			if claims.Email != "" {
				c.Set(userEmailKey, claims.Email)
			}
			if claims.Name != "" {
				c.Set(userNameKey, claims.Name)
			}
			if claims.Picture != "" {
				c.Set(userPictureKey, claims.Picture)
			}
			c.Set(isGuestKey, false)
			c.Next()
			return
		}

		guestID := strings.TrimSpace(c.GetHeader("X-Guest-Id"))
		if !opts.AllowGuests || guestID == "" {
			rejectUnauthorized(c, "Missing identity")
			return
		}

		c.Set(userIDKey, "guest:"+guestID)
		c.Set(isGuestKey, true)
		c.Next()
	}
}

func rejectUnauthorized(c *gin.Context, message string) {
	if usesFailureShape(c.Request.URL.Path) {
		respond.Failure(c, http.StatusUnauthorized, "unauthorized", message, nil)
		return
	}
	respond.Error(c, http.StatusUnauthorized, "unauthorized", message, nil)
}

// UserIDFromContext fetches the user ID set by the auth middleware.
func UserIDFromContext(c *gin.Context) string {
	return contextString(c, userIDKey)
}

// UserEmailFromContext fetches the user email set by the auth middleware.
func UserEmailFromContext(c *gin.Context) string {
	return contextString(c, userEmailKey)
}

// UserNameFromContext fetches the user name set by the auth middleware.
func UserNameFromContext(c *gin.Context) string {
	return contextString(c, userNameKey)
}

// UserPictureFromContext fetches the user picture set by the auth middleware.
func UserPictureFromContext(c *gin.Context) string {
	return contextString(c, userPictureKey)
}

func contextString(c *gin.Context, key string) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(key)
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}
