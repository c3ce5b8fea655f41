package users

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"medreport-backend/internal/shared/server/middleware"
	"medreport-backend/internal/shared/server/respond"
	"medreport-backend/internal/shared/telemetry"
)

type Handler struct {
	Repo Repo
}

func NewHandler(repo Repo) *Handler {
	return &Handler{Repo: repo}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", h.me)
}

// me returns the stored profile, or the token identity for callers that were
// never upserted (guests, or a store that has since been reset).
func (h *Handler) me(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if userID == "" {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
		return
	}

	response := gin.H{
		"userId": userID,
		"guest":  c.GetBool("isGuest"),
	}
	if email := middleware.UserEmailFromContext(c); email != "" {
		response["email"] = email
	}
	if name := middleware.UserNameFromContext(c); name != "" {
		response["name"] = name
	}
	if picture := middleware.UserPictureFromContext(c); picture != "" {
		response["picture"] = picture
	}

	if h.Repo != nil && !c.GetBool("isGuest") {
		user, err := h.Repo.GetByID(c.Request.Context(), userID)
		switch {
		case err == nil:
			response["email"] = user.Email
			if user.Name != "" {
				response["name"] = user.Name
			}
			if user.PictureURL != "" {
				response["picture"] = user.PictureURL
			}
			response["createdAt"] = user.CreatedAt
		case errors.Is(err, ErrNotFound):
		default:
			telemetry.Warn("users.lookup_failed", map[string]any{"user_id": userID, "error": err})
		}
	}

	respond.Success(c, http.StatusOK, response)
}
