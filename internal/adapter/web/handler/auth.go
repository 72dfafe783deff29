package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ovee/byceps/internal/adapter/web/session"
	"github.com/ovee/byceps/internal/adapter/web/view"
	"github.com/ovee/byceps/internal/usecase/useradmin"
)

// AuthHandler serves the login and logout flow.
type AuthHandler struct {
	users    useradmin.UseCase
	sessions *session.Manager
	renderer *view.Renderer
	log      *zap.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(users useradmin.UseCase, sessions *session.Manager, renderer *view.Renderer, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		users:    users,
		sessions: sessions,
		renderer: renderer,
		log:      log,
	}
}

// LoginForm renders the login page.
func (h *AuthHandler) LoginForm(c *gin.Context) {
	render(c, h.renderer, http.StatusOK, "login", "Log in", map[string]any{
		"ScreenName": "",
		"Error":      "",
	})
}

// Login verifies the submitted credentials and starts a session.
func (h *AuthHandler) Login(c *gin.Context) {
	screenName := strings.TrimSpace(c.PostForm("screen_name"))
	password := c.PostForm("password")

	result, err := h.users.Authenticate(c.Request.Context(), screenName, password)
	if err != nil {
		render(c, h.renderer, http.StatusForbidden, "login", "Log in", map[string]any{
			"ScreenName": screenName,
			"Error":      "Login failed.",
		})
		return
	}

	token, err := h.sessions.Issue(result.User, result.Permissions)
	if err != nil {
		renderError(c, h.renderer, h.log, err)
		return
	}

	maxAge := int(h.sessions.TTL().Seconds())
	c.SetCookie(h.sessions.CookieName, token, maxAge, "/", "", h.sessions.Secure, true)

	next := c.Query("next")
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		next = "/admin/users"
	}
	c.Redirect(http.StatusSeeOther, next)
}

// Logout ends the session.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetCookie(h.sessions.CookieName, "", -1, "/", "", h.sessions.Secure, true)
	c.Redirect(http.StatusSeeOther, "/login")
}
