package middleware

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/ovee/byceps/internal/adapter/web/session"
	"github.com/ovee/byceps/internal/adapter/web/view"
	"github.com/ovee/byceps/internal/domain/authz"
)

// sessionKey is the gin context key the verified session is stored
// under.
const sessionKey = "session"

// SetSession stores a verified session on the request.
func SetSession(c *gin.Context, sess *session.Session) {
	c.Set(sessionKey, sess)
}

// CurrentSession returns the verified session for the request, if any.
func CurrentSession(c *gin.Context) *session.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	return v.(*session.Session)
}

// Authenticate verifies the session cookie and redirects anonymous
// requests to the login page.
func Authenticate(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(sessions.CookieName)
		if err != nil || token == "" {
			redirectToLogin(c)
			return
		}

		sess, err := sessions.Parse(token)
		if err != nil {
			// stale or tampered cookie, drop it
			c.SetCookie(sessions.CookieName, "", -1, "/", "", sessions.Secure, true)
			redirectToLogin(c)
			return
		}

		SetSession(c, sess)
		c.Next()
	}
}

func redirectToLogin(c *gin.Context) {
	target := "/login"
	if c.Request.Method == http.MethodGet && c.Request.URL.Path != "/" {
		target += "?next=" + url.QueryEscape(c.Request.URL.RequestURI())
	}
	c.Redirect(http.StatusSeeOther, target)
	c.Abort()
}

// RequirePermission renders a 403 page unless the session holds the
// permission.
func RequirePermission(renderer *view.Renderer, permission authz.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := CurrentSession(c)
		if sess == nil || !sess.Permissions.Has(permission) {
			c.Abort()
			page := view.Page{Title: "Forbidden"}
			if sess != nil {
				page.ScreenName = sess.ScreenName
				page.Permissions = sess.Permissions
			}
			page.Data = map[string]any{
				"Status":  http.StatusForbidden,
				"Title":   "Forbidden",
				"Message": "You are not allowed to access this page.",
			}
			_ = renderer.HTML(c.Writer, http.StatusForbidden, "error", page)
			return
		}
		c.Next()
	}
}
