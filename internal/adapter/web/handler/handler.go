// Package handler maps HTTP requests onto the admin use cases and
// renders the results.
package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ovee/byceps/internal/adapter/web/middleware"
	"github.com/ovee/byceps/internal/adapter/web/view"
	"github.com/ovee/byceps/pkg/errors"
)

const flashCookie = "byceps_flash"

// render wraps the page data in the common envelope and renders it.
func render(c *gin.Context, renderer *view.Renderer, status int, page, title string, data any) {
	p := view.Page{
		Title: title,
		Flash: popFlash(c),
		Data:  data,
	}
	if sess := middleware.CurrentSession(c); sess != nil {
		p.ScreenName = sess.ScreenName
		p.Permissions = sess.Permissions
	}
	if err := renderer.HTML(c.Writer, status, page, p); err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err)
	}
}

// renderError renders the error page with the status carried by the
// error. Internal details are never shown for server-side failures.
func renderError(c *gin.Context, renderer *view.Renderer, log *zap.Logger, err error) {
	status := errors.StatusCode(err)
	message := err.Error()
	if status >= 500 {
		log.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		message = "Something went wrong."
	}
	render(c, renderer, status, "error", "Error", map[string]any{
		"Status":  status,
		"Title":   http.StatusText(status),
		"Message": message,
	})
	c.Abort()
}

// setFlash stores a one-shot notice shown on the next rendered page.
func setFlash(c *gin.Context, message string) {
	c.SetCookie(flashCookie, url.QueryEscape(message), 60, "/", "", false, true)
}

func popFlash(c *gin.Context) string {
	value, err := c.Cookie(flashCookie)
	if err != nil || value == "" {
		return ""
	}
	c.SetCookie(flashCookie, "", -1, "/", "", false, true)
	message, err := url.QueryUnescape(value)
	if err != nil {
		return ""
	}
	return message
}
