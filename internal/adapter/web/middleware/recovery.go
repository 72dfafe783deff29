package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ovee/byceps/internal/adapter/web/view"
)

// Recovery turns panics into a rendered 500 page instead of a dropped
// connection.
func Recovery(renderer *view.Renderer, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic recovered",
					zap.Any("panic", r),
					zap.String("path", c.Request.URL.Path),
					zap.Stack("stack"))

				c.Abort()
				_ = renderer.HTML(c.Writer, http.StatusInternalServerError, "error", view.Page{
					Title: "Error",
					Data: map[string]any{
						"Status":  http.StatusInternalServerError,
						"Title":   "Internal Server Error",
						"Message": "Something went wrong.",
					},
				})
			}
		}()
		c.Next()
	}
}
