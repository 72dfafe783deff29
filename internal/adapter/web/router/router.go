// Package router wires the middleware chain and the admin routes.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ovee/byceps/internal/adapter/web/handler"
	"github.com/ovee/byceps/internal/adapter/web/middleware"
	"github.com/ovee/byceps/internal/adapter/web/session"
	"github.com/ovee/byceps/internal/adapter/web/static"
	"github.com/ovee/byceps/internal/adapter/web/view"
	"github.com/ovee/byceps/internal/domain/authz"
)

// Deps carries everything the router needs.
type Deps struct {
	Renderer    *view.Renderer
	Sessions    *session.Manager
	Auth        *handler.AuthHandler
	Users       *handler.UserAdminHandler
	GuestServer *handler.GuestServerAdminHandler
	RateLimit   middleware.RateLimiterConfig
	Redis       *goredis.Client
	Log         *zap.Logger
}

// New builds the gin engine with all routes registered.
func New(deps Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.RequestLogger(deps.Log),
		middleware.Recovery(deps.Renderer, deps.Log),
		middleware.RateLimiter(deps.RateLimit, deps.Redis),
	)

	r.StaticFS("/static", http.FS(static.FS))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/login", deps.Auth.LoginForm)
	r.POST("/login", deps.Auth.Login)
	r.POST("/logout", deps.Auth.Logout)
	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusSeeOther, "/admin/users")
	})

	admin := r.Group("/admin", middleware.Authenticate(deps.Sessions))

	users := admin.Group("/users", middleware.RequirePermission(deps.Renderer, authz.UserView))
	users.GET("", deps.Users.Index)
	users.GET("/:id", deps.Users.Detail)

	userAdmin := users.Group("", middleware.RequirePermission(deps.Renderer, authz.UserAdministrate))
	userAdmin.GET("/create", deps.Users.CreateForm)
	userAdmin.POST("/create", deps.Users.Create)
	userAdmin.POST("/:id/suspend", deps.Users.Suspend)
	userAdmin.POST("/:id/unsuspend", deps.Users.Unsuspend)
	userAdmin.POST("/:id/delete", deps.Users.Delete)

	servers := admin.Group("/guest_servers", middleware.RequirePermission(deps.Renderer, authz.GuestServerView))
	servers.GET("", deps.GuestServer.Index)

	serverAdmin := servers.Group("", middleware.RequirePermission(deps.Renderer, authz.GuestServerAdministrate))
	serverAdmin.GET("/create", deps.GuestServer.RegisterForm)
	serverAdmin.POST("/create", deps.GuestServer.Register)
	serverAdmin.GET("/setting", deps.GuestServer.SettingForm)
	serverAdmin.POST("/setting", deps.GuestServer.UpdateSetting)

	servers.GET("/:id", deps.GuestServer.Detail)
	serverAdmin.POST("/:id/approve", deps.GuestServer.Approve)
	serverAdmin.POST("/:id/check_in", deps.GuestServer.CheckIn)
	serverAdmin.POST("/:id/check_out", deps.GuestServer.CheckOut)
	serverAdmin.POST("/:id/notes", deps.GuestServer.UpdateNotes)
	serverAdmin.POST("/:id/delete", deps.GuestServer.Delete)

	return r
}
