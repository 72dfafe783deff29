package server

import (
	"net/http"
	"time"

	"github.com/ovee/byceps/internal/adapter/web/router"
)

// SetupHTTP creates and configures the HTTP server serving the admin
// panel routes.
func SetupHTTP(addr string, deps router.Deps) *http.Server {
	engine := router.New(deps)

	return &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 2 * time.Second,
	}
}
