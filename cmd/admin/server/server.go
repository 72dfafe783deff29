package server

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovee/byceps/internal/adapter/web/router"
	"github.com/ovee/byceps/internal/config"
)

// Server struct holds all server dependencies
type Server struct {
	Config *config.Config
	Logger *zap.Logger
	HTTP   *http.Server
}

// New creates a new server instance
func New(cfg *config.Config, l *zap.Logger, deps router.Deps) *Server {
	return &Server{
		Config: cfg,
		Logger: l,
		HTTP:   SetupHTTP(":"+cfg.App.HTTPPort, deps),
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.Logger.Info("admin panel running", zap.String("address", s.HTTP.Addr))

	if err := s.HTTP.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
