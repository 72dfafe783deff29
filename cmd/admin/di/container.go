package di

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ovee/byceps/cmd/admin/infrastructure"
	"github.com/ovee/byceps/internal/adapter/cache"
	"github.com/ovee/byceps/internal/adapter/db/postgres"
	"github.com/ovee/byceps/internal/adapter/events"
	"github.com/ovee/byceps/internal/adapter/repository/cached"
	"github.com/ovee/byceps/internal/adapter/web/handler"
	"github.com/ovee/byceps/internal/adapter/web/session"
	"github.com/ovee/byceps/internal/adapter/web/view"
	"github.com/ovee/byceps/internal/config"
	"github.com/ovee/byceps/internal/usecase/guestserveradmin"
	"github.com/ovee/byceps/internal/usecase/useradmin"
	redisclient "github.com/ovee/byceps/pkg/redis"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	DB          *gorm.DB
	RedisClient *redisclient.Client

	UserUC        useradmin.UseCase
	GuestServerUC guestserveradmin.UseCase

	Sessions *session.Manager
	Renderer *view.Renderer

	AuthHandler        *handler.AuthHandler
	UserHandler        *handler.UserAdminHandler
	GuestServerHandler *handler.GuestServerAdminHandler
}

// NewContainer creates and initializes all application dependencies
func NewContainer(ctx context.Context, cfg *config.Config, l *zap.Logger) (*Container, error) {
	// Validate configuration before initializing any dependencies
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	// Initialize database
	db, err := infrastructure.NewDatabase(ctx, cfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Initialize Redis client
	rdb, err := infrastructure.NewRedisClient(cfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}

	// Initialize cache layer
	userCache := cache.NewRedisUserCache(rdb.Client, time.Duration(cfg.Redis.CacheTTL)*time.Second, l)
	countsCache := cache.NewRedisCountsCache(rdb.Client, time.Duration(cfg.Redis.CountsTTL)*time.Second, l)

	// Initialize repositories
	userRepoPG := postgres.NewUserRepoPG(db, l)
	userRepo := cached.NewUserRepository(userRepoPG, userCache, l)
	serverRepo := postgres.NewGuestServerRepoPG(db, l)

	// Initialize event publisher
	publisher := events.NewRedisPublisher(rdb, cfg.Redis.EventChannel, l)

	// Initialize use cases
	userUC := useradmin.NewUseCase(userRepo, countsCache, l)
	serverUC := guestserveradmin.NewUseCase(serverRepo, userRepo, countsCache, publisher, l)

	// Initialize web layer
	renderer, err := view.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize renderer: %w", err)
	}

	sessions, err := session.NewManager(
		cfg.Session.Secret,
		time.Duration(cfg.Session.TTLMinutes)*time.Minute,
		cfg.Session.CookieName,
		cfg.Session.SecureCookie,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session manager: %w", err)
	}

	return &Container{
		Config:             cfg,
		Logger:             l,
		DB:                 db,
		RedisClient:        rdb,
		UserUC:             userUC,
		GuestServerUC:      serverUC,
		Sessions:           sessions,
		Renderer:           renderer,
		AuthHandler:        handler.NewAuthHandler(userUC, sessions, renderer, l),
		UserHandler:        handler.NewUserAdminHandler(userUC, renderer, l),
		GuestServerHandler: handler.NewGuestServerAdminHandler(serverUC, cfg.App.CurrentParty, renderer, l),
	}, nil
}

// Close closes all resources held by the container
func (c *Container) Close() error {
	var errs []error

	// Close Redis connection
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	// Close database connection
	if c.DB != nil {
		if err := infrastructure.CloseDatabase(c.DB); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("container close errors: %v", errs)
	}

	return nil
}
