// Package cached wraps persistent repositories with cache-aside
// behavior.
package cached

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/ovee/byceps/internal/adapter/cache"
	domain "github.com/ovee/byceps/internal/domain/user"
	"github.com/ovee/byceps/internal/usecase/useradmin"
)

// UserRepository implements useradmin.Repository with caching support.
// It wraps a persistent repository (DB) and a cache implementation.
type UserRepository struct {
	dbRepo useradmin.Repository
	cache  cache.UserCache
	log    *zap.Logger
	group  singleflight.Group
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(dbRepo useradmin.Repository, cache cache.UserCache, log *zap.Logger) useradmin.Repository {
	return &UserRepository{
		dbRepo: dbRepo,
		cache:  cache,
		log:    log,
	}
}

// Create delegates to the DB repository.
func (r *UserRepository) Create(ctx context.Context, u *domain.User, passwordHash string) error {
	return r.dbRepo.Create(ctx, u, passwordHash)
}

// GetByID retrieves a user by ID using Cache-Aside pattern.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	// Try to get from cache first
	if r.cache != nil {
		cachedUser, err := r.cache.Get(ctx, id)
		if err != nil {
			r.log.Warn("cache get error, falling back to database", zap.String("id", id.String()), zap.Error(err))
		} else if cachedUser != nil {
			r.log.Debug("user retrieved from cache", zap.String("id", id.String()))
			return cachedUser, nil
		}
	}

	// Cache miss or cache disabled - use single-flight to prevent stampede
	key := fmt.Sprintf("user:%s", id)
	result, err, _ := r.group.Do(key, func() (any, error) {
		// Double-check cache in case another request populated it while we were waiting
		if r.cache != nil {
			cachedUser, err := r.cache.Get(ctx, id)
			if err == nil && cachedUser != nil {
				r.log.Debug("user retrieved from cache after single-flight wait", zap.String("id", id.String()))
				return cachedUser, nil
			}
		}

		// Only one request hits database
		u, err := r.dbRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		// Store in cache for future requests
		if r.cache != nil {
			if err := r.cache.Set(ctx, u); err != nil {
				r.log.Warn("failed to cache user", zap.String("id", id.String()), zap.Error(err))
			}
		}

		return u, nil
	})

	if err != nil {
		return nil, err
	}

	return result.(*domain.User), nil
}

// GetByScreenName delegates to the DB repository.
func (r *UserRepository) GetByScreenName(ctx context.Context, screenName string) (*domain.User, error) {
	return r.dbRepo.GetByScreenName(ctx, screenName)
}

// GetByEmail delegates to the DB repository.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.dbRepo.GetByEmail(ctx, email)
}

// GetCredentials delegates to the DB repository. Credential lookups are
// deliberately never cached.
func (r *UserRepository) GetCredentials(ctx context.Context, screenName string) (*domain.User, string, []string, error) {
	return r.dbRepo.GetCredentials(ctx, screenName)
}

// Update updates the user in DB and invalidates the cache.
func (r *UserRepository) Update(ctx context.Context, u *domain.User) error {
	if err := r.dbRepo.Update(ctx, u); err != nil {
		return err
	}

	// Invalidate cache after successful update
	if r.cache != nil {
		if err := r.cache.Delete(ctx, u.ID); err != nil {
			r.log.Warn("failed to invalidate cache after update", zap.String("id", u.ID.String()), zap.Error(err))
		}
	}

	return nil
}

// List delegates to the DB repository.
func (r *UserRepository) List(ctx context.Context, term string, filter domain.StatusFilter, page, limit int64) ([]domain.User, int64, error) {
	return r.dbRepo.List(ctx, term, filter, page, limit)
}

// CountsByStatus delegates to the DB repository. The totals are cached
// at the use case level instead.
func (r *UserRepository) CountsByStatus(ctx context.Context) (domain.StatusCounts, error) {
	return r.dbRepo.CountsByStatus(ctx)
}
