package cache

import (
	"context"

	"github.com/ovee/byceps/internal/domain/guestserver"
	"github.com/ovee/byceps/internal/domain/user"
)

// NoopCountsCache is a CountsCache that caches nothing. Used by
// one-shot tools that have no Redis connection.
type NoopCountsCache struct{}

// NewNoopCountsCache creates a counts cache that always misses.
func NewNoopCountsCache() CountsCache {
	return NoopCountsCache{}
}

func (NoopCountsCache) GetUserCounts(context.Context) (*user.StatusCounts, error) {
	return nil, nil
}

func (NoopCountsCache) SetUserCounts(context.Context, user.StatusCounts) error {
	return nil
}

func (NoopCountsCache) InvalidateUserCounts(context.Context) error {
	return nil
}

func (NoopCountsCache) GetServerCounts(context.Context, string) (*guestserver.StatusCounts, error) {
	return nil, nil
}

func (NoopCountsCache) SetServerCounts(context.Context, string, guestserver.StatusCounts) error {
	return nil
}

func (NoopCountsCache) InvalidateServerCounts(context.Context, string) error {
	return nil
}
