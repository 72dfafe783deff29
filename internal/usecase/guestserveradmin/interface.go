package guestserveradmin

import (
	"context"

	"github.com/google/uuid"

	"github.com/ovee/byceps/internal/domain/guestserver"
	"github.com/ovee/byceps/internal/domain/party"
	"github.com/ovee/byceps/internal/domain/user"
)

// Repository defines the persistence operations required by the guest
// server administration use cases.
type Repository interface {
	GetParty(ctx context.Context, id string) (*party.Party, error)
	CreateServer(ctx context.Context, server *guestserver.Server) error
	UpdateServer(ctx context.Context, server *guestserver.Server) error
	DeleteServer(ctx context.Context, id uuid.UUID) error
	GetServer(ctx context.Context, id uuid.UUID) (*guestserver.Server, error)
	ListServers(ctx context.Context, partyID string) ([]guestserver.Server, error)
	CountsByStatus(ctx context.Context, partyID string) (guestserver.StatusCounts, error)
	CountServersForOwner(ctx context.Context, partyID string, ownerID uuid.UUID) (int64, error)
	UserUsesTicket(ctx context.Context, partyID string, userID uuid.UUID) (bool, error)
	UserIsOrga(ctx context.Context, partyID string, userID uuid.UUID) (bool, error)
	GetSetting(ctx context.Context, partyID string) (*guestserver.Setting, error)
	UpsertSetting(ctx context.Context, setting *guestserver.Setting) error
}

// UserResolver resolves the users involved in a registration.
type UserResolver interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	GetByScreenName(ctx context.Context, screenName string) (*user.User, error)
}

// CountsCache caches the per-status server totals shown on the
// dashboard.
type CountsCache interface {
	GetServerCounts(ctx context.Context, partyID string) (*guestserver.StatusCounts, error)
	SetServerCounts(ctx context.Context, partyID string, counts guestserver.StatusCounts) error
	InvalidateServerCounts(ctx context.Context, partyID string) error
}

// EventPublisher announces completed lifecycle transitions.
type EventPublisher interface {
	Publish(ctx context.Context, event guestserver.Event) error
}

// UseCase defines the guest server administration operations.
type UseCase interface {
	ListServers(ctx context.Context, partyID string) (*ListServersResponse, error)
	GetServer(ctx context.Context, serverID uuid.UUID) (*GetServerResponse, error)
	RegisterServer(ctx context.Context, req RegisterServerRequest) (*RegisterServerResponse, error)
	ApproveServer(ctx context.Context, req TransitionRequest) error
	CheckInServer(ctx context.Context, req TransitionRequest) error
	CheckOutServer(ctx context.Context, req TransitionRequest) error
	UpdateNotes(ctx context.Context, req UpdateNotesRequest) error
	UpdateSetting(ctx context.Context, req UpdateSettingRequest) error
	DeleteServer(ctx context.Context, req DeleteServerRequest) error
}
