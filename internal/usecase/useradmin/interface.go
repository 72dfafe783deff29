package useradmin

import (
	"context"
	"io"

	"github.com/google/uuid"

	domain "github.com/ovee/byceps/internal/domain/user"
)

// Repository defines the persistence operations required by the user
// administration use cases.
type Repository interface {
	Create(ctx context.Context, u *domain.User, passwordHash string) error
	Update(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByScreenName(ctx context.Context, screenName string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetCredentials(ctx context.Context, screenName string) (*domain.User, string, []string, error)
	List(ctx context.Context, term string, filter domain.StatusFilter, page, limit int64) ([]domain.User, int64, error)
	CountsByStatus(ctx context.Context) (domain.StatusCounts, error)
}

// CountsCache caches the per-status user totals shown in the list
// page tabs.
type CountsCache interface {
	GetUserCounts(ctx context.Context) (*domain.StatusCounts, error)
	SetUserCounts(ctx context.Context, counts domain.StatusCounts) error
	InvalidateUserCounts(ctx context.Context) error
}

// UseCase defines the user administration operations.
type UseCase interface {
	ListUsers(ctx context.Context, req ListUsersRequest) (*ListUsersResponse, error)
	GetUser(ctx context.Context, req GetUserRequest) (*GetUserResponse, error)
	CreateAccount(ctx context.Context, req CreateAccountRequest) (*CreateAccountResponse, error)
	SetSuspended(ctx context.Context, req SetSuspendedRequest) error
	DeleteUser(ctx context.Context, req DeleteUserRequest) error
	Authenticate(ctx context.Context, screenName, password string) (*AuthResult, error)
	ImportUsers(ctx context.Context, r io.Reader) (*ImportResult, error)
}
