package useradmin

import (
	"time"

	"github.com/google/uuid"

	domain "github.com/ovee/byceps/internal/domain/user"
)

// ListUsersRequest represents the request payload for listing users.
// It supports pagination, free-text search and status filtering.
type ListUsersRequest struct {
	SearchTerm string
	Filter     domain.StatusFilter
	Page       int64
	Limit      int64
}

// ListUsersResponse represents the response payload for the user list
// page.
type ListUsersResponse struct {
	Users      []User
	Pagination *domain.Pagination
	Counts     domain.StatusCounts
	SearchTerm string
	Filter     domain.StatusFilter
}

// GetUserRequest represents the request payload for retrieving a user.
type GetUserRequest struct {
	ID uuid.UUID
}

// GetUserResponse represents the response payload for user details.
type GetUserResponse struct {
	User User
}

// CreateAccountRequest represents an account created through the admin
// panel.
type CreateAccountRequest struct {
	ScreenName string `validate:"required,min=2,max=40"`
	Email      string `validate:"omitempty,email"`
	Password   string `validate:"required,min=8,max=100"`
}

// CreateAccountResponse represents the response payload after creating
// an account.
type CreateAccountResponse struct {
	ID uuid.UUID
}

// SetSuspendedRequest represents a suspension state change.
type SetSuspendedRequest struct {
	ID        uuid.UUID
	Suspended bool
	Initiator uuid.UUID
}

// DeleteUserRequest represents the soft deletion of a user.
type DeleteUserRequest struct {
	ID        uuid.UUID
	Initiator uuid.UUID
}

// User represents a user DTO for page rendering.
type User struct {
	ID           uuid.UUID
	CreatedAt    time.Time
	ScreenName   string
	EmailAddress string
	Status       domain.Status
}

func toDTO(u domain.User) User {
	return User{
		ID:           u.ID,
		CreatedAt:    u.CreatedAt,
		ScreenName:   u.ScreenName,
		EmailAddress: u.EmailAddress,
		Status:       u.Status(),
	}
}
