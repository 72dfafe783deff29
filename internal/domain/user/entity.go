package user

import (
	"time"

	"github.com/google/uuid"
)

// User represents a user account in the system.
type User struct {
	ID           uuid.UUID // Unique identifier for the user
	CreatedAt    time.Time // When the account was created
	ScreenName   string    // Public name shown across the site
	EmailAddress string    // Unique email address, may be empty for imported accounts
	Initialized  bool      // Whether the account has been activated by its owner
	Suspended    bool      // Whether the account is currently suspended
	Deleted      bool      // Whether the account has been (softly) deleted
}

// Status derives the display status of a user from its flags.
// Deletion wins over suspension, suspension over the uninitialized state.
func (u User) Status() Status {
	switch {
	case u.Deleted:
		return StatusDeleted
	case u.Suspended:
		return StatusSuspended
	case !u.Initialized:
		return StatusUninitialized
	default:
		return StatusActive
	}
}
