// Package guestserver contains the guest server domain model: servers
// party attendees bring along, the addresses assigned to them, the
// per-party network setting, and the lifecycle rules that govern
// registration, approval, check-in and check-out.
package guestserver

import (
	"time"

	"github.com/google/uuid"

	"github.com/ovee/byceps/internal/domain/user"
)

// Server represents a guest server registered for a party.
type Server struct {
	ID           uuid.UUID // Unique identifier
	PartyID      string    // Party the server is registered for
	CreatedAt    time.Time // When the server was registered
	Creator      user.User // Who submitted the registration
	Owner        user.User // Who the server belongs to
	Description  string    // Free-text description ("what runs on it")
	NotesOwner   string    // Notes left by the owner, may be empty
	NotesAdmin   string    // Notes left by admins, may be empty
	Approved     bool      // Whether an admin approved the server
	CheckedIn    bool      // Whether the server was brought in
	CheckedInAt  time.Time // Zero if not checked in
	CheckedOut   bool      // Whether the server was taken away again
	CheckedOutAt time.Time // Zero if not checked out
	Addresses    []Address // Addresses assigned to the server
}

// Status is the display status of a guest server.
type Status string

const (
	StatusPending    Status = "pending"
	StatusApproved   Status = "approved"
	StatusCheckedIn  Status = "checked_in"
	StatusCheckedOut Status = "checked_out"
)

// Status derives the display status from the lifecycle flags. The most
// advanced reached stage wins.
func (s Server) Status() Status {
	switch {
	case s.CheckedOut:
		return StatusCheckedOut
	case s.CheckedIn:
		return StatusCheckedIn
	case s.Approved:
		return StatusApproved
	default:
		return StatusPending
	}
}

// StatusCounts holds the number of servers per status plus the overall
// total, as shown on the dashboard.
type StatusCounts struct {
	Total      int64
	Pending    int64
	Approved   int64
	CheckedIn  int64
	CheckedOut int64
}

// Setting holds the per-party network configuration handed out to guest
// server owners. Every field is optional.
type Setting struct {
	PartyID    string
	Netmask    string
	Gateway    string
	DNSServer1 string
	DNSServer2 string
	Domain     string
}
