package guestserver

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ovee/byceps/internal/domain/party"
	"github.com/ovee/byceps/internal/domain/user"
)

// MaxServersPerOwner is the number of servers a regular attendee may
// register for a single party. Orgas are exempt.
const MaxServersPerOwner = 5

// Lifecycle guard violations.
var (
	ErrPartyOver            = errors.New("the party is over")
	ErrNoTicket             = errors.New("owner uses no ticket for the party")
	ErrQuantityLimitReached = errors.New("maximum number of servers per owner reached")
	ErrAlreadyApproved      = errors.New("server is already approved")
	ErrNotApproved          = errors.New("server is not approved")
	ErrAlreadyCheckedIn     = errors.New("server is already checked in")
	ErrNotCheckedIn         = errors.New("server is not checked in")
	ErrAlreadyCheckedOut    = errors.New("server is already checked out")
)

// EventKind names a lifecycle transition for announcement purposes.
type EventKind string

const (
	EventRegistered EventKind = "guest-server-registered"
	EventApproved   EventKind = "guest-server-approved"
	EventCheckedIn  EventKind = "guest-server-checked-in"
	EventCheckedOut EventKind = "guest-server-checked-out"
)

// Event describes a completed lifecycle transition.
type Event struct {
	Kind                EventKind `json:"kind"`
	OccurredAt          time.Time `json:"occurred_at"`
	InitiatorID         uuid.UUID `json:"initiator_id"`
	InitiatorScreenName string    `json:"initiator_screen_name"`
	OwnerID             uuid.UUID `json:"owner_id"`
	OwnerScreenName     string    `json:"owner_screen_name"`
	ServerID            uuid.UUID `json:"server_id"`
	PartyID             string    `json:"party_id,omitempty"`
}

// EnsureMayRegisterServer returns an error if the owner is not allowed to
// register a(nother) guest server for the party. Orgas need no ticket and
// are not bound to the quantity limit.
func EnsureMayRegisterServer(p party.Party, now time.Time, ownerUsesTicket, ownerIsOrga bool, registeredQuantity int64) error {
	if p.IsOver(now) {
		return ErrPartyOver
	}

	if ownerIsOrga {
		return nil
	}

	if !ownerUsesTicket {
		return ErrNoTicket
	}

	if registeredQuantity >= MaxServersPerOwner {
		return ErrQuantityLimitReached
	}

	return nil
}

// AddressData carries the caller-supplied values for an address created
// together with a server.
type AddressData struct {
	IPAddress string
	Hostname  string
	Netmask   string
	Gateway   string
}

// RegisterServer builds a new, unapproved server and the matching event.
// Persistence is up to the caller.
func RegisterServer(p party.Party, creator, owner user.User, description string, addressDatas []AddressData, notesOwner, notesAdmin string, now time.Time) (Server, Event) {
	serverID := uuid.New()

	addresses := make([]Address, len(addressDatas))
	for i, data := range addressDatas {
		addresses[i] = Address{
			ID:        uuid.New(),
			ServerID:  serverID,
			CreatedAt: now,
			IPAddress: data.IPAddress,
			Hostname:  data.Hostname,
			Netmask:   data.Netmask,
			Gateway:   data.Gateway,
		}
	}

	server := Server{
		ID:          serverID,
		PartyID:     p.ID,
		CreatedAt:   now,
		Creator:     creator,
		Owner:       owner,
		Description: description,
		NotesOwner:  notesOwner,
		NotesAdmin:  notesAdmin,
		Addresses:   addresses,
	}

	event := Event{
		Kind:                EventRegistered,
		OccurredAt:          now,
		InitiatorID:         creator.ID,
		InitiatorScreenName: creator.ScreenName,
		OwnerID:             owner.ID,
		OwnerScreenName:     owner.ScreenName,
		ServerID:            serverID,
		PartyID:             p.ID,
	}

	return server, event
}

// ApproveServer marks a server as approved.
func ApproveServer(server Server, initiator user.User, now time.Time) (Server, Event, error) {
	if server.Approved {
		return Server{}, Event{}, ErrAlreadyApproved
	}

	server.Approved = true

	return server, transitionEvent(EventApproved, server, initiator, now), nil
}

// CheckInServer marks an approved server as brought in.
func CheckInServer(server Server, initiator user.User, now time.Time) (Server, Event, error) {
	if !server.Approved {
		return Server{}, Event{}, ErrNotApproved
	}
	if server.CheckedIn {
		return Server{}, Event{}, ErrAlreadyCheckedIn
	}
	if server.CheckedOut {
		return Server{}, Event{}, ErrAlreadyCheckedOut
	}

	server.CheckedIn = true
	server.CheckedInAt = now

	return server, transitionEvent(EventCheckedIn, server, initiator, now), nil
}

// CheckOutServer marks a checked-in server as taken away again.
func CheckOutServer(server Server, initiator user.User, now time.Time) (Server, Event, error) {
	if !server.CheckedIn {
		return Server{}, Event{}, ErrNotCheckedIn
	}
	if server.CheckedOut {
		return Server{}, Event{}, ErrAlreadyCheckedOut
	}

	server.CheckedOut = true
	server.CheckedOutAt = now

	return server, transitionEvent(EventCheckedOut, server, initiator, now), nil
}

func transitionEvent(kind EventKind, server Server, initiator user.User, occurredAt time.Time) Event {
	return Event{
		Kind:                kind,
		OccurredAt:          occurredAt,
		InitiatorID:         initiator.ID,
		InitiatorScreenName: initiator.ScreenName,
		OwnerID:             server.Owner.ID,
		OwnerScreenName:     server.Owner.ScreenName,
		ServerID:            server.ID,
		PartyID:             server.PartyID,
	}
}
