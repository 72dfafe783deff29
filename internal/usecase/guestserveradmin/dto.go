package guestserveradmin

import (
	"github.com/google/uuid"

	"github.com/ovee/byceps/internal/domain/guestserver"
	"github.com/ovee/byceps/internal/domain/party"
)

// ListServersResponse carries everything the dashboard page shows: the
// party, the servers with sorted addresses, the per-status totals and
// the network setting.
type ListServersResponse struct {
	Party   party.Party
	Servers []guestserver.Server
	Counts  guestserver.StatusCounts
	Setting guestserver.Setting
}

// GetServerResponse carries a single server plus the party it belongs
// to.
type GetServerResponse struct {
	Party  party.Party
	Server guestserver.Server
}

// AddressInput is one address submitted with a registration.
type AddressInput struct {
	IPAddress string `validate:"omitempty,ip"`
	Hostname  string `validate:"omitempty,hostname_rfc1123,max=20"`
	Netmask   string `validate:"omitempty,ip"`
	Gateway   string `validate:"omitempty,ip"`
}

// RegisterServerRequest represents an admin-side server registration on
// behalf of an owner.
type RegisterServerRequest struct {
	PartyID         string         `validate:"required"`
	CreatorID       uuid.UUID      `validate:"required"`
	OwnerScreenName string         `validate:"required"`
	Description     string         `validate:"max=200"`
	NotesOwner      string         `validate:"max=1000"`
	NotesAdmin      string         `validate:"max=1000"`
	Addresses       []AddressInput `validate:"dive"`
}

// RegisterServerResponse returns the identifier of the new server.
type RegisterServerResponse struct {
	ID uuid.UUID
}

// TransitionRequest represents an approval, check-in or check-out.
type TransitionRequest struct {
	ServerID  uuid.UUID
	Initiator uuid.UUID
}

// UpdateNotesRequest represents an admin editing the admin notes of a
// server.
type UpdateNotesRequest struct {
	ServerID   uuid.UUID
	NotesAdmin string `validate:"max=1000"`
}

// UpdateSettingRequest represents the per-party network setting form.
type UpdateSettingRequest struct {
	PartyID    string `validate:"required"`
	Netmask    string `validate:"omitempty,ip"`
	Gateway    string `validate:"omitempty,ip"`
	DNSServer1 string `validate:"omitempty,ip"`
	DNSServer2 string `validate:"omitempty,ip"`
	Domain     string `validate:"omitempty,fqdn"`
}

// DeleteServerRequest represents the removal of a server registration.
type DeleteServerRequest struct {
	ServerID  uuid.UUID
	Initiator uuid.UUID
}
