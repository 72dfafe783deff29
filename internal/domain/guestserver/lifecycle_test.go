package guestserver

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovee/byceps/internal/domain/party"
	"github.com/ovee/byceps/internal/domain/user"
)

var now = time.Date(2026, 8, 14, 18, 0, 0, 0, time.UTC)

func runningParty() party.Party {
	return party.Party{
		ID:       "summer-2026",
		Title:    "Summer Party 2026",
		StartsAt: now.Add(-24 * time.Hour),
		EndsAt:   now.Add(48 * time.Hour),
	}
}

func testUser(name string) user.User {
	return user.User{ID: uuid.New(), ScreenName: name, Initialized: true}
}

// ==================== REGISTRATION GUARD TESTS ====================

func TestEnsureMayRegisterServer(t *testing.T) {
	p := runningParty()

	tests := []struct {
		name        string
		party       party.Party
		usesTicket  bool
		isOrga      bool
		quantity    int64
		expectedErr error
	}{
		{
			name:       "ticket holder below limit",
			party:      p,
			usesTicket: true,
			quantity:   0,
		},
		{
			name:        "party is over",
			party:       party.Party{ID: "past", EndsAt: now.Add(-time.Hour)},
			usesTicket:  true,
			expectedErr: ErrPartyOver,
		},
		{
			name:        "no ticket",
			party:       p,
			usesTicket:  false,
			expectedErr: ErrNoTicket,
		},
		{
			name:        "quantity limit reached",
			party:       p,
			usesTicket:  true,
			quantity:    MaxServersPerOwner,
			expectedErr: ErrQuantityLimitReached,
		},
		{
			name:     "orga needs no ticket",
			party:    p,
			isOrga:   true,
			quantity: 0,
		},
		{
			name:     "orga is not bound to quantity limit",
			party:    p,
			isOrga:   true,
			quantity: MaxServersPerOwner + 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := EnsureMayRegisterServer(tt.party, now, tt.usesTicket, tt.isOrga, tt.quantity)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// ==================== TRANSITION TESTS ====================

func TestRegisterServer(t *testing.T) {
	p := runningParty()
	creator := testUser("Admin")
	owner := testUser("Owner")

	server, event := RegisterServer(p, creator, owner, "game server", []AddressData{
		{Hostname: "quake"},
		{IPAddress: "10.0.100.104"},
	}, "please assign a static ip", "", now)

	assert.NotEqual(t, uuid.Nil, server.ID)
	assert.Equal(t, p.ID, server.PartyID)
	assert.Equal(t, now, server.CreatedAt)
	assert.False(t, server.Approved)
	assert.False(t, server.CheckedIn)
	assert.False(t, server.CheckedOut)
	assert.Equal(t, StatusPending, server.Status())

	require.Len(t, server.Addresses, 2)
	for _, addr := range server.Addresses {
		assert.Equal(t, server.ID, addr.ServerID)
		assert.NotEqual(t, uuid.Nil, addr.ID)
	}

	assert.Equal(t, EventRegistered, event.Kind)
	assert.Equal(t, creator.ID, event.InitiatorID)
	assert.Equal(t, owner.ID, event.OwnerID)
	assert.Equal(t, server.ID, event.ServerID)
}

func TestApproveServer(t *testing.T) {
	initiator := testUser("Admin")
	server, _ := RegisterServer(runningParty(), initiator, testUser("Owner"), "srv", nil, "", "", now)

	approved, event, err := ApproveServer(server, initiator, now)
	require.NoError(t, err)
	assert.True(t, approved.Approved)
	assert.Equal(t, StatusApproved, approved.Status())
	assert.Equal(t, EventApproved, event.Kind)

	// A second approval must be rejected.
	_, _, err = ApproveServer(approved, initiator, now)
	assert.ErrorIs(t, err, ErrAlreadyApproved)
}

func TestCheckInServer(t *testing.T) {
	initiator := testUser("Admin")
	server, _ := RegisterServer(runningParty(), initiator, testUser("Owner"), "srv", nil, "", "", now)

	// Unapproved servers cannot be checked in.
	_, _, err := CheckInServer(server, initiator, now)
	assert.ErrorIs(t, err, ErrNotApproved)

	approved, _, err := ApproveServer(server, initiator, now)
	require.NoError(t, err)

	checkedIn, event, err := CheckInServer(approved, initiator, now)
	require.NoError(t, err)
	assert.True(t, checkedIn.CheckedIn)
	assert.Equal(t, now, checkedIn.CheckedInAt)
	assert.Equal(t, StatusCheckedIn, checkedIn.Status())
	assert.Equal(t, EventCheckedIn, event.Kind)

	_, _, err = CheckInServer(checkedIn, initiator, now)
	assert.ErrorIs(t, err, ErrAlreadyCheckedIn)
}

func TestCheckOutServer(t *testing.T) {
	initiator := testUser("Admin")
	server, _ := RegisterServer(runningParty(), initiator, testUser("Owner"), "srv", nil, "", "", now)

	// Not yet checked in.
	_, _, err := CheckOutServer(server, initiator, now)
	assert.ErrorIs(t, err, ErrNotCheckedIn)

	approved, _, _ := ApproveServer(server, initiator, now)
	checkedIn, _, _ := CheckInServer(approved, initiator, now)

	later := now.Add(2 * time.Hour)
	checkedOut, event, err := CheckOutServer(checkedIn, initiator, later)
	require.NoError(t, err)
	assert.True(t, checkedOut.CheckedOut)
	assert.Equal(t, later, checkedOut.CheckedOutAt)
	assert.Equal(t, StatusCheckedOut, checkedOut.Status())
	assert.Equal(t, EventCheckedOut, event.Kind)

	_, _, err = CheckOutServer(checkedOut, initiator, later)
	assert.ErrorIs(t, err, ErrAlreadyCheckedOut)

	// Checked-out servers cannot be checked in again either.
	_, _, err = CheckInServer(checkedOut, initiator, later)
	assert.ErrorIs(t, err, ErrAlreadyCheckedOut)
}
