package guestserveradmin

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ovee/byceps/internal/domain/guestserver"
	"github.com/ovee/byceps/internal/domain/party"
	"github.com/ovee/byceps/internal/domain/user"
	"github.com/ovee/byceps/pkg/errors"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) GetParty(ctx context.Context, id string) (*party.Party, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*party.Party), args.Error(1)
}

func (m *mockRepo) CreateServer(ctx context.Context, server *guestserver.Server) error {
	args := m.Called(ctx, server)
	return args.Error(0)
}

func (m *mockRepo) UpdateServer(ctx context.Context, server *guestserver.Server) error {
	args := m.Called(ctx, server)
	return args.Error(0)
}

func (m *mockRepo) DeleteServer(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockRepo) GetServer(ctx context.Context, id uuid.UUID) (*guestserver.Server, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*guestserver.Server), args.Error(1)
}

func (m *mockRepo) ListServers(ctx context.Context, partyID string) ([]guestserver.Server, error) {
	args := m.Called(ctx, partyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]guestserver.Server), args.Error(1)
}

func (m *mockRepo) CountsByStatus(ctx context.Context, partyID string) (guestserver.StatusCounts, error) {
	args := m.Called(ctx, partyID)
	return args.Get(0).(guestserver.StatusCounts), args.Error(1)
}

func (m *mockRepo) CountServersForOwner(ctx context.Context, partyID string, ownerID uuid.UUID) (int64, error) {
	args := m.Called(ctx, partyID, ownerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockRepo) UserUsesTicket(ctx context.Context, partyID string, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, partyID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepo) UserIsOrga(ctx context.Context, partyID string, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, partyID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepo) GetSetting(ctx context.Context, partyID string) (*guestserver.Setting, error) {
	args := m.Called(ctx, partyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*guestserver.Setting), args.Error(1)
}

func (m *mockRepo) UpsertSetting(ctx context.Context, setting *guestserver.Setting) error {
	args := m.Called(ctx, setting)
	return args.Error(0)
}

type mockUsers struct {
	mock.Mock
}

func (m *mockUsers) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *mockUsers) GetByScreenName(ctx context.Context, screenName string) (*user.User, error) {
	args := m.Called(ctx, screenName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

type mockCounts struct {
	mock.Mock
}

func (m *mockCounts) GetServerCounts(ctx context.Context, partyID string) (*guestserver.StatusCounts, error) {
	args := m.Called(ctx, partyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*guestserver.StatusCounts), args.Error(1)
}

func (m *mockCounts) SetServerCounts(ctx context.Context, partyID string, counts guestserver.StatusCounts) error {
	args := m.Called(ctx, partyID, counts)
	return args.Error(0)
}

func (m *mockCounts) InvalidateServerCounts(ctx context.Context, partyID string) error {
	args := m.Called(ctx, partyID)
	return args.Error(0)
}

type mockEvents struct {
	mock.Mock
}

func (m *mockEvents) Publish(ctx context.Context, event guestserver.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

var testTime = time.Date(2025, 8, 15, 12, 0, 0, 0, time.UTC)

func newTestUseCase(t *testing.T) (*useCase, *mockRepo, *mockUsers, *mockCounts, *mockEvents) {
	t.Helper()
	repo := new(mockRepo)
	users := new(mockUsers)
	counts := new(mockCounts)
	events := new(mockEvents)
	uc := NewUseCase(repo, users, counts, events, zaptest.NewLogger(t)).(*useCase)
	uc.now = func() time.Time { return testTime }
	return uc, repo, users, counts, events
}

func runningParty() *party.Party {
	return &party.Party{
		ID:       "acme-2025",
		Title:    "Acmecon 2025",
		StartsAt: testTime.Add(-24 * time.Hour),
		EndsAt:   testTime.Add(24 * time.Hour),
	}
}

func testUser(screenName string) *user.User {
	return &user.User{
		ID:          uuid.New(),
		ScreenName:  screenName,
		Initialized: true,
	}
}

func pendingServer(p *party.Party, owner *user.User) *guestserver.Server {
	return &guestserver.Server{
		ID:        uuid.New(),
		PartyID:   p.ID,
		CreatedAt: testTime,
		Creator:   *owner,
		Owner:     *owner,
	}
}

func TestListServers(t *testing.T) {
	uc, repo, _, counts, _ := newTestUseCase(t)
	ctx := context.Background()
	p := runningParty()
	owner := testUser("owner")

	server := *pendingServer(p, owner)
	server.Addresses = []guestserver.Address{
		{Hostname: "beta"},
		{IPAddress: "10.0.0.2", Hostname: "alpha"},
	}

	repo.On("GetParty", ctx, p.ID).Return(p, nil)
	repo.On("ListServers", ctx, p.ID).Return([]guestserver.Server{server}, nil)
	counts.On("GetServerCounts", ctx, p.ID).Return(nil, nil)
	repo.On("CountsByStatus", ctx, p.ID).
		Return(guestserver.StatusCounts{Total: 1, Pending: 1}, nil)
	counts.On("SetServerCounts", ctx, p.ID, mock.Anything).Return(nil)
	repo.On("GetSetting", ctx, p.ID).
		Return(&guestserver.Setting{PartyID: p.ID, Gateway: "10.0.0.1"}, nil)

	resp, err := uc.ListServers(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Title, resp.Party.Title)
	assert.Equal(t, int64(1), resp.Counts.Pending)
	assert.Equal(t, "10.0.0.1", resp.Setting.Gateway)

	// addresses with an IP come before hostname-only ones
	require.Len(t, resp.Servers[0].Addresses, 2)
	assert.Equal(t, "10.0.0.2", resp.Servers[0].Addresses[0].IPAddress)
	assert.Equal(t, "beta", resp.Servers[0].Addresses[1].Hostname)
}

func TestRegisterServer(t *testing.T) {
	uc, repo, users, counts, events := newTestUseCase(t)
	ctx := context.Background()
	p := runningParty()
	creator := testUser("admin")
	owner := testUser("owner")

	repo.On("GetParty", ctx, p.ID).Return(p, nil)
	users.On("GetByID", ctx, creator.ID).Return(creator, nil)
	users.On("GetByScreenName", ctx, "owner").Return(owner, nil)
	repo.On("UserUsesTicket", ctx, p.ID, owner.ID).Return(true, nil)
	repo.On("UserIsOrga", ctx, p.ID, owner.ID).Return(false, nil)
	repo.On("CountServersForOwner", ctx, p.ID, owner.ID).Return(int64(0), nil)
	repo.On("CreateServer", ctx, mock.MatchedBy(func(s *guestserver.Server) bool {
		return s.PartyID == p.ID && s.Owner.ID == owner.ID && !s.Approved && len(s.Addresses) == 1
	})).Return(nil)
	counts.On("InvalidateServerCounts", ctx, p.ID).Return(nil)
	events.On("Publish", ctx, mock.MatchedBy(func(e guestserver.Event) bool {
		return e.Kind == guestserver.EventRegistered && e.OwnerID == owner.ID
	})).Return(nil)

	resp, err := uc.RegisterServer(ctx, RegisterServerRequest{
		PartyID:         p.ID,
		CreatorID:       creator.ID,
		OwnerScreenName: "owner",
		Description:     "game server",
		Addresses:       []AddressInput{{IPAddress: "10.0.0.7", Hostname: "Quake"}},
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, resp.ID)
	repo.AssertExpectations(t)
	events.AssertExpectations(t)
}

func TestRegisterServerGuards(t *testing.T) {
	tests := []struct {
		name       string
		usesTicket bool
		isOrga     bool
		quantity   int64
		wantErr    string
	}{
		{"no ticket", false, false, 0, "owner uses no ticket"},
		{"limit reached", true, false, guestserver.MaxServersPerOwner, "maximum number of servers"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, repo, users, _, _ := newTestUseCase(t)
			ctx := context.Background()
			p := runningParty()
			creator := testUser("admin")
			owner := testUser("owner")

			repo.On("GetParty", ctx, p.ID).Return(p, nil)
			users.On("GetByID", ctx, creator.ID).Return(creator, nil)
			users.On("GetByScreenName", ctx, "owner").Return(owner, nil)
			repo.On("UserUsesTicket", ctx, p.ID, owner.ID).Return(tt.usesTicket, nil)
			repo.On("UserIsOrga", ctx, p.ID, owner.ID).Return(tt.isOrga, nil)
			repo.On("CountServersForOwner", ctx, p.ID, owner.ID).Return(tt.quantity, nil)

			_, err := uc.RegisterServer(ctx, RegisterServerRequest{
				PartyID:         p.ID,
				CreatorID:       creator.ID,
				OwnerScreenName: "owner",
			})
			var cerr *errors.ConflictError
			require.ErrorAs(t, err, &cerr)
			assert.Contains(t, err.Error(), tt.wantErr)
			repo.AssertNotCalled(t, "CreateServer", mock.Anything, mock.Anything)
		})
	}
}

func TestRegisterServerOrgaExemption(t *testing.T) {
	uc, repo, users, counts, events := newTestUseCase(t)
	ctx := context.Background()
	p := runningParty()
	creator := testUser("admin")
	owner := testUser("orga")

	repo.On("GetParty", ctx, p.ID).Return(p, nil)
	users.On("GetByID", ctx, creator.ID).Return(creator, nil)
	users.On("GetByScreenName", ctx, "orga").Return(owner, nil)
	repo.On("UserUsesTicket", ctx, p.ID, owner.ID).Return(false, nil)
	repo.On("UserIsOrga", ctx, p.ID, owner.ID).Return(true, nil)
	repo.On("CountServersForOwner", ctx, p.ID, owner.ID).
		Return(int64(guestserver.MaxServersPerOwner + 3), nil)
	repo.On("CreateServer", ctx, mock.Anything).Return(nil)
	counts.On("InvalidateServerCounts", ctx, p.ID).Return(nil)
	events.On("Publish", ctx, mock.Anything).Return(nil)

	_, err := uc.RegisterServer(ctx, RegisterServerRequest{
		PartyID:         p.ID,
		CreatorID:       creator.ID,
		OwnerScreenName: "orga",
	})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestRegisterServerPartyOver(t *testing.T) {
	uc, repo, users, _, _ := newTestUseCase(t)
	ctx := context.Background()
	p := runningParty()
	p.EndsAt = testTime.Add(-time.Hour)
	creator := testUser("admin")
	owner := testUser("owner")

	repo.On("GetParty", ctx, p.ID).Return(p, nil)
	users.On("GetByID", ctx, creator.ID).Return(creator, nil)
	users.On("GetByScreenName", ctx, "owner").Return(owner, nil)
	repo.On("UserUsesTicket", ctx, p.ID, owner.ID).Return(true, nil)
	repo.On("UserIsOrga", ctx, p.ID, owner.ID).Return(false, nil)
	repo.On("CountServersForOwner", ctx, p.ID, owner.ID).Return(int64(0), nil)

	_, err := uc.RegisterServer(ctx, RegisterServerRequest{
		PartyID:         p.ID,
		CreatorID:       creator.ID,
		OwnerScreenName: "owner",
	})
	var cerr *errors.ConflictError
	require.ErrorAs(t, err, &cerr)
	assert.Contains(t, err.Error(), "party is over")
}

func TestRegisterServerUnknownOwner(t *testing.T) {
	uc, repo, users, _, _ := newTestUseCase(t)
	ctx := context.Background()
	p := runningParty()
	creator := testUser("admin")

	repo.On("GetParty", ctx, p.ID).Return(p, nil)
	users.On("GetByID", ctx, creator.ID).Return(creator, nil)
	users.On("GetByScreenName", ctx, "ghost").Return(nil, nil)

	_, err := uc.RegisterServer(ctx, RegisterServerRequest{
		PartyID:         p.ID,
		CreatorID:       creator.ID,
		OwnerScreenName: "ghost",
	})
	var verr *errors.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestRegisterServerRejectsBadAddress(t *testing.T) {
	uc, _, _, _, _ := newTestUseCase(t)

	_, err := uc.RegisterServer(context.Background(), RegisterServerRequest{
		PartyID:         "acme-2025",
		CreatorID:       uuid.New(),
		OwnerScreenName: "owner",
		Addresses:       []AddressInput{{IPAddress: "not-an-ip"}},
	})
	var verr *errors.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestApproveServer(t *testing.T) {
	uc, repo, users, counts, events := newTestUseCase(t)
	ctx := context.Background()
	p := runningParty()
	owner := testUser("owner")
	admin := testUser("admin")
	server := pendingServer(p, owner)

	repo.On("GetServer", ctx, server.ID).Return(server, nil)
	users.On("GetByID", ctx, admin.ID).Return(admin, nil)
	repo.On("UpdateServer", ctx, mock.MatchedBy(func(s *guestserver.Server) bool {
		return s.Approved && !s.CheckedIn
	})).Return(nil)
	counts.On("InvalidateServerCounts", ctx, p.ID).Return(nil)
	events.On("Publish", ctx, mock.MatchedBy(func(e guestserver.Event) bool {
		return e.Kind == guestserver.EventApproved && e.InitiatorID == admin.ID
	})).Return(nil)

	err := uc.ApproveServer(ctx, TransitionRequest{ServerID: server.ID, Initiator: admin.ID})
	require.NoError(t, err)
	repo.AssertExpectations(t)
	events.AssertExpectations(t)
}

func TestApproveServerAlreadyApproved(t *testing.T) {
	uc, repo, users, _, _ := newTestUseCase(t)
	ctx := context.Background()
	p := runningParty()
	owner := testUser("owner")
	admin := testUser("admin")
	server := pendingServer(p, owner)
	server.Approved = true

	repo.On("GetServer", ctx, server.ID).Return(server, nil)
	users.On("GetByID", ctx, admin.ID).Return(admin, nil)

	err := uc.ApproveServer(ctx, TransitionRequest{ServerID: server.ID, Initiator: admin.ID})
	var cerr *errors.ConflictError
	assert.ErrorAs(t, err, &cerr)
	repo.AssertNotCalled(t, "UpdateServer", mock.Anything, mock.Anything)
}

func TestCheckInRequiresApproval(t *testing.T) {
	uc, repo, users, _, _ := newTestUseCase(t)
	ctx := context.Background()
	p := runningParty()
	owner := testUser("owner")
	admin := testUser("admin")
	server := pendingServer(p, owner)

	repo.On("GetServer", ctx, server.ID).Return(server, nil)
	users.On("GetByID", ctx, admin.ID).Return(admin, nil)

	err := uc.CheckInServer(ctx, TransitionRequest{ServerID: server.ID, Initiator: admin.ID})
	var cerr *errors.ConflictError
	assert.ErrorAs(t, err, &cerr)
}

func TestCheckOutServer(t *testing.T) {
	uc, repo, users, counts, events := newTestUseCase(t)
	ctx := context.Background()
	p := runningParty()
	owner := testUser("owner")
	admin := testUser("admin")
	server := pendingServer(p, owner)
	server.Approved = true
	server.CheckedIn = true
	server.CheckedInAt = testTime.Add(-time.Hour)

	repo.On("GetServer", ctx, server.ID).Return(server, nil)
	users.On("GetByID", ctx, admin.ID).Return(admin, nil)
	repo.On("UpdateServer", ctx, mock.MatchedBy(func(s *guestserver.Server) bool {
		return s.CheckedOut && s.CheckedOutAt.Equal(testTime)
	})).Return(nil)
	counts.On("InvalidateServerCounts", ctx, p.ID).Return(nil)
	events.On("Publish", ctx, mock.MatchedBy(func(e guestserver.Event) bool {
		return e.Kind == guestserver.EventCheckedOut
	})).Return(nil)

	err := uc.CheckOutServer(ctx, TransitionRequest{ServerID: server.ID, Initiator: admin.ID})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestUpdateNotes(t *testing.T) {
	uc, repo, _, _, _ := newTestUseCase(t)
	ctx := context.Background()
	p := runningParty()
	owner := testUser("owner")
	server := pendingServer(p, owner)

	repo.On("GetServer", ctx, server.ID).Return(server, nil)
	repo.On("UpdateServer", ctx, mock.MatchedBy(func(s *guestserver.Server) bool {
		return s.NotesAdmin == "switch port 12"
	})).Return(nil)

	err := uc.UpdateNotes(ctx, UpdateNotesRequest{ServerID: server.ID, NotesAdmin: "switch port 12"})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestUpdateSetting(t *testing.T) {
	uc, repo, _, _, _ := newTestUseCase(t)
	ctx := context.Background()
	p := runningParty()

	repo.On("GetParty", ctx, p.ID).Return(p, nil)
	repo.On("UpsertSetting", ctx, mock.MatchedBy(func(s *guestserver.Setting) bool {
		return s.PartyID == p.ID && s.DNSServer1 == "10.0.0.2"
	})).Return(nil)

	err := uc.UpdateSetting(ctx, UpdateSettingRequest{
		PartyID:    p.ID,
		Netmask:    "255.255.255.0",
		Gateway:    "10.0.0.1",
		DNSServer1: "10.0.0.2",
		Domain:     "party.example.test",
	})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestUpdateSettingValidation(t *testing.T) {
	uc, _, _, _, _ := newTestUseCase(t)

	err := uc.UpdateSetting(context.Background(), UpdateSettingRequest{
		PartyID: "acme-2025",
		Gateway: "not-an-ip",
	})
	var verr *errors.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestDeleteServer(t *testing.T) {
	uc, repo, _, counts, _ := newTestUseCase(t)
	ctx := context.Background()
	p := runningParty()
	owner := testUser("owner")
	server := pendingServer(p, owner)

	repo.On("GetServer", ctx, server.ID).Return(server, nil)
	repo.On("DeleteServer", ctx, server.ID).Return(nil)
	counts.On("InvalidateServerCounts", ctx, p.ID).Return(nil)

	err := uc.DeleteServer(ctx, DeleteServerRequest{ServerID: server.ID, Initiator: uuid.New()})
	require.NoError(t, err)
	repo.AssertExpectations(t)
	counts.AssertExpectations(t)
}
