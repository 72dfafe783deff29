package guestserveradmin

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ovee/byceps/internal/domain/guestserver"
	"github.com/ovee/byceps/internal/domain/user"
	"github.com/ovee/byceps/pkg/errors"
)

type useCase struct {
	repo     Repository
	users    UserResolver
	counts   CountsCache
	events   EventPublisher
	log      *zap.Logger
	validate *validator.Validate
	now      func() time.Time
}

// NewUseCase creates a guest server administration use case.
func NewUseCase(repo Repository, users UserResolver, counts CountsCache, events EventPublisher, log *zap.Logger) UseCase {
	return &useCase{
		repo:     repo,
		users:    users,
		counts:   counts,
		events:   events,
		log:      log,
		validate: validator.New(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ListServers returns the dashboard data for a party: its servers with
// addresses sorted for display, the per-status totals and the network
// setting.
func (uc *useCase) ListServers(ctx context.Context, partyID string) (*ListServersResponse, error) {
	p, err := uc.repo.GetParty(ctx, partyID)
	if err != nil {
		return nil, err
	}

	servers, err := uc.repo.ListServers(ctx, partyID)
	if err != nil {
		uc.log.Error("failed to list guest servers", zap.Error(err))
		return nil, errors.NewInternalError("failed to list guest servers", err)
	}
	for i := range servers {
		servers[i].Addresses = guestserver.SortAddresses(servers[i].Addresses)
	}

	counts, err := uc.statusCounts(ctx, partyID)
	if err != nil {
		return nil, err
	}

	setting, err := uc.repo.GetSetting(ctx, partyID)
	if err != nil {
		uc.log.Error("failed to load guest server setting", zap.Error(err))
		return nil, errors.NewInternalError("failed to load guest server setting", err)
	}

	return &ListServersResponse{
		Party:   *p,
		Servers: servers,
		Counts:  counts,
		Setting: *setting,
	}, nil
}

// GetServer returns one server with its addresses sorted for display.
func (uc *useCase) GetServer(ctx context.Context, serverID uuid.UUID) (*GetServerResponse, error) {
	server, err := uc.repo.GetServer(ctx, serverID)
	if err != nil {
		return nil, err
	}
	server.Addresses = guestserver.SortAddresses(server.Addresses)

	p, err := uc.repo.GetParty(ctx, server.PartyID)
	if err != nil {
		return nil, err
	}

	return &GetServerResponse{Party: *p, Server: *server}, nil
}

// RegisterServer registers a server for the given owner. The owner must
// use a ticket for the party and stay under the per-owner limit; orgas
// are exempt from both. Registration is refused once the party is over.
func (uc *useCase) RegisterServer(ctx context.Context, req RegisterServerRequest) (*RegisterServerResponse, error) {
	if err := uc.validate.Struct(req); err != nil {
		return nil, errors.NewValidationError("", formatValidationError(err))
	}

	p, err := uc.repo.GetParty(ctx, req.PartyID)
	if err != nil {
		return nil, err
	}

	creator, err := uc.users.GetByID(ctx, req.CreatorID)
	if err != nil {
		return nil, err
	}

	owner, err := uc.users.GetByScreenName(ctx, req.OwnerScreenName)
	if err != nil {
		uc.log.Error("failed to resolve owner", zap.Error(err))
		return nil, errors.NewInternalError("failed to resolve owner", err)
	}
	if owner == nil {
		return nil, errors.NewValidationError("owner", fmt.Sprintf("unknown user %q", req.OwnerScreenName))
	}

	usesTicket, err := uc.repo.UserUsesTicket(ctx, p.ID, owner.ID)
	if err != nil {
		uc.log.Error("failed to check ticket usage", zap.Error(err))
		return nil, errors.NewInternalError("failed to check ticket usage", err)
	}
	isOrga, err := uc.repo.UserIsOrga(ctx, p.ID, owner.ID)
	if err != nil {
		uc.log.Error("failed to check orga status", zap.Error(err))
		return nil, errors.NewInternalError("failed to check orga status", err)
	}
	quantity, err := uc.repo.CountServersForOwner(ctx, p.ID, owner.ID)
	if err != nil {
		uc.log.Error("failed to count servers for owner", zap.Error(err))
		return nil, errors.NewInternalError("failed to count servers for owner", err)
	}

	now := uc.now()
	if err := guestserver.EnsureMayRegisterServer(*p, now, usesTicket, isOrga, quantity); err != nil {
		uc.log.Warn("server registration refused",
			zap.String("party_id", p.ID),
			zap.String("owner_id", owner.ID.String()),
			zap.Error(err))
		return nil, errors.NewConflictError("guest server", err.Error())
	}

	addressDatas := make([]guestserver.AddressData, len(req.Addresses))
	for i, a := range req.Addresses {
		addressDatas[i] = guestserver.AddressData{
			IPAddress: a.IPAddress,
			Hostname:  strings.ToLower(strings.TrimSpace(a.Hostname)),
			Netmask:   a.Netmask,
			Gateway:   a.Gateway,
		}
	}

	server, event := guestserver.RegisterServer(*p, *creator, *owner, req.Description, addressDatas, req.NotesOwner, req.NotesAdmin, now)

	if err := uc.repo.CreateServer(ctx, &server); err != nil {
		uc.log.Error("failed to create guest server", zap.Error(err))
		return nil, errors.NewInternalError("failed to create guest server", err)
	}

	uc.afterTransition(ctx, p.ID, event)
	uc.log.Info("guest server registered",
		zap.String("server_id", server.ID.String()),
		zap.String("party_id", p.ID),
		zap.String("owner", owner.ScreenName))

	return &RegisterServerResponse{ID: server.ID}, nil
}

// ApproveServer marks a pending server as approved.
func (uc *useCase) ApproveServer(ctx context.Context, req TransitionRequest) error {
	return uc.transition(ctx, req, guestserver.ApproveServer)
}

// CheckInServer marks an approved server as brought in.
func (uc *useCase) CheckInServer(ctx context.Context, req TransitionRequest) error {
	return uc.transition(ctx, req, guestserver.CheckInServer)
}

// CheckOutServer marks a checked-in server as taken away again.
func (uc *useCase) CheckOutServer(ctx context.Context, req TransitionRequest) error {
	return uc.transition(ctx, req, guestserver.CheckOutServer)
}

func (uc *useCase) transition(ctx context.Context, req TransitionRequest, apply func(guestserver.Server, user.User, time.Time) (guestserver.Server, guestserver.Event, error)) error {
	server, err := uc.repo.GetServer(ctx, req.ServerID)
	if err != nil {
		return err
	}

	initiator, err := uc.users.GetByID(ctx, req.Initiator)
	if err != nil {
		return err
	}

	updated, event, err := apply(*server, *initiator, uc.now())
	if err != nil {
		return errors.NewConflictError("guest server", err.Error())
	}

	if err := uc.repo.UpdateServer(ctx, &updated); err != nil {
		uc.log.Error("failed to update guest server", zap.Error(err))
		return errors.NewInternalError("failed to update guest server", err)
	}

	uc.afterTransition(ctx, updated.PartyID, event)
	uc.log.Info("guest server transitioned",
		zap.String("server_id", updated.ID.String()),
		zap.String("kind", string(event.Kind)),
		zap.String("initiator", initiator.ScreenName))
	return nil
}

// UpdateNotes replaces the admin notes of a server.
func (uc *useCase) UpdateNotes(ctx context.Context, req UpdateNotesRequest) error {
	if err := uc.validate.Struct(req); err != nil {
		return errors.NewValidationError("", formatValidationError(err))
	}

	server, err := uc.repo.GetServer(ctx, req.ServerID)
	if err != nil {
		return err
	}

	server.NotesAdmin = req.NotesAdmin
	if err := uc.repo.UpdateServer(ctx, server); err != nil {
		uc.log.Error("failed to update guest server notes", zap.Error(err))
		return errors.NewInternalError("failed to update guest server notes", err)
	}
	return nil
}

// UpdateSetting replaces the per-party network setting.
func (uc *useCase) UpdateSetting(ctx context.Context, req UpdateSettingRequest) error {
	if err := uc.validate.Struct(req); err != nil {
		return errors.NewValidationError("", formatValidationError(err))
	}

	if _, err := uc.repo.GetParty(ctx, req.PartyID); err != nil {
		return err
	}

	setting := &guestserver.Setting{
		PartyID:    req.PartyID,
		Netmask:    req.Netmask,
		Gateway:    req.Gateway,
		DNSServer1: req.DNSServer1,
		DNSServer2: req.DNSServer2,
		Domain:     req.Domain,
	}
	if err := uc.repo.UpsertSetting(ctx, setting); err != nil {
		uc.log.Error("failed to store guest server setting", zap.Error(err))
		return errors.NewInternalError("failed to store guest server setting", err)
	}

	uc.log.Info("guest server setting updated", zap.String("party_id", req.PartyID))
	return nil
}

// DeleteServer removes a server registration and its addresses.
func (uc *useCase) DeleteServer(ctx context.Context, req DeleteServerRequest) error {
	server, err := uc.repo.GetServer(ctx, req.ServerID)
	if err != nil {
		return err
	}

	if err := uc.repo.DeleteServer(ctx, req.ServerID); err != nil {
		var nf *errors.NotFoundError
		if stderrors.As(err, &nf) {
			return err
		}
		uc.log.Error("failed to delete guest server", zap.Error(err))
		return errors.NewInternalError("failed to delete guest server", err)
	}

	uc.invalidateCounts(ctx, server.PartyID)
	uc.log.Info("guest server deleted",
		zap.String("server_id", req.ServerID.String()),
		zap.String("initiator_id", req.Initiator.String()))
	return nil
}

func (uc *useCase) statusCounts(ctx context.Context, partyID string) (guestserver.StatusCounts, error) {
	if cached, err := uc.counts.GetServerCounts(ctx, partyID); err == nil && cached != nil {
		return *cached, nil
	}

	counts, err := uc.repo.CountsByStatus(ctx, partyID)
	if err != nil {
		uc.log.Error("failed to count guest servers", zap.Error(err))
		return guestserver.StatusCounts{}, errors.NewInternalError("failed to count guest servers", err)
	}

	if err := uc.counts.SetServerCounts(ctx, partyID, counts); err != nil {
		uc.log.Warn("failed to cache guest server counts", zap.Error(err))
	}
	return counts, nil
}

func (uc *useCase) afterTransition(ctx context.Context, partyID string, event guestserver.Event) {
	uc.invalidateCounts(ctx, partyID)
	if err := uc.events.Publish(ctx, event); err != nil {
		uc.log.Warn("failed to publish guest server event",
			zap.String("kind", string(event.Kind)),
			zap.Error(err))
	}
}

func (uc *useCase) invalidateCounts(ctx context.Context, partyID string) {
	if err := uc.counts.InvalidateServerCounts(ctx, partyID); err != nil {
		uc.log.Warn("failed to invalidate guest server counts", zap.Error(err))
	}
}

func formatValidationError(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "ip":
			msgs = append(msgs, fmt.Sprintf("%s must be an IP address", fe.Field()))
		case "hostname_rfc1123":
			msgs = append(msgs, fmt.Sprintf("%s must be a valid hostname", fe.Field()))
		case "fqdn":
			msgs = append(msgs, fmt.Sprintf("%s must be a fully qualified domain name", fe.Field()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return strings.Join(msgs, "; ")
}
