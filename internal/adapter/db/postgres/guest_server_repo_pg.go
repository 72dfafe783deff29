package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ovee/byceps/internal/domain/guestserver"
	"github.com/ovee/byceps/internal/domain/party"
	"github.com/ovee/byceps/internal/domain/user"
	apperrors "github.com/ovee/byceps/pkg/errors"
)

// GuestServerRepoPG implements the guest server repository interface
// using PostgreSQL and GORM.
type GuestServerRepoPG struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewGuestServerRepoPG creates a new instance of GuestServerRepoPG.
func NewGuestServerRepoPG(db *gorm.DB, log *zap.Logger) *GuestServerRepoPG {
	return &GuestServerRepoPG{db: db, log: log}
}

// PartySchema represents the database schema for the parties table.
type PartySchema struct {
	ID       string    `gorm:"primaryKey"`
	Title    string    `gorm:"not null"`
	StartsAt time.Time `gorm:"not null"`
	EndsAt   time.Time `gorm:"not null"`
}

// TableName specifies the table name for the PartySchema model.
func (PartySchema) TableName() string {
	return "parties"
}

// GuestServerSchema represents the database schema for guest servers.
type GuestServerSchema struct {
	ID           string    `gorm:"primaryKey;type:uuid"`
	PartyID      string    `gorm:"not null;index"`
	CreatedAt    time.Time `gorm:"not null"`
	CreatorID    string    `gorm:"not null;type:uuid"`
	OwnerID      string    `gorm:"not null;type:uuid;index"`
	Description  string
	NotesOwner   string
	NotesAdmin   string
	Approved     bool `gorm:"not null;default:false"`
	CheckedIn    bool `gorm:"not null;default:false"`
	CheckedInAt  *time.Time
	CheckedOut   bool `gorm:"not null;default:false"`
	CheckedOutAt *time.Time
}

// TableName specifies the table name for the GuestServerSchema model.
func (GuestServerSchema) TableName() string {
	return "guest_servers"
}

// GuestServerAddressSchema represents the database schema for addresses.
type GuestServerAddressSchema struct {
	ID        string    `gorm:"primaryKey;type:uuid"`
	ServerID  string    `gorm:"not null;type:uuid;index"`
	CreatedAt time.Time `gorm:"not null"`
	IPAddress string
	Hostname  string
	Netmask   string
	Gateway   string
}

// TableName specifies the table name for the GuestServerAddressSchema model.
func (GuestServerAddressSchema) TableName() string {
	return "guest_server_addresses"
}

// GuestServerSettingSchema represents the per-party network setting.
type GuestServerSettingSchema struct {
	PartyID    string `gorm:"primaryKey"`
	Netmask    string
	Gateway    string
	DNSServer1 string `gorm:"column:dns_server1"`
	DNSServer2 string `gorm:"column:dns_server2"`
	Domain     string
}

// TableName specifies the table name for the GuestServerSettingSchema model.
func (GuestServerSettingSchema) TableName() string {
	return "guest_server_settings"
}

// TicketUsageSchema marks a user as using a ticket for a party.
type TicketUsageSchema struct {
	PartyID string `gorm:"primaryKey"`
	UserID  string `gorm:"primaryKey;type:uuid"`
}

// TableName specifies the table name for the TicketUsageSchema model.
func (TicketUsageSchema) TableName() string {
	return "ticket_usages"
}

// OrgaFlagSchema marks a user as organizer for a party.
type OrgaFlagSchema struct {
	PartyID string `gorm:"primaryKey"`
	UserID  string `gorm:"primaryKey;type:uuid"`
}

// TableName specifies the table name for the OrgaFlagSchema model.
func (OrgaFlagSchema) TableName() string {
	return "orga_flags"
}

// GetParty retrieves a party by its identifier.
func (r *GuestServerRepoPG) GetParty(ctx context.Context, id string) (*party.Party, error) {
	var model PartySchema
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Warn("party not found", zap.String("id", id))
			return nil, apperrors.NewNotFoundError("party", fmt.Sprintf("party not found: id=%s", id))
		}
		return nil, fmt.Errorf("failed to get party: %w", err)
	}

	return &party.Party{
		ID:       model.ID,
		Title:    model.Title,
		StartsAt: model.StartsAt,
		EndsAt:   model.EndsAt,
	}, nil
}

// CreateServer persists a newly registered server together with its
// addresses.
func (r *GuestServerRepoPG) CreateServer(ctx context.Context, server *guestserver.Server) error {
	if server == nil {
		return errors.New("server cannot be nil")
	}

	model := serverToSchema(server)
	addressModels := make([]GuestServerAddressSchema, len(server.Addresses))
	for i, addr := range server.Addresses {
		addressModels[i] = addressToSchema(addr)
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&model).Error; err != nil {
			return err
		}
		if len(addressModels) > 0 {
			if err := tx.Create(&addressModels).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		r.log.Error("failed to create guest server in db", zap.Error(err), zap.String("id", model.ID))
		return fmt.Errorf("failed to create guest server: %w", err)
	}

	r.log.Info("guest server created in db", zap.String("id", model.ID), zap.String("party_id", model.PartyID))
	return nil
}

// UpdateServer persists the lifecycle flags and notes of a server.
func (r *GuestServerRepoPG) UpdateServer(ctx context.Context, server *guestserver.Server) error {
	if server == nil {
		return errors.New("server cannot be nil")
	}

	model := serverToSchema(server)

	result := r.db.WithContext(ctx).Model(&GuestServerSchema{}).
		Where("id = ?", model.ID).
		Updates(map[string]any{
			"description":    model.Description,
			"notes_owner":    model.NotesOwner,
			"notes_admin":    model.NotesAdmin,
			"approved":       model.Approved,
			"checked_in":     model.CheckedIn,
			"checked_in_at":  model.CheckedInAt,
			"checked_out":    model.CheckedOut,
			"checked_out_at": model.CheckedOutAt,
		})
	if result.Error != nil {
		r.log.Error("failed to update guest server in db", zap.Error(result.Error), zap.String("id", model.ID))
		return fmt.Errorf("failed to update guest server: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("guest server", fmt.Sprintf("guest server not found: id=%s", server.ID))
	}

	r.log.Info("guest server updated in db", zap.String("id", model.ID))
	return nil
}

// DeleteServer removes a server and its addresses.
func (r *GuestServerRepoPG) DeleteServer(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("server_id = ?", id.String()).Delete(&GuestServerAddressSchema{}).Error; err != nil {
			return err
		}

		result := tx.Where("id = ?", id.String()).Delete(&GuestServerSchema{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperrors.NewNotFoundError("guest server", fmt.Sprintf("guest server not found: id=%s", id))
		}
		return nil
	})
	if err != nil {
		var notFound *apperrors.NotFoundError
		if !errors.As(err, &notFound) {
			r.log.Error("failed to delete guest server in db", zap.Error(err), zap.String("id", id.String()))
		}
		return err
	}

	r.log.Info("guest server deleted in db", zap.String("id", id.String()))
	return nil
}

// GetServer retrieves a server with its addresses, creator and owner.
func (r *GuestServerRepoPG) GetServer(ctx context.Context, id uuid.UUID) (*guestserver.Server, error) {
	var model GuestServerSchema
	if err := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Warn("guest server not found", zap.String("id", id.String()))
			return nil, apperrors.NewNotFoundError("guest server", fmt.Sprintf("guest server not found: id=%s", id))
		}
		return nil, fmt.Errorf("failed to get guest server: %w", err)
	}

	servers, err := r.hydrateServers(ctx, []GuestServerSchema{model})
	if err != nil {
		return nil, err
	}
	return &servers[0], nil
}

// ListServers retrieves all servers registered for a party, newest first.
func (r *GuestServerRepoPG) ListServers(ctx context.Context, partyID string) ([]guestserver.Server, error) {
	var models []GuestServerSchema
	err := r.db.WithContext(ctx).
		Where("party_id = ?", partyID).
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		r.log.Error("failed to list guest servers from db", zap.Error(err), zap.String("party_id", partyID))
		return nil, fmt.Errorf("failed to list guest servers: %w", err)
	}

	return r.hydrateServers(ctx, models)
}

// hydrateServers attaches addresses and user records to server rows.
func (r *GuestServerRepoPG) hydrateServers(ctx context.Context, models []GuestServerSchema) ([]guestserver.Server, error) {
	if len(models) == 0 {
		return []guestserver.Server{}, nil
	}

	serverIDs := make([]string, len(models))
	userIDSet := make(map[string]struct{})
	for i, m := range models {
		serverIDs[i] = m.ID
		userIDSet[m.CreatorID] = struct{}{}
		userIDSet[m.OwnerID] = struct{}{}
	}

	var addressModels []GuestServerAddressSchema
	if err := r.db.WithContext(ctx).Where("server_id IN ?", serverIDs).Find(&addressModels).Error; err != nil {
		return nil, fmt.Errorf("failed to load guest server addresses: %w", err)
	}

	addressesByServer := make(map[string][]guestserver.Address)
	for _, am := range addressModels {
		addr, err := addressToDomain(am)
		if err != nil {
			return nil, err
		}
		addressesByServer[am.ServerID] = append(addressesByServer[am.ServerID], addr)
	}

	userIDs := make([]string, 0, len(userIDSet))
	for id := range userIDSet {
		userIDs = append(userIDs, id)
	}

	var userModels []UserSchema
	if err := r.db.WithContext(ctx).Where("id IN ?", userIDs).Find(&userModels).Error; err != nil {
		return nil, fmt.Errorf("failed to load guest server users: %w", err)
	}

	usersByID := make(map[string]user.User, len(userModels))
	for _, um := range userModels {
		u, err := um.toDomain()
		if err != nil {
			return nil, err
		}
		usersByID[um.ID] = u
	}

	servers := make([]guestserver.Server, len(models))
	for i, m := range models {
		server, err := serverToDomain(m)
		if err != nil {
			return nil, err
		}
		server.Creator = usersByID[m.CreatorID]
		server.Owner = usersByID[m.OwnerID]
		server.Addresses = addressesByServer[m.ID]
		servers[i] = server
	}

	return servers, nil
}

// CountsByStatus aggregates the number of a party's servers per status
// in a single conditional-aggregation query.
func (r *GuestServerRepoPG) CountsByStatus(ctx context.Context, partyID string) (guestserver.StatusCounts, error) {
	var counts guestserver.StatusCounts

	err := r.db.WithContext(ctx).Model(&GuestServerSchema{}).
		Select(`COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN NOT approved THEN 1 ELSE 0 END), 0) AS pending,
			COALESCE(SUM(CASE WHEN approved AND NOT checked_in AND NOT checked_out THEN 1 ELSE 0 END), 0) AS approved,
			COALESCE(SUM(CASE WHEN checked_in AND NOT checked_out THEN 1 ELSE 0 END), 0) AS checked_in,
			COALESCE(SUM(CASE WHEN checked_out THEN 1 ELSE 0 END), 0) AS checked_out`).
		Where("party_id = ?", partyID).
		Scan(&counts).Error
	if err != nil {
		r.log.Error("failed to count guest servers by status", zap.Error(err), zap.String("party_id", partyID))
		return guestserver.StatusCounts{}, fmt.Errorf("failed to count guest servers by status: %w", err)
	}

	return counts, nil
}

// CountServersForOwner returns how many servers a user has registered for
// a party.
func (r *GuestServerRepoPG) CountServersForOwner(ctx context.Context, partyID string, ownerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&GuestServerSchema{}).
		Where("party_id = ? AND owner_id = ?", partyID, ownerID.String()).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count servers for owner: %w", err)
	}
	return count, nil
}

// UserUsesTicket reports whether the user uses a ticket for the party.
func (r *GuestServerRepoPG) UserUsesTicket(ctx context.Context, partyID string, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&TicketUsageSchema{}).
		Where("party_id = ? AND user_id = ?", partyID, userID.String()).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check ticket usage: %w", err)
	}
	return count > 0, nil
}

// UserIsOrga reports whether the user is an organizer of the party.
func (r *GuestServerRepoPG) UserIsOrga(ctx context.Context, partyID string, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&OrgaFlagSchema{}).
		Where("party_id = ? AND user_id = ?", partyID, userID.String()).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check orga flag: %w", err)
	}
	return count > 0, nil
}

// GetSetting retrieves the per-party network setting. A missing row
// yields an empty setting, not an error.
func (r *GuestServerRepoPG) GetSetting(ctx context.Context, partyID string) (*guestserver.Setting, error) {
	var model GuestServerSettingSchema
	if err := r.db.WithContext(ctx).Where("party_id = ?", partyID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &guestserver.Setting{PartyID: partyID}, nil
		}
		return nil, fmt.Errorf("failed to get guest server setting: %w", err)
	}

	return &guestserver.Setting{
		PartyID:    model.PartyID,
		Netmask:    model.Netmask,
		Gateway:    model.Gateway,
		DNSServer1: model.DNSServer1,
		DNSServer2: model.DNSServer2,
		Domain:     model.Domain,
	}, nil
}

// UpsertSetting creates or replaces the per-party network setting.
func (r *GuestServerRepoPG) UpsertSetting(ctx context.Context, setting *guestserver.Setting) error {
	if setting == nil {
		return errors.New("setting cannot be nil")
	}

	model := GuestServerSettingSchema{
		PartyID:    setting.PartyID,
		Netmask:    setting.Netmask,
		Gateway:    setting.Gateway,
		DNSServer1: setting.DNSServer1,
		DNSServer2: setting.DNSServer2,
		Domain:     setting.Domain,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("party_id = ?", model.PartyID).Delete(&GuestServerSettingSchema{}).Error; err != nil {
			return err
		}
		return tx.Create(&model).Error
	})
	if err != nil {
		r.log.Error("failed to upsert guest server setting", zap.Error(err), zap.String("party_id", setting.PartyID))
		return fmt.Errorf("failed to upsert guest server setting: %w", err)
	}

	r.log.Info("guest server setting updated", zap.String("party_id", setting.PartyID))
	return nil
}

func serverToSchema(s *guestserver.Server) GuestServerSchema {
	model := GuestServerSchema{
		ID:          s.ID.String(),
		PartyID:     s.PartyID,
		CreatedAt:   s.CreatedAt,
		CreatorID:   s.Creator.ID.String(),
		OwnerID:     s.Owner.ID.String(),
		Description: s.Description,
		NotesOwner:  s.NotesOwner,
		NotesAdmin:  s.NotesAdmin,
		Approved:    s.Approved,
		CheckedIn:   s.CheckedIn,
		CheckedOut:  s.CheckedOut,
	}
	if s.CheckedIn {
		t := s.CheckedInAt
		model.CheckedInAt = &t
	}
	if s.CheckedOut {
		t := s.CheckedOutAt
		model.CheckedOutAt = &t
	}
	return model
}

func serverToDomain(m GuestServerSchema) (guestserver.Server, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return guestserver.Server{}, fmt.Errorf("invalid guest server id %q: %w", m.ID, err)
	}

	server := guestserver.Server{
		ID:          id,
		PartyID:     m.PartyID,
		CreatedAt:   m.CreatedAt,
		Description: m.Description,
		NotesOwner:  m.NotesOwner,
		NotesAdmin:  m.NotesAdmin,
		Approved:    m.Approved,
		CheckedIn:   m.CheckedIn,
		CheckedOut:  m.CheckedOut,
	}
	if m.CheckedInAt != nil {
		server.CheckedInAt = *m.CheckedInAt
	}
	if m.CheckedOutAt != nil {
		server.CheckedOutAt = *m.CheckedOutAt
	}
	return server, nil
}

func addressToSchema(a guestserver.Address) GuestServerAddressSchema {
	return GuestServerAddressSchema{
		ID:        a.ID.String(),
		ServerID:  a.ServerID.String(),
		CreatedAt: a.CreatedAt,
		IPAddress: a.IPAddress,
		Hostname:  a.Hostname,
		Netmask:   a.Netmask,
		Gateway:   a.Gateway,
	}
}

func addressToDomain(m GuestServerAddressSchema) (guestserver.Address, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return guestserver.Address{}, fmt.Errorf("invalid address id %q: %w", m.ID, err)
	}
	serverID, err := uuid.Parse(m.ServerID)
	if err != nil {
		return guestserver.Address{}, fmt.Errorf("invalid address server id %q: %w", m.ServerID, err)
	}

	return guestserver.Address{
		ID:        id,
		ServerID:  serverID,
		CreatedAt: m.CreatedAt,
		IPAddress: m.IPAddress,
		Hostname:  m.Hostname,
		Netmask:   m.Netmask,
		Gateway:   m.Gateway,
	}, nil
}
