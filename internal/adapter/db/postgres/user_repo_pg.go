package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ovee/byceps/internal/domain/user"
	apperrors "github.com/ovee/byceps/pkg/errors"
	"github.com/ovee/byceps/pkg/security"
)

// UserRepoPG implements the user repository interface using PostgreSQL
// and GORM.
type UserRepoPG struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewUserRepoPG creates a new instance of UserRepoPG.
func NewUserRepoPG(db *gorm.DB, log *zap.Logger) *UserRepoPG {
	return &UserRepoPG{db: db, log: log}
}

// UserSchema represents the database schema for the users table.
type UserSchema struct {
	ID           string    `gorm:"primaryKey;type:uuid"`
	CreatedAt    time.Time `gorm:"not null"`
	ScreenName   string    `gorm:"not null;uniqueIndex"`
	EmailAddress string    `gorm:"index"` // may be empty for imported accounts
	PasswordHash string    `gorm:"not null"`
	Initialized  bool      `gorm:"not null;default:false"`
	Suspended    bool      `gorm:"not null;default:false"`
	Deleted      bool      `gorm:"not null;default:false"`
}

// TableName specifies the table name for the UserSchema model.
func (UserSchema) TableName() string {
	return "users"
}

// UserRoleSchema represents the database schema for role assignments.
type UserRoleSchema struct {
	UserID string `gorm:"primaryKey;type:uuid"`
	Role   string `gorm:"primaryKey"`
}

// TableName specifies the table name for the UserRoleSchema model.
func (UserRoleSchema) TableName() string {
	return "user_roles"
}

func (s UserSchema) toDomain() (user.User, error) {
	id, err := uuid.Parse(s.ID)
	if err != nil {
		return user.User{}, fmt.Errorf("invalid user id %q: %w", s.ID, err)
	}

	return user.User{
		ID:           id,
		CreatedAt:    s.CreatedAt,
		ScreenName:   s.ScreenName,
		EmailAddress: s.EmailAddress,
		Initialized:  s.Initialized,
		Suspended:    s.Suspended,
		Deleted:      s.Deleted,
	}, nil
}

// Create inserts a new user into the database.
func (r *UserRepoPG) Create(ctx context.Context, u *user.User, passwordHash string) error {
	if u == nil {
		return errors.New("user cannot be nil")
	}

	model := UserSchema{
		ID:           u.ID.String(),
		CreatedAt:    u.CreatedAt,
		ScreenName:   u.ScreenName,
		EmailAddress: u.EmailAddress,
		PasswordHash: passwordHash,
		Initialized:  u.Initialized,
		Suspended:    u.Suspended,
		Deleted:      u.Deleted,
	}

	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		r.log.Error("failed to create user in db", zap.Error(err), zap.String("screen_name", u.ScreenName))
		return fmt.Errorf("failed to create user: %w", err)
	}

	r.log.Info("user created in db", zap.String("id", model.ID))
	return nil
}

// Update persists the mutable flags of an existing user.
func (r *UserRepoPG) Update(ctx context.Context, u *user.User) error {
	if u == nil {
		return errors.New("user cannot be nil")
	}

	result := r.db.WithContext(ctx).Model(&UserSchema{}).
		Where("id = ?", u.ID.String()).
		Updates(map[string]any{
			"screen_name":   u.ScreenName,
			"email_address": u.EmailAddress,
			"initialized":   u.Initialized,
			"suspended":     u.Suspended,
			"deleted":       u.Deleted,
		})
	if result.Error != nil {
		r.log.Error("failed to update user in db", zap.Error(result.Error), zap.String("id", u.ID.String()))
		return fmt.Errorf("failed to update user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("user", fmt.Sprintf("user not found: id=%s", u.ID))
	}

	r.log.Info("user updated in db", zap.String("id", u.ID.String()))
	return nil
}

// GetByID retrieves a user from the database by their unique ID.
func (r *UserRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	var model UserSchema
	if err := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Warn("user not found", zap.String("id", id.String()))
			return nil, apperrors.NewNotFoundError("user", fmt.Sprintf("user not found: id=%s", id))
		}
		r.log.Error("failed to get user from db", zap.Error(err), zap.String("id", id.String()))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	u, err := model.toDomain()
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByScreenName retrieves a user by screen name. Returns nil without an
// error when no such user exists.
func (r *UserRepoPG) GetByScreenName(ctx context.Context, screenName string) (*user.User, error) {
	var model UserSchema
	if err := r.db.WithContext(ctx).Where("screen_name = ?", screenName).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Debug("user not found by screen name", zap.String("screen_name", screenName))
			return nil, nil
		}
		r.log.Error("failed to get user by screen name from db", zap.Error(err), zap.String("screen_name", screenName))
		return nil, fmt.Errorf("failed to get user by screen name: %w", err)
	}

	u, err := model.toDomain()
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail retrieves a user by email address. Returns nil without an
// error when no such user exists.
func (r *UserRepoPG) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	var model UserSchema
	if err := r.db.WithContext(ctx).Where("email_address = ?", email).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Debug("user not found by email", zap.String("email", email))
			return nil, nil
		}
		r.log.Error("failed to get user by email from db", zap.Error(err), zap.String("email", email))
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	u, err := model.toDomain()
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetCredentials returns the user, password hash and assigned roles for a
// screen name. Used by the login flow.
func (r *UserRepoPG) GetCredentials(ctx context.Context, screenName string) (*user.User, string, []string, error) {
	var model UserSchema
	if err := r.db.WithContext(ctx).Where("screen_name = ?", screenName).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", nil, nil
		}
		return nil, "", nil, fmt.Errorf("failed to get credentials: %w", err)
	}

	var roleModels []UserRoleSchema
	if err := r.db.WithContext(ctx).Where("user_id = ?", model.ID).Find(&roleModels).Error; err != nil {
		return nil, "", nil, fmt.Errorf("failed to get user roles: %w", err)
	}

	roles := make([]string, len(roleModels))
	for i, rm := range roleModels {
		roles[i] = rm.Role
	}

	u, err := model.toDomain()
	if err != nil {
		return nil, "", nil, err
	}
	return &u, model.PasswordHash, roles, nil
}

// statusConditions translates a status filter into flag predicates.
func statusConditions(db *gorm.DB, filter user.StatusFilter) *gorm.DB {
	switch filter {
	case user.FilterActive:
		return db.Where("initialized = ? AND suspended = ? AND deleted = ?", true, false, false)
	case user.FilterUninitialized:
		return db.Where("initialized = ? AND suspended = ? AND deleted = ?", false, false, false)
	case user.FilterSuspended:
		return db.Where("suspended = ? AND deleted = ?", true, false)
	case user.FilterDeleted:
		return db.Where("deleted = ?", true)
	default:
		return db
	}
}

// List retrieves users with pagination, free-text search and status
// filtering. The search term matches screen name or email address.
func (r *UserRepoPG) List(ctx context.Context, term string, filter user.StatusFilter, page, limit int64) ([]user.User, int64, error) {
	query := statusConditions(r.db.WithContext(ctx).Model(&UserSchema{}), filter)

	if term != "" {
		pattern := "%" + strings.ToLower(security.EscapeLikePattern(term)) + "%"
		query = query.Where(
			"LOWER(screen_name) LIKE ? ESCAPE '\\' OR LOWER(email_address) LIKE ? ESCAPE '\\'",
			pattern, pattern,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		r.log.Error("failed to count users in db", zap.Error(err), zap.String("term", term))
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	var models []UserSchema
	err := query.
		Order("created_at DESC").
		Offset(int((page - 1) * limit)).
		Limit(int(limit)).
		Find(&models).Error
	if err != nil {
		r.log.Error("failed to list users from db", zap.Error(err), zap.String("term", term), zap.Int64("page", page), zap.Int64("limit", limit))
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]user.User, len(models))
	for i, model := range models {
		u, err := model.toDomain()
		if err != nil {
			return nil, 0, err
		}
		users[i] = u
	}

	return users, total, nil
}

// CountsByStatus aggregates the number of users per display status in a
// single conditional-aggregation query.
func (r *UserRepoPG) CountsByStatus(ctx context.Context) (user.StatusCounts, error) {
	var counts user.StatusCounts

	err := r.db.WithContext(ctx).Model(&UserSchema{}).
		Select(`COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN initialized AND NOT suspended AND NOT deleted THEN 1 ELSE 0 END), 0) AS active,
			COALESCE(SUM(CASE WHEN NOT initialized AND NOT suspended AND NOT deleted THEN 1 ELSE 0 END), 0) AS uninitialized,
			COALESCE(SUM(CASE WHEN suspended AND NOT deleted THEN 1 ELSE 0 END), 0) AS suspended,
			COALESCE(SUM(CASE WHEN deleted THEN 1 ELSE 0 END), 0) AS deleted`).
		Scan(&counts).Error
	if err != nil {
		r.log.Error("failed to count users by status", zap.Error(err))
		return user.StatusCounts{}, fmt.Errorf("failed to count users by status: %w", err)
	}

	return counts, nil
}
