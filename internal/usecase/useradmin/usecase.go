package useradmin

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ovee/byceps/internal/domain/authz"
	domain "github.com/ovee/byceps/internal/domain/user"
	"github.com/ovee/byceps/pkg/errors"
	"github.com/ovee/byceps/pkg/security"
)

const (
	defaultLimit int64 = 20
	maxLimit     int64 = 100
)

// AuthResult carries the outcome of a successful credential check.
type AuthResult struct {
	User        domain.User
	Permissions authz.PermissionSet
}

type useCase struct {
	repo     Repository
	counts   CountsCache
	log      *zap.Logger
	validate *validator.Validate
}

// NewUseCase creates a user administration use case.
func NewUseCase(repo Repository, counts CountsCache, log *zap.Logger) UseCase {
	return &useCase{
		repo:     repo,
		counts:   counts,
		log:      log,
		validate: validator.New(),
	}
}

// ListUsers returns one page of users matching the search term and
// status filter, together with the per-status totals for the tab row.
func (uc *useCase) ListUsers(ctx context.Context, req ListUsersRequest) (*ListUsersResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 {
		req.Limit = defaultLimit
	}
	if req.Limit > maxLimit {
		req.Limit = maxLimit
	}

	term, err := security.ValidateSearchTerm(req.SearchTerm)
	if err != nil {
		uc.log.Warn("rejected search term", zap.Error(err))
		return nil, errors.NewValidationError("search_term", err.Error())
	}

	users, total, err := uc.repo.List(ctx, term, req.Filter, req.Page, req.Limit)
	if err != nil {
		uc.log.Error("failed to list users", zap.Error(err))
		return nil, errors.NewInternalError("failed to list users", err)
	}

	counts, err := uc.statusCounts(ctx)
	if err != nil {
		return nil, err
	}

	dtos := make([]User, 0, len(users))
	for _, u := range users {
		dtos = append(dtos, toDTO(u))
	}

	return &ListUsersResponse{
		Users:      dtos,
		Pagination: domain.NewPagination(total, req.Page, req.Limit),
		Counts:     counts,
		SearchTerm: term,
		Filter:     req.Filter,
	}, nil
}

// GetUser returns details for a single user.
func (uc *useCase) GetUser(ctx context.Context, req GetUserRequest) (*GetUserResponse, error) {
	u, err := uc.repo.GetByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	return &GetUserResponse{User: toDTO(*u)}, nil
}

// CreateAccount creates an initialized user account with the given
// credentials. Screen name and email address must be unused.
func (uc *useCase) CreateAccount(ctx context.Context, req CreateAccountRequest) (*CreateAccountResponse, error) {
	if err := uc.validate.Struct(req); err != nil {
		return nil, errors.NewValidationError("", formatValidationError(err))
	}

	existing, err := uc.repo.GetByScreenName(ctx, req.ScreenName)
	if err != nil {
		uc.log.Error("failed to check screen name", zap.Error(err))
		return nil, errors.NewInternalError("failed to check screen name", err)
	}
	if existing != nil {
		return nil, errors.NewConflictError("user", "screen name is already in use")
	}

	if req.Email != "" {
		existing, err = uc.repo.GetByEmail(ctx, req.Email)
		if err != nil {
			uc.log.Error("failed to check email address", zap.Error(err))
			return nil, errors.NewInternalError("failed to check email address", err)
		}
		if existing != nil {
			return nil, errors.NewConflictError("user", "email address is already in use")
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		uc.log.Error("failed to hash password", zap.Error(err))
		return nil, errors.NewInternalError("failed to hash password", err)
	}

	u := &domain.User{
		ID:           uuid.New(),
		CreatedAt:    time.Now().UTC(),
		ScreenName:   req.ScreenName,
		EmailAddress: req.Email,
		Initialized:  true,
	}

	if err := uc.repo.Create(ctx, u, string(hash)); err != nil {
		uc.log.Error("failed to create user", zap.Error(err))
		return nil, errors.NewInternalError("failed to create user", err)
	}

	uc.invalidateCounts(ctx)
	uc.log.Info("user account created",
		zap.String("user_id", u.ID.String()),
		zap.String("screen_name", u.ScreenName))

	return &CreateAccountResponse{ID: u.ID}, nil
}

// SetSuspended suspends or unsuspends a user.
func (uc *useCase) SetSuspended(ctx context.Context, req SetSuspendedRequest) error {
	u, err := uc.repo.GetByID(ctx, req.ID)
	if err != nil {
		return err
	}
	if u.Deleted {
		return errors.NewConflictError("user", "deleted users cannot be suspended or unsuspended")
	}
	if u.Suspended == req.Suspended {
		return nil
	}

	u.Suspended = req.Suspended
	if err := uc.repo.Update(ctx, u); err != nil {
		uc.log.Error("failed to update user", zap.Error(err))
		return errors.NewInternalError("failed to update user", err)
	}

	uc.invalidateCounts(ctx)
	uc.log.Info("user suspension changed",
		zap.String("user_id", u.ID.String()),
		zap.Bool("suspended", req.Suspended),
		zap.String("initiator_id", req.Initiator.String()))
	return nil
}

// DeleteUser marks a user account as deleted. The record is kept so
// that references from other data remain resolvable.
func (uc *useCase) DeleteUser(ctx context.Context, req DeleteUserRequest) error {
	u, err := uc.repo.GetByID(ctx, req.ID)
	if err != nil {
		return err
	}
	if u.Deleted {
		return errors.NewConflictError("user", "user is already deleted")
	}

	u.Deleted = true
	u.Suspended = false
	if err := uc.repo.Update(ctx, u); err != nil {
		uc.log.Error("failed to delete user", zap.Error(err))
		return errors.NewInternalError("failed to delete user", err)
	}

	uc.invalidateCounts(ctx)
	uc.log.Info("user account deleted",
		zap.String("user_id", u.ID.String()),
		zap.String("initiator_id", req.Initiator.String()))
	return nil
}

// Authenticate verifies the given credentials and resolves the user's
// permissions from their roles. Suspended, deleted and uninitialized
// accounts are rejected.
func (uc *useCase) Authenticate(ctx context.Context, screenName, password string) (*AuthResult, error) {
	u, hash, roles, err := uc.repo.GetCredentials(ctx, screenName)
	if err != nil {
		uc.log.Error("failed to load credentials", zap.Error(err))
		return nil, errors.NewInternalError("failed to load credentials", err)
	}
	if u == nil {
		return nil, errors.NewForbiddenError("invalid credentials")
	}
	if u.Status() != domain.StatusActive {
		uc.log.Warn("login attempt for inactive account",
			zap.String("screen_name", screenName),
			zap.String("status", string(u.Status())))
		return nil, errors.NewForbiddenError("account is not active")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		uc.log.Warn("failed login attempt", zap.String("screen_name", screenName))
		return nil, errors.NewForbiddenError("invalid credentials")
	}

	uc.log.Info("user authenticated", zap.String("user_id", u.ID.String()))
	return &AuthResult{
		User:        *u,
		Permissions: authz.PermissionsForRoles(roles),
	}, nil
}

func (uc *useCase) statusCounts(ctx context.Context) (domain.StatusCounts, error) {
	if cached, err := uc.counts.GetUserCounts(ctx); err == nil && cached != nil {
		return *cached, nil
	}

	counts, err := uc.repo.CountsByStatus(ctx)
	if err != nil {
		uc.log.Error("failed to count users", zap.Error(err))
		return domain.StatusCounts{}, errors.NewInternalError("failed to count users", err)
	}

	if err := uc.counts.SetUserCounts(ctx, counts); err != nil {
		uc.log.Warn("failed to cache user counts", zap.Error(err))
	}
	return counts, nil
}

func (uc *useCase) invalidateCounts(ctx context.Context) {
	if err := uc.counts.InvalidateUserCounts(ctx); err != nil {
		uc.log.Warn("failed to invalidate user counts", zap.Error(err))
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
		case "email":
			msgs = append(msgs, fmt.Sprintf("%s must be a valid email address", fe.Field()))
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return strings.Join(msgs, "; ")
}
