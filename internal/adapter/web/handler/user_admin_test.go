package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ovee/byceps/internal/adapter/web/middleware"
	"github.com/ovee/byceps/internal/adapter/web/session"
	"github.com/ovee/byceps/internal/adapter/web/view"
	"github.com/ovee/byceps/internal/domain/authz"
	domain "github.com/ovee/byceps/internal/domain/user"
	"github.com/ovee/byceps/internal/usecase/useradmin"
	"github.com/ovee/byceps/pkg/errors"
)

type mockUserUseCase struct {
	mock.Mock
}

func (m *mockUserUseCase) ListUsers(ctx context.Context, req useradmin.ListUsersRequest) (*useradmin.ListUsersResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*useradmin.ListUsersResponse), args.Error(1)
}

func (m *mockUserUseCase) GetUser(ctx context.Context, req useradmin.GetUserRequest) (*useradmin.GetUserResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*useradmin.GetUserResponse), args.Error(1)
}

func (m *mockUserUseCase) CreateAccount(ctx context.Context, req useradmin.CreateAccountRequest) (*useradmin.CreateAccountResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*useradmin.CreateAccountResponse), args.Error(1)
}

func (m *mockUserUseCase) SetSuspended(ctx context.Context, req useradmin.SetSuspendedRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *mockUserUseCase) DeleteUser(ctx context.Context, req useradmin.DeleteUserRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *mockUserUseCase) Authenticate(ctx context.Context, screenName, password string) (*useradmin.AuthResult, error) {
	args := m.Called(ctx, screenName, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*useradmin.AuthResult), args.Error(1)
}

func (m *mockUserUseCase) ImportUsers(ctx context.Context, r io.Reader) (*useradmin.ImportResult, error) {
	args := m.Called(ctx, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*useradmin.ImportResult), args.Error(1)
}

// withAdminSession injects a fully privileged session, the way the
// authentication middleware would for a logged-in admin.
func withAdminSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.SetSession(c, &session.Session{
			UserID:     uuid.New(),
			ScreenName: "admin",
			Permissions: authz.NewPermissionSet(
				authz.UserView, authz.UserAdministrate,
				authz.GuestServerView, authz.GuestServerAdministrate,
			),
		})
		c.Next()
	}
}

func newUserAdminRouter(t *testing.T) (*gin.Engine, *mockUserUseCase) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	renderer, err := view.NewRenderer()
	require.NoError(t, err)

	uc := new(mockUserUseCase)
	h := NewUserAdminHandler(uc, renderer, zaptest.NewLogger(t))

	r := gin.New()
	r.Use(withAdminSession())
	r.GET("/admin/users", h.Index)
	r.GET("/admin/users/create", h.CreateForm)
	r.POST("/admin/users/create", h.Create)
	r.GET("/admin/users/:id", h.Detail)
	r.POST("/admin/users/:id/suspend", h.Suspend)
	r.POST("/admin/users/:id/delete", h.Delete)
	return r, uc
}

func TestIndex(t *testing.T) {
	r, uc := newUserAdminRouter(t)

	uc.On("ListUsers", mock.Anything, useradmin.ListUsersRequest{
		SearchTerm: "ali",
		Filter:     domain.FilterActive,
		Page:       2,
	}).Return(&useradmin.ListUsersResponse{
		Users: []useradmin.User{
			{ID: uuid.New(), ScreenName: "alice", Status: domain.StatusActive},
		},
		Pagination: domain.NewPagination(21, 2, 20),
		Counts:     domain.StatusCounts{Total: 21, Active: 21},
		SearchTerm: "ali",
		Filter:     domain.FilterActive,
	}, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/users?page=2&search_term=ali&filter=active", nil)
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "alice")
	uc.AssertExpectations(t)
}

func TestIndexUnknownFilterFallsBackToAll(t *testing.T) {
	r, uc := newUserAdminRouter(t)

	uc.On("ListUsers", mock.Anything, mock.MatchedBy(func(req useradmin.ListUsersRequest) bool {
		return req.Filter == domain.FilterNone
	})).Return(&useradmin.ListUsersResponse{
		Pagination: domain.NewPagination(0, 1, 20),
	}, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/users?filter=bogus", nil)
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	uc.AssertExpectations(t)
}

func TestDetail(t *testing.T) {
	r, uc := newUserAdminRouter(t)

	id := uuid.New()
	uc.On("GetUser", mock.Anything, useradmin.GetUserRequest{ID: id}).
		Return(&useradmin.GetUserResponse{
			User: useradmin.User{ID: id, ScreenName: "bob", Status: domain.StatusSuspended},
		}, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/users/"+id.String(), nil)
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "bob")
	assert.Contains(t, rec.Body.String(), "Unsuspend")
}

func TestDetailBadID(t *testing.T) {
	r, _ := newUserAdminRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/users/not-a-uuid", nil)
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDetailNotFound(t *testing.T) {
	r, uc := newUserAdminRouter(t)

	id := uuid.New()
	uc.On("GetUser", mock.Anything, mock.Anything).
		Return(nil, errors.NewNotFoundError("user", ""))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/users/"+id.String(), nil)
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateRedirectsOnSuccess(t *testing.T) {
	r, uc := newUserAdminRouter(t)

	id := uuid.New()
	uc.On("CreateAccount", mock.Anything, useradmin.CreateAccountRequest{
		ScreenName: "carol",
		Email:      "carol@example.test",
		Password:   "longenough",
	}).Return(&useradmin.CreateAccountResponse{ID: id}, nil)

	form := url.Values{
		"screen_name": {"carol"},
		"email":       {"carol@example.test"},
		"password":    {"longenough"},
	}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/users/create", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/users/"+id.String(), rec.Header().Get("Location"))
}

func TestCreateRerendersFormOnValidationError(t *testing.T) {
	r, uc := newUserAdminRouter(t)

	uc.On("CreateAccount", mock.Anything, mock.Anything).
		Return(nil, errors.NewValidationError("Password", "must be at least 8 characters"))

	form := url.Values{
		"screen_name": {"carol"},
		"password":    {"short"},
	}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/users/create", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	// entered values survive the round trip
	assert.Contains(t, rec.Body.String(), "carol")
	assert.Contains(t, rec.Body.String(), "at least 8 characters")
}

func TestSuspendRedirects(t *testing.T) {
	r, uc := newUserAdminRouter(t)

	id := uuid.New()
	uc.On("SetSuspended", mock.Anything, mock.MatchedBy(func(req useradmin.SetSuspendedRequest) bool {
		return req.ID == id && req.Suspended
	})).Return(nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/users/"+id.String()+"/suspend", nil)
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/users/"+id.String(), rec.Header().Get("Location"))
}

func TestDeleteConflict(t *testing.T) {
	r, uc := newUserAdminRouter(t)

	id := uuid.New()
	uc.On("DeleteUser", mock.Anything, mock.Anything).
		Return(errors.NewConflictError("user", "user is already deleted"))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/users/"+id.String()+"/delete", nil)
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "already deleted")
}
