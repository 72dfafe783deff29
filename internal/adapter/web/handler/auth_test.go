package handler

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ovee/byceps/internal/adapter/web/session"
	"github.com/ovee/byceps/internal/adapter/web/view"
	"github.com/ovee/byceps/internal/domain/authz"
	"github.com/ovee/byceps/internal/domain/user"
	"github.com/ovee/byceps/internal/usecase/useradmin"
	"github.com/ovee/byceps/pkg/errors"
)

func newAuthTestRouter(t *testing.T) (*gin.Engine, *mockUserUseCase, *session.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	renderer, err := view.NewRenderer()
	require.NoError(t, err)

	sessions, err := session.NewManager("0123456789abcdef0123456789abcdef", time.Hour, "byceps_session", false)
	require.NoError(t, err)

	uc := new(mockUserUseCase)
	h := NewAuthHandler(uc, sessions, renderer, zaptest.NewLogger(t))

	r := gin.New()
	r.GET("/login", h.LoginForm)
	r.POST("/login", h.Login)
	r.POST("/logout", h.Logout)
	return r, uc, sessions
}

func postForm(r *gin.Engine, path string, form url.Values) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.ServeHTTP(rec, req)
	return rec
}

func TestLoginForm(t *testing.T) {
	r, _, _ := newAuthTestRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Log in")
}

func TestLoginSetsSessionCookie(t *testing.T) {
	r, uc, sessions := newAuthTestRouter(t)

	u := user.User{ID: uuid.New(), ScreenName: "alice", Initialized: true}
	uc.On("Authenticate", mock.Anything, "alice", "hunter22").
		Return(&useradmin.AuthResult{
			User:        u,
			Permissions: authz.NewPermissionSet(authz.UserView),
		}, nil)

	rec := postForm(r, "/login", url.Values{
		"screen_name": {" alice "},
		"password":    {"hunter22"},
	})

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/users", rec.Header().Get("Location"))

	var token string
	for _, c := range rec.Result().Cookies() {
		if c.Name == "byceps_session" {
			token = c.Value
		}
	}
	require.NotEmpty(t, token)

	sess, err := sessions.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, sess.UserID)
	assert.True(t, sess.Permissions.Has(authz.UserView))
}

func TestLoginFollowsNext(t *testing.T) {
	r, uc, _ := newAuthTestRouter(t)

	uc.On("Authenticate", mock.Anything, "alice", "hunter22").
		Return(&useradmin.AuthResult{User: user.User{ID: uuid.New()}}, nil)

	rec := postForm(r, "/login?next=%2Fadmin%2Fguest_servers", url.Values{
		"screen_name": {"alice"},
		"password":    {"hunter22"},
	})

	assert.Equal(t, "/admin/guest_servers", rec.Header().Get("Location"))
}

func TestLoginIgnoresExternalNext(t *testing.T) {
	r, uc, _ := newAuthTestRouter(t)

	uc.On("Authenticate", mock.Anything, "alice", "hunter22").
		Return(&useradmin.AuthResult{User: user.User{ID: uuid.New()}}, nil)

	rec := postForm(r, "/login?next=%2F%2Fevil.example%2F", url.Values{
		"screen_name": {"alice"},
		"password":    {"hunter22"},
	})

	assert.Equal(t, "/admin/users", rec.Header().Get("Location"))
}

func TestLoginFailureRerendersForm(t *testing.T) {
	r, uc, _ := newAuthTestRouter(t)

	uc.On("Authenticate", mock.Anything, "mallory", "wrong").
		Return(nil, errors.NewForbiddenError("invalid credentials"))

	rec := postForm(r, "/login", url.Values{
		"screen_name": {"mallory"},
		"password":    {"wrong"},
	})

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Login failed.")
	assert.Contains(t, rec.Body.String(), "mallory")
}

func TestLogoutClearsCookie(t *testing.T) {
	r, _, _ := newAuthTestRouter(t)

	rec := postForm(r, "/logout", nil)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == "byceps_session" && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared)
}
