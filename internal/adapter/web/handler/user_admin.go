package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ovee/byceps/internal/adapter/web/middleware"
	"github.com/ovee/byceps/internal/adapter/web/view"
	domain "github.com/ovee/byceps/internal/domain/user"
	"github.com/ovee/byceps/internal/usecase/useradmin"
	"github.com/ovee/byceps/pkg/errors"
)

// UserAdminHandler serves the user administration pages.
type UserAdminHandler struct {
	users    useradmin.UseCase
	renderer *view.Renderer
	log      *zap.Logger
}

// NewUserAdminHandler creates a UserAdminHandler.
func NewUserAdminHandler(users useradmin.UseCase, renderer *view.Renderer, log *zap.Logger) *UserAdminHandler {
	return &UserAdminHandler{
		users:    users,
		renderer: renderer,
		log:      log,
	}
}

// Index renders the paginated, filterable user list.
func (h *UserAdminHandler) Index(c *gin.Context) {
	var query struct {
		Page       int64  `form:"page"`
		SearchTerm string `form:"search_term"`
		Filter     string `form:"filter"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		renderError(c, h.renderer, h.log, errors.NewValidationError("", "invalid query parameters"))
		return
	}

	resp, err := h.users.ListUsers(c.Request.Context(), useradmin.ListUsersRequest{
		SearchTerm: query.SearchTerm,
		Filter:     domain.ParseStatusFilter(query.Filter),
		Page:       query.Page,
	})
	if err != nil {
		renderError(c, h.renderer, h.log, err)
		return
	}

	render(c, h.renderer, http.StatusOK, "users_index", "Users", resp)
}

// Detail renders a single user.
func (h *UserAdminHandler) Detail(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		renderError(c, h.renderer, h.log, errors.NewNotFoundError("user", c.Param("id")))
		return
	}

	resp, err := h.users.GetUser(c.Request.Context(), useradmin.GetUserRequest{ID: id})
	if err != nil {
		renderError(c, h.renderer, h.log, err)
		return
	}

	render(c, h.renderer, http.StatusOK, "user_detail", resp.User.ScreenName, resp)
}

// CreateForm renders the account creation form.
func (h *UserAdminHandler) CreateForm(c *gin.Context) {
	render(c, h.renderer, http.StatusOK, "user_create", "Create account", map[string]any{
		"ScreenName": "",
		"Email":      "",
		"Error":      "",
	})
}

// Create handles the account creation form submission. Validation
// failures re-render the form with the entered values.
func (h *UserAdminHandler) Create(c *gin.Context) {
	req := useradmin.CreateAccountRequest{
		ScreenName: c.PostForm("screen_name"),
		Email:      c.PostForm("email"),
		Password:   c.PostForm("password"),
	}

	resp, err := h.users.CreateAccount(c.Request.Context(), req)
	if err != nil {
		status := errors.StatusCode(err)
		if status >= 500 {
			renderError(c, h.renderer, h.log, err)
			return
		}
		render(c, h.renderer, status, "user_create", "Create account", map[string]any{
			"ScreenName": req.ScreenName,
			"Email":      req.Email,
			"Error":      err.Error(),
		})
		return
	}

	setFlash(c, fmt.Sprintf("Account %q has been created.", req.ScreenName))
	c.Redirect(http.StatusSeeOther, "/admin/users/"+resp.ID.String())
}

// Suspend marks a user as suspended.
func (h *UserAdminHandler) Suspend(c *gin.Context) {
	h.setSuspended(c, true, "User has been suspended.")
}

// Unsuspend lifts a suspension.
func (h *UserAdminHandler) Unsuspend(c *gin.Context) {
	h.setSuspended(c, false, "User is no longer suspended.")
}

func (h *UserAdminHandler) setSuspended(c *gin.Context, suspended bool, notice string) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		renderError(c, h.renderer, h.log, errors.NewNotFoundError("user", c.Param("id")))
		return
	}

	err = h.users.SetSuspended(c.Request.Context(), useradmin.SetSuspendedRequest{
		ID:        id,
		Suspended: suspended,
		Initiator: currentUserID(c),
	})
	if err != nil {
		renderError(c, h.renderer, h.log, err)
		return
	}

	setFlash(c, notice)
	c.Redirect(http.StatusSeeOther, "/admin/users/"+id.String())
}

// Delete soft-deletes a user.
func (h *UserAdminHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		renderError(c, h.renderer, h.log, errors.NewNotFoundError("user", c.Param("id")))
		return
	}

	err = h.users.DeleteUser(c.Request.Context(), useradmin.DeleteUserRequest{
		ID:        id,
		Initiator: currentUserID(c),
	})
	if err != nil {
		renderError(c, h.renderer, h.log, err)
		return
	}

	setFlash(c, "User has been deleted.")
	c.Redirect(http.StatusSeeOther, "/admin/users/"+id.String())
}

func currentUserID(c *gin.Context) uuid.UUID {
	if sess := middleware.CurrentSession(c); sess != nil {
		return sess.UserID
	}
	return uuid.Nil
}
