package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ovee/byceps/internal/adapter/web/view"
	"github.com/ovee/byceps/internal/domain/guestserver"
	"github.com/ovee/byceps/internal/usecase/guestserveradmin"
	"github.com/ovee/byceps/pkg/errors"
)

// GuestServerAdminHandler serves the guest server dashboard and the
// lifecycle actions.
type GuestServerAdminHandler struct {
	servers  guestserveradmin.UseCase
	partyID  string
	renderer *view.Renderer
	log      *zap.Logger
}

// NewGuestServerAdminHandler creates a GuestServerAdminHandler bound to
// the currently administered party.
func NewGuestServerAdminHandler(servers guestserveradmin.UseCase, partyID string, renderer *view.Renderer, log *zap.Logger) *GuestServerAdminHandler {
	return &GuestServerAdminHandler{
		servers:  servers,
		partyID:  partyID,
		renderer: renderer,
		log:      log,
	}
}

// Index renders the guest server dashboard for the current party.
func (h *GuestServerAdminHandler) Index(c *gin.Context) {
	resp, err := h.servers.ListServers(c.Request.Context(), h.partyID)
	if err != nil {
		renderError(c, h.renderer, h.log, err)
		return
	}
	render(c, h.renderer, http.StatusOK, "servers_index", "Guest servers", resp)
}

// Detail renders a single server.
func (h *GuestServerAdminHandler) Detail(c *gin.Context) {
	id, ok := h.serverID(c)
	if !ok {
		return
	}

	resp, err := h.servers.GetServer(c.Request.Context(), id)
	if err != nil {
		renderError(c, h.renderer, h.log, err)
		return
	}
	render(c, h.renderer, http.StatusOK, "server_detail", "Guest server", resp)
}

// RegisterForm renders the registration form.
func (h *GuestServerAdminHandler) RegisterForm(c *gin.Context) {
	render(c, h.renderer, http.StatusOK, "server_register", "Register guest server", registerFormData{})
}

type registerFormData struct {
	Owner       string
	Description string
	IPAddress   string
	Hostname    string
	NotesOwner  string
	NotesAdmin  string
	Error       string
}

// Register handles the registration form submission.
func (h *GuestServerAdminHandler) Register(c *gin.Context) {
	form := registerFormData{
		Owner:       c.PostForm("owner"),
		Description: c.PostForm("description"),
		IPAddress:   c.PostForm("ip_address"),
		Hostname:    c.PostForm("hostname"),
		NotesOwner:  c.PostForm("notes_owner"),
		NotesAdmin:  c.PostForm("notes_admin"),
	}

	req := guestserveradmin.RegisterServerRequest{
		PartyID:         h.partyID,
		CreatorID:       currentUserID(c),
		OwnerScreenName: form.Owner,
		Description:     form.Description,
		NotesOwner:      form.NotesOwner,
		NotesAdmin:      form.NotesAdmin,
	}
	if form.IPAddress != "" || form.Hostname != "" {
		req.Addresses = []guestserveradmin.AddressInput{{
			IPAddress: form.IPAddress,
			Hostname:  form.Hostname,
		}}
	}

	resp, err := h.servers.RegisterServer(c.Request.Context(), req)
	if err != nil {
		status := errors.StatusCode(err)
		if status >= 500 {
			renderError(c, h.renderer, h.log, err)
			return
		}
		form.Error = err.Error()
		render(c, h.renderer, status, "server_register", "Register guest server", form)
		return
	}

	setFlash(c, "Guest server has been registered.")
	c.Redirect(http.StatusSeeOther, "/admin/guest_servers/"+resp.ID.String())
}

// Approve marks a server as approved.
func (h *GuestServerAdminHandler) Approve(c *gin.Context) {
	h.transition(c, h.servers.ApproveServer, "Guest server has been approved.")
}

// CheckIn marks a server as brought in.
func (h *GuestServerAdminHandler) CheckIn(c *gin.Context) {
	h.transition(c, h.servers.CheckInServer, "Guest server has been checked in.")
}

// CheckOut marks a server as taken away.
func (h *GuestServerAdminHandler) CheckOut(c *gin.Context) {
	h.transition(c, h.servers.CheckOutServer, "Guest server has been checked out.")
}

func (h *GuestServerAdminHandler) transition(c *gin.Context, apply func(ctx context.Context, req guestserveradmin.TransitionRequest) error, notice string) {
	id, ok := h.serverID(c)
	if !ok {
		return
	}

	err := apply(c.Request.Context(), guestserveradmin.TransitionRequest{
		ServerID:  id,
		Initiator: currentUserID(c),
	})
	if err != nil {
		renderError(c, h.renderer, h.log, err)
		return
	}

	setFlash(c, notice)
	c.Redirect(http.StatusSeeOther, "/admin/guest_servers/"+id.String())
}

// UpdateNotes replaces the admin notes of a server.
func (h *GuestServerAdminHandler) UpdateNotes(c *gin.Context) {
	id, ok := h.serverID(c)
	if !ok {
		return
	}

	err := h.servers.UpdateNotes(c.Request.Context(), guestserveradmin.UpdateNotesRequest{
		ServerID:   id,
		NotesAdmin: c.PostForm("notes_admin"),
	})
	if err != nil {
		renderError(c, h.renderer, h.log, err)
		return
	}

	setFlash(c, "Notes have been saved.")
	c.Redirect(http.StatusSeeOther, "/admin/guest_servers/"+id.String())
}

// SettingForm renders the network setting form.
func (h *GuestServerAdminHandler) SettingForm(c *gin.Context) {
	resp, err := h.servers.ListServers(c.Request.Context(), h.partyID)
	if err != nil {
		renderError(c, h.renderer, h.log, err)
		return
	}
	render(c, h.renderer, http.StatusOK, "setting_form", "Network setting", map[string]any{
		"Setting": resp.Setting,
		"Error":   "",
	})
}

// UpdateSetting handles the network setting form submission.
func (h *GuestServerAdminHandler) UpdateSetting(c *gin.Context) {
	req := guestserveradmin.UpdateSettingRequest{
		PartyID:    h.partyID,
		Netmask:    c.PostForm("netmask"),
		Gateway:    c.PostForm("gateway"),
		DNSServer1: c.PostForm("dns_server1"),
		DNSServer2: c.PostForm("dns_server2"),
		Domain:     c.PostForm("domain"),
	}

	if err := h.servers.UpdateSetting(c.Request.Context(), req); err != nil {
		status := errors.StatusCode(err)
		if status >= 500 {
			renderError(c, h.renderer, h.log, err)
			return
		}
		render(c, h.renderer, status, "setting_form", "Network setting", map[string]any{
			"Setting": settingFromRequest(req),
			"Error":   err.Error(),
		})
		return
	}

	setFlash(c, "Setting has been saved.")
	c.Redirect(http.StatusSeeOther, "/admin/guest_servers")
}

// Delete removes a server registration.
func (h *GuestServerAdminHandler) Delete(c *gin.Context) {
	id, ok := h.serverID(c)
	if !ok {
		return
	}

	err := h.servers.DeleteServer(c.Request.Context(), guestserveradmin.DeleteServerRequest{
		ServerID:  id,
		Initiator: currentUserID(c),
	})
	if err != nil {
		renderError(c, h.renderer, h.log, err)
		return
	}

	setFlash(c, "Guest server has been deleted.")
	c.Redirect(http.StatusSeeOther, "/admin/guest_servers")
}

func (h *GuestServerAdminHandler) serverID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		renderError(c, h.renderer, h.log, errors.NewNotFoundError("guest server", c.Param("id")))
		return uuid.Nil, false
	}
	return id, true
}

func settingFromRequest(req guestserveradmin.UpdateSettingRequest) guestserver.Setting {
	return guestserver.Setting{
		PartyID:    req.PartyID,
		Netmask:    req.Netmask,
		Gateway:    req.Gateway,
		DNSServer1: req.DNSServer1,
		DNSServer2: req.DNSServer2,
		Domain:     req.Domain,
	}
}
