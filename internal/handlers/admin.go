// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"hopecity/internal/invite"
	"hopecity/internal/models"
	"hopecity/internal/pin"
	"hopecity/internal/remote"
	"hopecity/internal/render"
	"hopecity/internal/siteconfig"
	"hopecity/internal/store"
)

// Inviter sends operator invitations. *invite.Relay satisfies it.
type Inviter interface {
	Invite(ctx context.Context, email string) (*invite.Result, error)
}

// Admin groups the settings editor handlers.
type Admin struct {
	renderer *render.Renderer
	config   *siteconfig.Store
	relay    Inviter
	pins     PINGate
	validate *validator.Validate
}

// NewAdmin creates the admin handler group. relay is nil in local mode and
// pins is nil in remote mode.
func NewAdmin(renderer *render.Renderer, config *siteconfig.Store, relay Inviter, pins PINGate) *Admin {
	return &Admin{
		renderer: renderer,
		config:   config,
		relay:    relay,
		pins:     pins,
		validate: newValidator(),
	}
}

// Settings renders the editor with the current config.
func (a *Admin) Settings(w http.ResponseWriter, r *http.Request) {
	var flashes []render.Flash
	if r.URL.Query().Get("saved") != "" {
		flashes = append(flashes, render.Flash{Type: "success", Message: "Settings saved."})
	}
	a.renderSettings(w, r, a.config.Load(r.Context()), nil, flashes, http.StatusOK)
}

// SaveSettings validates the submitted form and saves it through the
// config store.
func (a *Admin) SaveSettings(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	form := parseSettingsForm(r.PostForm)
	if errs := validateSettings(a.validate, form); len(errs) > 0 {
		a.renderSettings(w, r, form.config(), errs, nil, http.StatusUnprocessableEntity)
		return
	}

	cfg := form.config()
	if err := a.config.Save(r.Context(), cfg); err != nil {
		a.renderSettings(w, r, cfg, nil, []render.Flash{{Type: "error", Message: saveErrorMessage(err)}}, http.StatusOK)
		return
	}

	slog.Info("site config saved", "events", len(cfg.Events), "remote", a.config.RemoteConfigured())
	http.Redirect(w, r, "/admin?saved=1", http.StatusSeeOther)
}

// saveErrorMessage describes a failed remote save to the operator.
func saveErrorMessage(err error) string {
	switch {
	case errors.Is(err, remote.ErrAuthRequired):
		return "Your session has expired. Sign in again to save."
	case errors.Is(err, remote.ErrPartialWrite):
		return "Settings were saved but some events may not have been. Check the events list and save again."
	case errors.Is(err, remote.ErrTransport):
		return "Could not reach the database. Your changes were not saved; please try again."
	default:
		return "Your changes could not be saved."
	}
}

// Invite sends an invitation to the submitted email address.
func (a *Admin) Invite(w http.ResponseWriter, r *http.Request) {
	if a.relay == nil {
		http.NotFound(w, r)
		return
	}
	cfg := a.config.Load(r.Context())

	email := r.FormValue("email")
	res, err := a.relay.Invite(r.Context(), email)
	var flash render.Flash
	switch {
	case err == nil:
		flash = render.Flash{Type: "success", Message: "Invitation sent to " + res.User.Email + "."}
	case errors.Is(err, invite.ErrEmailRequired), errors.Is(err, invite.ErrInvalidEmail):
		flash = render.Flash{Type: "error", Message: sentence(err)}
	case errors.Is(err, store.ErrEmailTaken):
		flash = render.Flash{Type: "error", Message: "That email already has an account."}
	default:
		slog.Error("invite failed", "error", err)
		flash = render.Flash{Type: "error", Message: "The invitation could not be sent."}
	}
	a.renderSettings(w, r, cfg, nil, []render.Flash{flash}, http.StatusOK)
}

// ChangePIN replaces the local-mode operator PIN.
func (a *Admin) ChangePIN(w http.ResponseWriter, r *http.Request) {
	if a.pins == nil {
		http.NotFound(w, r)
		return
	}
	cfg := a.config.Load(r.Context())

	next := r.FormValue("next")
	var flash render.Flash
	if next != r.FormValue("confirm") {
		flash = render.Flash{Type: "error", Message: "The new PINs do not match."}
		a.renderSettings(w, r, cfg, nil, []render.Flash{flash}, http.StatusOK)
		return
	}

	err := a.pins.Change(r.Context(), r.FormValue("current"), next)
	switch {
	case err == nil:
		slog.Info("admin pin changed")
		flash = render.Flash{Type: "success", Message: "PIN updated."}
	case errors.Is(err, pin.ErrMismatch):
		flash = render.Flash{Type: "error", Message: "Current PIN is incorrect."}
	case errors.Is(err, pin.ErrFormat), errors.Is(err, pin.ErrNotSet):
		flash = render.Flash{Type: "error", Message: sentence(err)}
	default:
		slog.Error("pin change failed", "error", err)
		flash = render.Flash{Type: "error", Message: "The PIN could not be changed."}
	}
	a.renderSettings(w, r, cfg, nil, []render.Flash{flash}, http.StatusOK)
}

func (a *Admin) renderSettings(w http.ResponseWriter, r *http.Request, cfg models.SiteConfig, errs []string, flashes []render.Flash, status int) {
	a.renderer.Page(w, r, "settings", &render.PageData{
		Title:      "Site Settings",
		Section:    "settings",
		RemoteMode: a.config.RemoteConfigured(),
		Flashes:    flashes,
		Status:     status,
		Data: map[string]any{
			"Config": cfg,
			"Errors": errs,
		},
	})
}
