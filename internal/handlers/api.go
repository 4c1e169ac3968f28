// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"

	"hopecity/internal/auth"
	"hopecity/internal/invite"
	"hopecity/internal/middleware"
	"hopecity/internal/models"
	"hopecity/internal/pin"
	"hopecity/internal/remote"
	"hopecity/internal/siteconfig"
	"hopecity/internal/store"
)

// API serves the bearer-authenticated JSON admin API. Exactly one of users
// (remote mode) and pins (local mode) is set.
type API struct {
	issuer   *auth.TokenIssuer
	users    Users
	pins     PINGate
	attempts Limiter
	config   *siteconfig.Store
	relay    Inviter
	validate *validator.Validate
}

// NewAPI creates the JSON API handler group.
func NewAPI(issuer *auth.TokenIssuer, users Users, pins PINGate, attempts Limiter, config *siteconfig.Store, relay Inviter) *API {
	return &API{
		issuer:   issuer,
		users:    users,
		pins:     pins,
		attempts: attempts,
		config:   config,
		relay:    relay,
		validate: newValidator(),
	}
}

type tokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Code     string `json:"code"`
	PIN      string `json:"pin"`
}

// Token exchanges credentials for a bearer token: email, password and TOTP
// code in remote mode, the operator PIN in local mode.
func (a *API) Token(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var (
		p      auth.Principal
		status int
		msg    string
	)
	if a.users != nil {
		p, status, msg = a.passwordPrincipal(r, req)
	} else {
		p, status, msg = a.pinPrincipal(r, req)
	}
	if status != 0 {
		writeError(w, status, msg)
		return
	}

	token, err := a.issuer.Issue(p)
	if err != nil {
		slog.Error("issue token failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token":      token,
		"expires_in": int(a.issuer.TTL().Seconds()),
	})
}

// passwordPrincipal returns a non-zero status when sign-in fails.
func (a *API) passwordPrincipal(r *http.Request, req tokenRequest) (auth.Principal, int, string) {
	ctx := r.Context()
	email := strings.ToLower(strings.TrimSpace(req.Email))
	loginKey := "login:" + email

	if lockedOut(ctx, a.attempts, loginKey) {
		return auth.Principal{}, http.StatusTooManyRequests, "too many attempts"
	}

	user, err := a.users.FindByEmail(ctx, email)
	if err != nil {
		slog.Error("token lookup failed", "error", err)
		return auth.Principal{}, http.StatusInternalServerError, "internal error"
	}
	if user == nil || !a.users.CheckPassword(user, req.Password) {
		recordFailure(ctx, a.attempts, loginKey)
		return auth.Principal{}, http.StatusUnauthorized, "invalid credentials"
	}
	resetAttempts(ctx, a.attempts, loginKey)

	if !user.TOTPEnabled || user.TOTPSecret == nil {
		return auth.Principal{}, http.StatusForbidden, "set up two-factor authentication in the admin panel first"
	}

	totpKey := "totp:" + user.ID.String()
	if lockedOut(ctx, a.attempts, totpKey) {
		return auth.Principal{}, http.StatusTooManyRequests, "too many attempts"
	}
	if !totp.Validate(strings.TrimSpace(req.Code), *user.TOTPSecret) {
		recordFailure(ctx, a.attempts, totpKey)
		return auth.Principal{}, http.StatusUnauthorized, "invalid credentials"
	}
	resetAttempts(ctx, a.attempts, totpKey)

	return auth.Principal{UserID: user.ID, Email: user.Email, Role: user.Role}, 0, ""
}

func (a *API) pinPrincipal(r *http.Request, req tokenRequest) (auth.Principal, int, string) {
	ctx := r.Context()
	key := "pin:" + middleware.ClientIP(r)

	if lockedOut(ctx, a.attempts, key) {
		return auth.Principal{}, http.StatusTooManyRequests, "too many attempts"
	}

	err := a.pins.Verify(ctx, req.PIN)
	switch {
	case errors.Is(err, pin.ErrNotSet):
		return auth.Principal{}, http.StatusForbidden, "set the admin PIN in the admin panel first"
	case errors.Is(err, pin.ErrMismatch), errors.Is(err, pin.ErrFormat):
		recordFailure(ctx, a.attempts, key)
		return auth.Principal{}, http.StatusUnauthorized, "invalid credentials"
	case err != nil:
		slog.Error("pin verify failed", "error", err)
		return auth.Principal{}, http.StatusInternalServerError, "internal error"
	}
	resetAttempts(ctx, a.attempts, key)

	return auth.Principal{UserID: uuid.Nil, Email: "operator", Role: models.RoleAdmin}, 0, ""
}

// SaveConfig replaces the site config with the request body.
func (a *API) SaveConfig(w http.ResponseWriter, r *http.Request) {
	var cfg models.SiteConfig
	if err := decodeJSON(w, r, &cfg); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	form := formFromConfig(cfg)
	if errs := validateSettings(a.validate, form); len(errs) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":   "validation failed",
			"details": errs,
		})
		return
	}

	err := a.config.Save(r.Context(), form.config())
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	case errors.Is(err, remote.ErrAuthRequired):
		writeError(w, http.StatusUnauthorized, sentence(err))
	case errors.Is(err, remote.ErrPartialWrite), errors.Is(err, remote.ErrTransport):
		writeError(w, http.StatusBadGateway, sentence(err))
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// Invite relays an invitation and returns the created user.
func (a *API) Invite(w http.ResponseWriter, r *http.Request) {
	if a.relay == nil {
		writeError(w, http.StatusNotFound, "invitations need the remote store")
		return
	}

	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := a.relay.Invite(r.Context(), req.Email)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "user": res.User})
	case errors.Is(err, invite.ErrEmailRequired), errors.Is(err, invite.ErrInvalidEmail):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, invite.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, store.ErrEmailTaken):
		writeError(w, http.StatusConflict, "email already has an account")
	default:
		slog.Error("invite failed", "error", err)
		writeError(w, http.StatusBadGateway, "invitation could not be sent")
	}
}
