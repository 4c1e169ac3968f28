// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"hopecity/internal/auth"
	"hopecity/internal/models"
	"hopecity/internal/render"
)

// Roster lists and manages operator accounts. *store.UserStore satisfies it.
type Roster interface {
	List(ctx context.Context) ([]models.User, error)
	Count(ctx context.Context) (int, error)
	ResetTOTP(ctx context.Context, userID uuid.UUID) error
	Delete(ctx context.Context, userID uuid.UUID) error
}

// Operators handles the operator list shown in remote mode.
type Operators struct {
	renderer *render.Renderer
	roster   Roster
}

// NewOperators creates the operator handler group.
func NewOperators(renderer *render.Renderer, roster Roster) *Operators {
	return &Operators{renderer: renderer, roster: roster}
}

var operatorNotices = map[string]render.Flash{
	"reset":   {Type: "success", Message: "2FA was reset. The operator will enroll again at next sign-in."},
	"removed": {Type: "success", Message: "Operator removed."},
	"self":    {Type: "error", Message: "You cannot change your own account here."},
	"last":    {Type: "error", Message: "The last operator cannot be removed."},
	"failed":  {Type: "error", Message: "The change could not be saved."},
}

// List renders every operator with its enrollment state.
func (o *Operators) List(w http.ResponseWriter, r *http.Request) {
	users, err := o.roster.List(r.Context())
	if err != nil {
		slog.Error("list operators failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var flashes []render.Flash
	if f, ok := operatorNotices[r.URL.Query().Get("notice")]; ok {
		flashes = append(flashes, f)
	}

	var self uuid.UUID
	if p, ok := auth.PrincipalFrom(r.Context()); ok {
		self = p.UserID
	}

	o.renderer.Page(w, r, "operators", &render.PageData{
		Title:      "Operators",
		Section:    "operators",
		RemoteMode: true,
		Flashes:    flashes,
		Data: map[string]any{
			"Users": users,
			"Self":  self,
		},
	})
}

// ResetTwoFA clears another operator's TOTP enrollment.
func (o *Operators) ResetTwoFA(w http.ResponseWriter, r *http.Request) {
	target, ok := o.target(w, r)
	if !ok {
		return
	}
	if err := o.roster.ResetTOTP(r.Context(), target); err != nil {
		slog.Error("reset 2fa failed", "error", err, "user_id", target)
		redirectOperators(w, r, "failed")
		return
	}
	slog.Info("2fa reset by admin", "user_id", target)
	redirectOperators(w, r, "reset")
}

// Remove deletes another operator's account, keeping at least one.
func (o *Operators) Remove(w http.ResponseWriter, r *http.Request) {
	target, ok := o.target(w, r)
	if !ok {
		return
	}

	n, err := o.roster.Count(r.Context())
	if err != nil {
		slog.Error("count operators failed", "error", err)
		redirectOperators(w, r, "failed")
		return
	}
	if n <= 1 {
		redirectOperators(w, r, "last")
		return
	}

	if err := o.roster.Delete(r.Context(), target); err != nil {
		slog.Error("remove operator failed", "error", err, "user_id", target)
		redirectOperators(w, r, "failed")
		return
	}
	slog.Info("operator removed", "user_id", target)
	redirectOperators(w, r, "removed")
}

// target parses the {id} URL parameter and refuses actions on the
// signed-in operator's own account.
func (o *Operators) target(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return uuid.Nil, false
	}
	if p, ok := auth.PrincipalFrom(r.Context()); ok && p.UserID == id {
		redirectOperators(w, r, "self")
		return uuid.Nil, false
	}
	return id, true
}

func redirectOperators(w http.ResponseWriter, r *http.Request, notice string) {
	http.Redirect(w, r, "/admin/operators?notice="+notice, http.StatusSeeOther)
}
