// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package invite lets a signed-in operator invite another operator by
// email. The invitee receives a one-time link to choose a password.
package invite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"hopecity/internal/auth"
	"hopecity/internal/models"
)

// TokenTTL is how long an invite link stays valid.
const TokenTTL = 7 * 24 * time.Hour

var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrEmailRequired = errors.New("email is required")
	ErrInvalidEmail  = errors.New("email is not valid")
)

// Inviter creates an invited operator account and returns the one-time
// token that activates it.
type Inviter interface {
	CreateInvite(ctx context.Context, email string, expiresAt time.Time) (*models.User, string, error)
}

// Result is returned for a successful invitation.
type Result struct {
	User *models.User `json:"user"`
}

// Relay validates invite requests and delivers the invitation mail.
type Relay struct {
	inviter  Inviter
	mailer   Mailer
	baseURL  string
	validate *validator.Validate
	now      func() time.Time
}

// NewRelay creates a relay. baseURL is the public origin used in links.
func NewRelay(inviter Inviter, mailer Mailer, baseURL string) *Relay {
	return &Relay{
		inviter:  inviter,
		mailer:   mailer,
		baseURL:  strings.TrimRight(baseURL, "/"),
		validate: validator.New(),
		now:      time.Now,
	}
}

// Invite creates an invited account for email on behalf of the principal
// in ctx and mails the accept link.
func (r *Relay) Invite(ctx context.Context, email string) (*Result, error) {
	p, ok := auth.PrincipalFrom(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, ErrEmailRequired
	}
	if err := r.validate.Var(email, "email"); err != nil {
		return nil, ErrInvalidEmail
	}

	user, token, err := r.inviter.CreateInvite(ctx, email, r.now().Add(TokenTTL))
	if err != nil {
		return nil, fmt.Errorf("create invite: %w", err)
	}

	link := r.baseURL + "/admin/invite/accept?token=" + url.QueryEscape(token)
	msg := Message{
		To:      email,
		Subject: "You're invited to edit the Hope City site",
		Body: fmt.Sprintf("%s invited you to help manage the Hope City Highlands website.\n\n"+
			"Choose your password here (the link expires in 7 days):\n%s\n", p.Email, link),
	}
	if err := r.mailer.Send(ctx, msg); err != nil {
		return nil, fmt.Errorf("send invite: %w", err)
	}

	slog.Info("operator invited", "email", email, "invited_by", p.Email)
	return &Result{User: user}, nil
}
