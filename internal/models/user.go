// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package models defines the data structures shared by the stores, the
// configuration layer and the HTTP handlers.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Role represents an operator's permission level.
type Role string

const (
	RoleAdmin Role = "admin"
)

// User is a site operator who signs in to the admin panel when the
// remote store is configured.
type User struct {
	ID              uuid.UUID  `json:"id"`
	Email           string     `json:"email"`
	PasswordHash    string     `json:"-"`
	DisplayName     string     `json:"display_name"`
	Role            Role       `json:"role"`
	TOTPSecret      *string    `json:"-"`
	TOTPEnabled     bool       `json:"totp_enabled"`
	InviteTokenHash *string    `json:"-"`
	InviteExpiresAt *time.Time `json:"-"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// IsAdmin returns true if the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Needs2FASetup returns true if the user has not completed 2FA enrollment.
func (u *User) Needs2FASetup() bool {
	return !u.TOTPEnabled
}

// PendingInvite reports whether the user was invited and has not yet
// chosen a password.
func (u *User) PendingInvite() bool {
	return u.InviteTokenHash != nil
}
