// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// SeedAdmin describes the first operator account.
type SeedAdmin struct {
	Email       string
	Password    string
	DisplayName string
}

// Seed creates the first operator when the users table is empty. The
// operator is asked to enroll in 2FA at first sign-in. Later operators are
// added by invitation.
func Seed(ctx context.Context, db *sql.DB, admin SeedAdmin) error {
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}
	if count > 0 {
		slog.Debug("database already seeded, skipping")
		return nil
	}

	if admin.Email == "" || admin.Password == "" {
		return errors.New("seed: no operators exist and ADMIN_EMAIL/ADMIN_PASSWORD are not set")
	}
	if admin.DisplayName == "" {
		admin.DisplayName = "Admin"
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO users (email, password_hash, display_name, role, totp_enabled)
		VALUES ($1, $2, $3, 'admin', FALSE)
		ON CONFLICT (email) DO NOTHING
	`, admin.Email, string(hash), admin.DisplayName)
	if err != nil {
		return fmt.Errorf("seed insert admin: %w", err)
	}

	slog.Info("database seeded with first operator", "email", admin.Email)
	return nil
}
