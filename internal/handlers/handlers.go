// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers for the Hope City site.
// Handlers are grouped by concern (public, auth, admin, API) and receive
// their dependencies through the handler struct.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"hopecity/internal/models"
)

// maxJSONBody caps API request bodies.
const maxJSONBody = 1 << 20

// PageCache is the rendered-response cache. *cache.PageCache satisfies it.
// Get reports the cache generation it read; Set files the body under that
// generation so a render that raced an invalidation is never served.
type PageCache interface {
	Get(ctx context.Context, key string) (body []byte, gen int64, ok bool)
	Set(ctx context.Context, key string, gen int64, body []byte)
}

// Limiter counts failed sign-ins. *cache.Attempts satisfies it.
type Limiter interface {
	Locked(ctx context.Context, key string) (bool, error)
	Fail(ctx context.Context, key string) (remaining int, err error)
	Reset(ctx context.Context, key string) error
}

// Users is the account store used in remote mode. *store.UserStore
// satisfies it.
type Users interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	CheckPassword(user *models.User, password string) bool
	SetTOTPSecret(ctx context.Context, userID uuid.UUID, secret string) error
	EnableTOTP(ctx context.Context, userID uuid.UUID) error
	FindByInviteToken(ctx context.Context, token string) (*models.User, error)
	AcceptInvite(ctx context.Context, token, password, displayName string) (*models.User, error)
}

// lockedOut reports whether key has no attempts left. A limiter outage
// does not block sign-in.
func lockedOut(ctx context.Context, l Limiter, key string) bool {
	if l == nil {
		return false
	}
	locked, err := l.Locked(ctx, key)
	if err != nil {
		slog.Warn("attempt limiter unavailable", "error", err)
		return false
	}
	return locked
}

func recordFailure(ctx context.Context, l Limiter, key string) {
	if l == nil {
		return
	}
	if _, err := l.Fail(ctx, key); err != nil {
		slog.Warn("attempt limiter unavailable", "error", err)
	}
}

func resetAttempts(ctx context.Context, l Limiter, key string) {
	if l == nil {
		return
	}
	if err := l.Reset(ctx, key); err != nil {
		slog.Warn("attempt limiter reset failed", "error", err)
	}
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("json encode failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeJSON reads a size-limited JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return errors.New("request body is too large")
		}
		return errors.New("request body is not valid JSON")
	}
	return nil
}

// sentence capitalizes an error message and ends it with a period, for
// showing sentinel errors to people.
func sentence(err error) string {
	msg := err.Error()
	if msg == "" {
		return msg
	}
	r := []rune(msg)
	r[0] = unicode.ToUpper(r[0])
	msg = string(r)
	if !strings.HasSuffix(msg, ".") {
		msg += "."
	}
	return msg
}
