// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package pin guards the admin panel with a numeric PIN when no remote
// identity store is configured. Only a bcrypt hash is persisted.
package pin

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"hopecity/internal/localstore"
)

var (
	ErrNotSet     = errors.New("admin PIN has not been set")
	ErrAlreadySet = errors.New("admin PIN is already set")
	ErrFormat     = errors.New("PIN must be 4 to 8 digits")
	ErrMismatch   = errors.New("incorrect PIN")
)

// Blob is the persistence the gate stores its hash in.
type Blob interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Gate checks and stores the operator PIN.
type Gate struct {
	blob Blob
}

// New creates a gate over blob.
func New(blob Blob) *Gate {
	return &Gate{blob: blob}
}

// IsSet reports whether a PIN has been chosen.
func (g *Gate) IsSet(ctx context.Context) (bool, error) {
	v, ok, err := g.blob.Get(ctx, localstore.PINKey)
	if err != nil {
		return false, fmt.Errorf("pin lookup: %w", err)
	}
	return ok && v != "", nil
}

// Set stores the first PIN. It refuses to overwrite an existing one.
func (g *Gate) Set(ctx context.Context, pin string) error {
	if !valid(pin) {
		return ErrFormat
	}
	set, err := g.IsSet(ctx)
	if err != nil {
		return err
	}
	if set {
		return ErrAlreadySet
	}
	return g.store(ctx, pin)
}

// Change replaces the PIN after verifying the current one.
func (g *Gate) Change(ctx context.Context, current, next string) error {
	if err := g.Verify(ctx, current); err != nil {
		return err
	}
	if !valid(next) {
		return ErrFormat
	}
	return g.store(ctx, next)
}

// Verify checks pin against the stored hash.
func (g *Gate) Verify(ctx context.Context, pin string) error {
	hash, ok, err := g.blob.Get(ctx, localstore.PINKey)
	if err != nil {
		return fmt.Errorf("pin lookup: %w", err)
	}
	if !ok || hash == "" {
		return ErrNotSet
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)) != nil {
		return ErrMismatch
	}
	return nil
}

func (g *Gate) store(ctx context.Context, pin string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("pin hash: %w", err)
	}
	if err := g.blob.Set(ctx, localstore.PINKey, string(hash)); err != nil {
		return fmt.Errorf("pin store: %w", err)
	}
	return nil
}

func valid(pin string) bool {
	if len(pin) < 4 || len(pin) > 8 {
		return false
	}
	for _, c := range pin {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
