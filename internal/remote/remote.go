// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package remote translates the site configuration to and from its
// relational form: one singleton settings row plus an ordered events table.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"hopecity/internal/auth"
	"hopecity/internal/models"
)

// Errors reported by the adapter. Callers test with errors.Is; the wrapped
// message carries the human-readable reason.
var (
	ErrNotConfigured = errors.New("remote store is not configured")
	ErrAuthRequired  = errors.New("authentication required")
	ErrTransport     = errors.New("remote store request failed")
	ErrPartialWrite  = errors.New("events were only partially saved")

	// ErrSettingsMissing means the singleton settings row does not exist.
	// Fetch reports it as a transport failure so readers use the local copy.
	ErrSettingsMissing = errors.New("settings row is missing")
)

// Backend is the two-table store.
type Backend interface {
	FetchSettings(ctx context.Context) (*models.SettingsRow, error)
	FetchEvents(ctx context.Context) ([]models.EventRow, error)
	WithTx(ctx context.Context, fn func(Tx) error) error
	// Atomic reports whether a failed WithTx leaves the store untouched.
	Atomic() bool
}

// Tx is a unit of work against the backend.
type Tx interface {
	UpdateSettings(ctx context.Context, row models.SettingsRow) error
	EventIDs(ctx context.Context) ([]uuid.UUID, error)
	DeleteEvents(ctx context.Context, ids []uuid.UUID) error
	InsertEvents(ctx context.Context, rows []models.EventRow) error
}

// Adapter reads and writes the canonical config through a Backend.
type Adapter struct {
	backend Backend
}

// New creates an adapter over backend.
func New(backend Backend) *Adapter {
	return &Adapter{backend: backend}
}

// Fetch loads the settings row and the ordered events concurrently. A
// failure of either lookup fails the fetch.
func (a *Adapter) Fetch(ctx context.Context) (*models.ConfigPatch, error) {
	if a == nil || a.backend == nil {
		return nil, ErrNotConfigured
	}

	var (
		settings *models.SettingsRow
		rows     []models.EventRow
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		settings, err = a.backend.FetchSettings(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		rows, err = a.backend.FetchEvents(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	if settings == nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, ErrSettingsMissing)
	}

	patch := &models.ConfigPatch{}
	decodeColumn(settings.Links, &patch.Links, "links")
	decodeColumn(settings.Socials, &patch.Socials, "socials")
	decodeColumn(settings.Announcement, &patch.Announcement, "announcement")

	events := make([]models.Event, 0, len(rows))
	for _, r := range rows {
		events = append(events, models.Event{
			ID:        models.EventID(r.ID.String()),
			Title:     r.Title,
			Date:      r.Date,
			Time:      r.Time,
			SignupURL: r.SignupURL,
		})
	}
	patch.Events = &events

	return patch, nil
}

// decodeColumn fills dst from a JSON column. Empty or unreadable columns
// leave dst nil so the defaults survive the merge.
func decodeColumn[T any](raw json.RawMessage, dst **T, name string) {
	if len(raw) == 0 || string(raw) == "null" {
		return
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		slog.Warn("remote settings column unreadable", "column", name, "error", err)
		return
	}
	*dst = &v
}

// Save replaces the remote config with cfg. The settings row is updated in
// place; every existing event is deleted and cfg.Events are inserted with
// their position as order_index. Client-side event ids are discarded.
func (a *Adapter) Save(ctx context.Context, cfg models.SiteConfig) error {
	if a == nil || a.backend == nil {
		return ErrNotConfigured
	}
	if _, ok := auth.PrincipalFrom(ctx); !ok {
		return fmt.Errorf("%w: sign in to save changes", ErrAuthRequired)
	}

	row, err := settingsRow(cfg)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}

	inserts := make([]models.EventRow, len(cfg.Events))
	for i, e := range cfg.Events {
		inserts[i] = models.EventRow{
			Title:      e.Title,
			Date:       e.Date,
			Time:       e.Time,
			SignupURL:  e.SignupURL,
			OrderIndex: i,
		}
	}

	settingsDone := false
	err = a.backend.WithTx(ctx, func(tx Tx) error {
		if err := tx.UpdateSettings(ctx, row); err != nil {
			return fmt.Errorf("update settings: %w", err)
		}
		settingsDone = true

		ids, err := tx.EventIDs(ctx)
		if err != nil {
			return fmt.Errorf("list events: %w", err)
		}
		if len(ids) > 0 {
			if err := tx.DeleteEvents(ctx, ids); err != nil {
				return fmt.Errorf("delete events: %w", err)
			}
		}
		if len(inserts) > 0 {
			if err := tx.InsertEvents(ctx, inserts); err != nil {
				return fmt.Errorf("insert events: %w", err)
			}
		}
		return nil
	})
	if err == nil {
		return nil
	}

	if settingsDone && !a.backend.Atomic() {
		return fmt.Errorf("%w: %v", ErrPartialWrite, err)
	}
	return fmt.Errorf("%w: %v", ErrTransport, err)
}

func settingsRow(cfg models.SiteConfig) (models.SettingsRow, error) {
	ann, err := json.Marshal(cfg.Announcement)
	if err != nil {
		return models.SettingsRow{}, err
	}
	links, err := json.Marshal(cfg.Links)
	if err != nil {
		return models.SettingsRow{}, err
	}
	socials, err := json.Marshal(cfg.Socials)
	if err != nil {
		return models.SettingsRow{}, err
	}
	return models.SettingsRow{
		ID:           SettingsRowID,
		Announcement: ann,
		Links:        links,
		Socials:      socials,
	}, nil
}

// SettingsRowID is the fixed primary key of the singleton settings row.
const SettingsRowID = 1
