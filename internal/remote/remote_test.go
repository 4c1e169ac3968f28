// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package remote

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"hopecity/internal/auth"
	"hopecity/internal/models"
)

// memBackend is an in-memory Backend. When atomic is false, a failed unit
// of work keeps whatever it already applied.
type memBackend struct {
	mu       sync.Mutex
	atomic   bool
	settings *models.SettingsRow
	events   []models.EventRow

	failFetchSettings error
	failFetchEvents   error
	failUpdate        error
	failDelete        error
	failInsert        error

	calls []string
}

type memTx struct {
	b        *memBackend
	settings *models.SettingsRow
	events   []models.EventRow
}

func (b *memBackend) FetchSettings(ctx context.Context) (*models.SettingsRow, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failFetchSettings != nil {
		return nil, b.failFetchSettings
	}
	return b.settings, nil
}

func (b *memBackend) FetchEvents(ctx context.Context) ([]models.EventRow, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failFetchEvents != nil {
		return nil, b.failFetchEvents
	}
	return append([]models.EventRow(nil), b.events...), nil
}

func (b *memBackend) Atomic() bool { return b.atomic }

func (b *memBackend) WithTx(ctx context.Context, fn func(Tx) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	tx := &memTx{b: b, settings: b.settings, events: append([]models.EventRow(nil), b.events...)}
	err := fn(tx)
	if err != nil && b.atomic {
		return err
	}
	b.settings, b.events = tx.settings, tx.events
	return err
}

func (t *memTx) UpdateSettings(ctx context.Context, row models.SettingsRow) error {
	t.b.calls = append(t.b.calls, "update")
	if t.b.failUpdate != nil {
		return t.b.failUpdate
	}
	t.settings = &row
	return nil
}

func (t *memTx) EventIDs(ctx context.Context) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, len(t.events))
	for i, e := range t.events {
		ids[i] = e.ID
	}
	return ids, nil
}

func (t *memTx) DeleteEvents(ctx context.Context, ids []uuid.UUID) error {
	t.b.calls = append(t.b.calls, "delete")
	if t.b.failDelete != nil {
		return t.b.failDelete
	}
	drop := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := t.events[:0:0]
	for _, e := range t.events {
		if !drop[e.ID] {
			kept = append(kept, e)
		}
	}
	t.events = kept
	return nil
}

func (t *memTx) InsertEvents(ctx context.Context, rows []models.EventRow) error {
	t.b.calls = append(t.b.calls, "insert")
	if t.b.failInsert != nil {
		return t.b.failInsert
	}
	for _, r := range rows {
		r.ID = uuid.New()
		t.events = append(t.events, r)
	}
	return nil
}

func signedIn() context.Context {
	return auth.WithPrincipal(context.Background(), auth.Principal{
		UserID: uuid.New(), Email: "admin@hopecity.test", Role: models.RoleAdmin,
	})
}

func seededBackend(atomic bool) *memBackend {
	return &memBackend{
		atomic: atomic,
		settings: &models.SettingsRow{
			ID:           SettingsRowID,
			Announcement: json.RawMessage(`{"active":false,"text":"old","link":"#"}`),
			Links:        json.RawMessage(`{"giving":"https://give.example"}`),
			Socials:      json.RawMessage(`{}`),
			UpdatedAt:    time.Now(),
		},
		events: []models.EventRow{
			{ID: uuid.New(), Title: "Old A", OrderIndex: 0},
			{ID: uuid.New(), Title: "Old B", OrderIndex: 1},
		},
	}
}

func sampleConfig() models.SiteConfig {
	return models.SiteConfig{
		Announcement: models.Announcement{Active: true, Text: "Baptism Sunday", Link: "#"},
		Events: []models.Event{
			{ID: "1", Title: "First", Date: "Mar 1", Time: "10:00 AM"},
			{ID: "temp-1700000000", Title: "Second", Date: "Mar 8", Time: "6:30 PM", SignupURL: "https://x.test"},
			{ID: "0b0f7c1e-6d1a-4a8e-9f8e-2d9c1f1b2a3c", Title: "Third"},
		},
	}
}

func TestFetchNilAdapter(t *testing.T) {
	var a *Adapter
	if _, err := a.Fetch(context.Background()); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Fetch on nil adapter = %v, want ErrNotConfigured", err)
	}
	if err := a.Save(signedIn(), models.SiteConfig{}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Save on nil adapter = %v, want ErrNotConfigured", err)
	}
}

func TestFetchMapsRows(t *testing.T) {
	b := seededBackend(true)
	b.events = []models.EventRow{
		{ID: uuid.New(), Title: "Worship Night", Date: "Feb 28", Time: "6:30 PM", SignupURL: "", OrderIndex: 0},
		{ID: uuid.New(), Title: "Outreach", Date: "Sundays", Time: "2:00 PM", SignupURL: "https://signup.test", OrderIndex: 1},
	}

	patch, err := New(b).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if patch.Announcement == nil || *patch.Announcement.Text != "old" {
		t.Errorf("announcement = %+v", patch.Announcement)
	}
	if patch.Links == nil || *patch.Links.Giving != "https://give.example" || patch.Links.Baptism != nil {
		t.Errorf("links = %+v", patch.Links)
	}
	if patch.Events == nil || len(*patch.Events) != 2 {
		t.Fatalf("events = %+v", patch.Events)
	}
	ev := (*patch.Events)[1]
	if ev.SignupURL != "https://signup.test" || ev.Title != "Outreach" {
		t.Errorf("event mapping = %+v", ev)
	}
	if ev.ID != models.EventID(b.events[1].ID.String()) {
		t.Errorf("event id = %q, want row uuid", ev.ID)
	}
}

func TestFetchEmptyRemote(t *testing.T) {
	b := &memBackend{atomic: true, settings: &models.SettingsRow{ID: SettingsRowID}}

	patch, err := New(b).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if patch.Links != nil || patch.Socials != nil || patch.Announcement != nil {
		t.Errorf("empty columns should stay unset: %+v", patch)
	}
	if patch.Events == nil || len(*patch.Events) != 0 {
		t.Errorf("events should be set and empty, got %+v", patch.Events)
	}
}

func TestFetchFailsWhenEitherLookupFails(t *testing.T) {
	boom := errors.New("connection reset")

	for _, tc := range []struct {
		name string
		set  func(*memBackend)
	}{
		{"settings", func(b *memBackend) { b.failFetchSettings = boom }},
		{"events", func(b *memBackend) { b.failFetchEvents = boom }},
		{"missing settings row", func(b *memBackend) { b.settings = nil }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			b := seededBackend(true)
			tc.set(b)
			_, err := New(b).Fetch(context.Background())
			if !errors.Is(err, ErrTransport) {
				t.Errorf("Fetch = %v, want ErrTransport", err)
			}
		})
	}
}

func TestFetchMissingSettingsRow(t *testing.T) {
	b := seededBackend(true)
	b.settings = nil

	patch, err := New(b).Fetch(context.Background())
	if !errors.Is(err, ErrTransport) || !errors.Is(err, ErrSettingsMissing) {
		t.Errorf("Fetch = %v, want ErrTransport wrapping ErrSettingsMissing", err)
	}
	if patch != nil {
		t.Errorf("patch = %+v, want nil", patch)
	}
}

func TestSaveWithoutPrincipalMakesNoCalls(t *testing.T) {
	b := seededBackend(true)
	before := append([]models.EventRow(nil), b.events...)

	err := New(b).Save(context.Background(), sampleConfig())
	if !errors.Is(err, ErrAuthRequired) {
		t.Fatalf("Save = %v, want ErrAuthRequired", err)
	}
	if len(b.calls) != 0 {
		t.Errorf("backend mutated without auth: %v", b.calls)
	}
	if len(b.events) != len(before) || b.events[0].ID != before[0].ID {
		t.Error("events changed without auth")
	}
}

func TestSaveReplacesEventsInOrder(t *testing.T) {
	b := seededBackend(true)
	old := map[uuid.UUID]bool{b.events[0].ID: true, b.events[1].ID: true}

	if err := New(b).Save(signedIn(), sampleConfig()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if len(b.events) != 3 {
		t.Fatalf("events = %d, want 3", len(b.events))
	}
	wantTitles := []string{"First", "Second", "Third"}
	for i, e := range b.events {
		if e.OrderIndex != i {
			t.Errorf("event %d order_index = %d", i, e.OrderIndex)
		}
		if e.Title != wantTitles[i] {
			t.Errorf("event %d title = %q, want %q", i, e.Title, wantTitles[i])
		}
		if old[e.ID] {
			t.Errorf("event %d kept a pre-save id", i)
		}
		if e.ID.String() == "0b0f7c1e-6d1a-4a8e-9f8e-2d9c1f1b2a3c" {
			t.Errorf("event %d kept its client id", i)
		}
	}
	if b.events[1].SignupURL != "https://x.test" {
		t.Errorf("signup_url = %q", b.events[1].SignupURL)
	}

	var ann models.Announcement
	json.Unmarshal(b.settings.Announcement, &ann)
	if ann.Text != "Baptism Sunday" || !ann.Active {
		t.Errorf("announcement = %+v", ann)
	}
}

func TestSaveEmptyEventsClearsTable(t *testing.T) {
	b := seededBackend(true)
	cfg := sampleConfig()
	cfg.Events = nil

	if err := New(b).Save(signedIn(), cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if len(b.events) != 0 {
		t.Errorf("events = %d, want 0", len(b.events))
	}
	for _, c := range b.calls {
		if c == "insert" {
			t.Error("insert issued for an empty list")
		}
	}
}

func TestSaveUpdateFailureAbortsBeforeEvents(t *testing.T) {
	for _, atomic := range []bool{true, false} {
		b := seededBackend(atomic)
		b.failUpdate = errors.New("permission denied")
		before := b.events

		err := New(b).Save(signedIn(), sampleConfig())
		if !errors.Is(err, ErrTransport) {
			t.Errorf("atomic=%v: Save = %v, want ErrTransport", atomic, err)
		}
		if len(b.calls) != 1 || b.calls[0] != "update" {
			t.Errorf("atomic=%v: calls = %v, want only update", atomic, b.calls)
		}
		if len(b.events) != len(before) {
			t.Errorf("atomic=%v: events touched after failed update", atomic)
		}
	}
}

func TestSaveInsertFailureNonAtomicIsPartial(t *testing.T) {
	b := seededBackend(false)
	b.failInsert = errors.New("violates not-null constraint")

	err := New(b).Save(signedIn(), sampleConfig())
	if !errors.Is(err, ErrPartialWrite) {
		t.Fatalf("Save = %v, want ErrPartialWrite", err)
	}
	if len(b.events) != 0 {
		t.Errorf("non-atomic backend should be left with the deletes applied, got %d events", len(b.events))
	}
}

func TestSaveInsertFailureAtomicRollsBack(t *testing.T) {
	b := seededBackend(true)
	b.failInsert = errors.New("violates not-null constraint")
	before := b.events

	err := New(b).Save(signedIn(), sampleConfig())
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("Save = %v, want ErrTransport", err)
	}
	if errors.Is(err, ErrPartialWrite) {
		t.Error("atomic backend reported a partial write")
	}
	if len(b.events) != len(before) || b.events[0].ID != before[0].ID {
		t.Error("atomic backend did not roll back")
	}
	var ann models.Announcement
	json.Unmarshal(b.settings.Announcement, &ann)
	if ann.Text != "old" {
		t.Errorf("settings update not rolled back: %+v", ann)
	}
}

func TestSaveDeleteFailureNonAtomicIsPartial(t *testing.T) {
	b := seededBackend(false)
	b.failDelete = errors.New("timeout")

	err := New(b).Save(signedIn(), sampleConfig())
	if !errors.Is(err, ErrPartialWrite) {
		t.Fatalf("Save = %v, want ErrPartialWrite", err)
	}
}
