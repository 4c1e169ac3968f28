// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package siteconfig is the single entry point for reading and writing the
// site configuration. It picks the remote store when one is configured and
// falls back to the local blob otherwise, and it announces every successful
// save to in-process subscribers.
package siteconfig

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"hopecity/internal/localstore"
	"hopecity/internal/models"
	"hopecity/internal/notify"
	"hopecity/internal/remote"
)

// ErrMalformedLocalState marks a local blob that could not be decoded. It is
// logged and never returned; readers get the defaults instead.
var ErrMalformedLocalState = errors.New("malformed local config")

// Blob is the local key/value persistence the store writes through.
type Blob interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Store reads and writes the site configuration.
type Store struct {
	blob     Blob
	remote   *remote.Adapter
	notifier *notify.Notifier
}

// New creates a store. A nil adapter means no remote store is configured;
// that decision is fixed for the life of the store.
func New(blob Blob, adapter *remote.Adapter, n *notify.Notifier) *Store {
	if n == nil {
		n = notify.New()
	}
	return &Store{blob: blob, remote: adapter, notifier: n}
}

// RemoteConfigured reports whether saves go to the remote store.
func (s *Store) RemoteConfigured() bool {
	return s.remote != nil
}

// Notifier returns the change notifier fired after every successful save.
func (s *Store) Notifier() *notify.Notifier {
	return s.notifier
}

// Local returns the locally persisted config merged over the defaults.
// It never fails: a missing or unreadable blob yields the defaults.
func (s *Store) Local(ctx context.Context) models.SiteConfig {
	if s.blob == nil {
		return Default()
	}

	raw, ok, err := s.blob.Get(ctx, localstore.ConfigKey)
	if err != nil {
		slog.Warn("local config unavailable", "error", err)
		return Default()
	}
	if !ok || raw == "" {
		return Default()
	}

	var patch models.ConfigPatch
	if err := json.Unmarshal([]byte(raw), &patch); err != nil {
		slog.Warn("local config ignored", "error", fmt.Errorf("%w: %v", ErrMalformedLocalState, err))
		return Default()
	}
	return Merge(Default(), patch)
}

// Load returns the remote config merged over the defaults when the remote
// store is configured and reachable, and the local config otherwise.
func (s *Store) Load(ctx context.Context) models.SiteConfig {
	if s.remote == nil {
		return s.Local(ctx)
	}

	patch, err := s.remote.Fetch(ctx)
	if err != nil {
		slog.Warn("remote config unavailable, using local copy", "error", err)
		return s.Local(ctx)
	}
	return Merge(Default(), *patch)
}

// Save persists cfg and notifies subscribers. In local mode write failures
// are logged and the save still reports success. In remote mode the remote
// error is returned and nobody is notified.
func (s *Store) Save(ctx context.Context, cfg models.SiteConfig) error {
	if s.remote != nil {
		if err := s.remote.Save(ctx, cfg); err != nil {
			slog.Error("remote config save failed", "error", err)
			return err
		}
		s.writeLocal(ctx, withoutIDs(cfg))
		s.notifier.Notify()
		return nil
	}

	s.writeLocal(ctx, cfg)
	s.notifier.Notify()
	return nil
}

// withoutIDs clears every event id. The remote store has just re-minted
// them, so the fallback copy is numbered locally from 1.
func withoutIDs(cfg models.SiteConfig) models.SiteConfig {
	cfg = cfg.Clone()
	for i := range cfg.Events {
		cfg.Events[i].ID = ""
	}
	return cfg
}

func (s *Store) writeLocal(ctx context.Context, cfg models.SiteConfig) {
	if s.blob == nil {
		return
	}
	cfg = cfg.Clone()
	cfg.Events = models.NormalizeLocalIDs(cfg.Events)
	if cfg.Events == nil {
		cfg.Events = []models.Event{}
	}

	b, err := json.Marshal(cfg)
	if err != nil {
		slog.Error("local config encode failed", "error", err)
		return
	}
	if err := s.blob.Set(ctx, localstore.ConfigKey, string(b)); err != nil {
		slog.Error("local config write failed", "error", err)
	}
}

// Subscribe calls fn with a freshly loaded config after every change. A
// load that finishes after the subscription was cancelled, or after a newer
// load for the same subscription started, is dropped.
func (s *Store) Subscribe(fn func(models.SiteConfig)) (unsubscribe func()) {
	sub := &subscription{fn: fn}
	ctx, cancel := context.WithCancel(context.Background())

	stop := s.notifier.Subscribe(func() {
		gen := sub.begin()
		go func() {
			cfg := s.Load(ctx)
			sub.deliver(gen, cfg)
		}()
	})

	return func() {
		sub.cancel()
		cancel()
		stop()
	}
}

type subscription struct {
	mu        sync.Mutex
	deliverMu sync.Mutex
	gen       uint64
	cancelled bool
	fn        func(models.SiteConfig)
}

func (s *subscription) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	return s.gen
}

func (s *subscription) cancel() {
	s.mu.Lock()
	s.cancelled = true
	s.mu.Unlock()
}

// deliver runs fn unless the result is stale. Deliveries for one
// subscription never overlap.
func (s *subscription) deliver(gen uint64, cfg models.SiteConfig) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	s.mu.Lock()
	stale := s.cancelled || gen != s.gen
	s.mu.Unlock()
	if stale {
		return
	}
	s.fn(cfg)
}
