// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package publish mirrors the site configuration to object storage as a
// static JSON document after every change.
package publish

import (
	"context"
	"log/slog"
	"time"

	"hopecity/internal/models"
)

// Key is the object name of the published snapshot.
const Key = "site-config.json"

// Uploader stores a JSON document.
type Uploader interface {
	PutJSON(ctx context.Context, key string, v any) error
}

// Source delivers a fresh config after every change.
type Source interface {
	Subscribe(fn func(models.SiteConfig)) (unsubscribe func())
}

// Snapshot is the published document.
type Snapshot struct {
	PublishedAt time.Time         `json:"publishedAt"`
	Config      models.SiteConfig `json:"config"`
}

// Publisher uploads snapshots.
type Publisher struct {
	up      Uploader
	timeout time.Duration
	now     func() time.Time
}

// New creates a publisher over up.
func New(up Uploader) *Publisher {
	return &Publisher{up: up, timeout: 30 * time.Second, now: time.Now}
}

// Publish uploads cfg.
func (p *Publisher) Publish(ctx context.Context, cfg models.SiteConfig) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if cfg.Events == nil {
		cfg.Events = []models.Event{}
	}
	return p.up.PutJSON(ctx, Key, Snapshot{PublishedAt: p.now().UTC(), Config: cfg})
}

// Follow publishes every config src delivers until the returned function
// is called. Upload failures are logged; the next change retries.
func (p *Publisher) Follow(src Source) (stop func()) {
	return src.Subscribe(func(cfg models.SiteConfig) {
		if err := p.Publish(context.Background(), cfg); err != nil {
			slog.Error("config snapshot upload failed", "key", Key, "error", err)
			return
		}
		slog.Info("config snapshot published", "key", Key, "events", len(cfg.Events))
	})
}
