// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"hopecity/internal/models"
	"hopecity/internal/remote"
)

// SiteConfigStore is the PostgreSQL form of the site configuration: the
// singleton site_config row plus the ordered events table.
type SiteConfigStore struct {
	db *sql.DB
}

// NewSiteConfigStore creates a store over db.
func NewSiteConfigStore(db *sql.DB) *SiteConfigStore {
	return &SiteConfigStore{db: db}
}

var _ remote.Backend = (*SiteConfigStore)(nil)

// FetchSettings returns the singleton row. A missing row is reported as
// remote.ErrSettingsMissing.
func (s *SiteConfigStore) FetchSettings(ctx context.Context) (*models.SettingsRow, error) {
	row := &models.SettingsRow{}
	var ann, links, socials []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT id, announcement, links, socials, updated_at
		FROM site_config WHERE id = $1
	`, remote.SettingsRowID).Scan(&row.ID, &ann, &links, &socials, &row.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("fetch site config: %w", remote.ErrSettingsMissing)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch site config: %w", err)
	}
	row.Announcement, row.Links, row.Socials = ann, links, socials
	return row, nil
}

// FetchEvents returns every event in display order.
func (s *SiteConfigStore) FetchEvents(ctx context.Context) ([]models.EventRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, COALESCE("date", ''), COALESCE("time", ''), COALESCE(signup_url, ''), order_index
		FROM events ORDER BY order_index ASC, created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("fetch events: %w", err)
	}
	defer rows.Close()

	var out []models.EventRow
	for rows.Next() {
		var e models.EventRow
		if err := rows.Scan(&e.ID, &e.Title, &e.Date, &e.Time, &e.SignupURL, &e.OrderIndex); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Atomic is true: WithTx runs in a single PostgreSQL transaction.
func (s *SiteConfigStore) Atomic() bool { return true }

// WithTx runs fn in a transaction, committing when it returns nil.
func (s *SiteConfigStore) WithTx(ctx context.Context, fn func(remote.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&siteConfigTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

type siteConfigTx struct {
	tx *sql.Tx
}

func (t *siteConfigTx) UpdateSettings(ctx context.Context, row models.SettingsRow) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO site_config (id, announcement, links, socials, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (id) DO UPDATE SET
			announcement = EXCLUDED.announcement,
			links = EXCLUDED.links,
			socials = EXCLUDED.socials,
			updated_at = NOW()
	`, row.ID, []byte(row.Announcement), []byte(row.Links), []byte(row.Socials))
	if err != nil {
		return fmt.Errorf("update site config: %w", err)
	}
	return nil
}

func (t *siteConfigTx) EventIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := t.tx.QueryContext(ctx, `SELECT id FROM events`)
	if err != nil {
		return nil, fmt.Errorf("list event ids: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan event id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (t *siteConfigTx) DeleteEvents(ctx context.Context, ids []uuid.UUID) error {
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = id.String()
	}
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM events WHERE id = ANY($1::uuid[])`, strs); err != nil {
		return fmt.Errorf("delete events: %w", err)
	}
	return nil
}

func (t *siteConfigTx) InsertEvents(ctx context.Context, rows []models.EventRow) error {
	if len(rows) == 0 {
		return nil
	}

	var (
		b    strings.Builder
		args = make([]any, 0, len(rows)*5)
	)
	b.WriteString(`INSERT INTO events (title, "date", "time", signup_url, order_index) VALUES `)
	for i, r := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		n := i * 5
		fmt.Fprintf(&b, "($%d, $%d, $%d, $%d, $%d)", n+1, n+2, n+3, n+4, n+5)
		args = append(args, r.Title, nullIfEmpty(r.Date), nullIfEmpty(r.Time), nullIfEmpty(r.SignupURL), r.OrderIndex)
	}

	if _, err := t.tx.ExecContext(ctx, b.String(), args...); err != nil {
		return fmt.Errorf("insert events: %w", err)
	}
	return nil
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
