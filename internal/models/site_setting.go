// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ConfigPatch is a partially specified SiteConfig, as decoded from the
// local blob or assembled from database rows. A nil field means the key
// was absent (or null) and the default must be kept.
type ConfigPatch struct {
	Links        *LinksPatch        `json:"links"`
	Socials      *SocialsPatch      `json:"socials"`
	Announcement *AnnouncementPatch `json:"announcement"`
	Events       *[]Event           `json:"events"`
}

// LinksPatch mirrors Links with optional fields.
type LinksPatch struct {
	ConnectCard   *string `json:"connectCard"`
	PrayerRequest *string `json:"prayerRequest"`
	Giving        *string `json:"giving"`
	Baptism       *string `json:"baptism"`
	DreamTeam     *string `json:"dreamTeam"`
	Directions    *string `json:"directions"`
	YouTube       *string `json:"youtube"`
}

// SocialsPatch mirrors Socials with optional fields.
type SocialsPatch struct {
	Instagram *string `json:"instagram"`
	Facebook  *string `json:"facebook"`
	YouTube   *string `json:"youtube"`
}

// AnnouncementPatch mirrors Announcement with optional fields.
type AnnouncementPatch struct {
	Active *bool   `json:"active"`
	Text   *string `json:"text"`
	Link   *string `json:"link"`
}

// Patch converts a complete config into a patch with every key set.
func (c SiteConfig) Patch() ConfigPatch {
	events := c.Clone().Events
	if events == nil {
		events = []Event{}
	}
	l, s, a := c.Links, c.Socials, c.Announcement
	return ConfigPatch{
		Links: &LinksPatch{
			ConnectCard: &l.ConnectCard, PrayerRequest: &l.PrayerRequest, Giving: &l.Giving,
			Baptism: &l.Baptism, DreamTeam: &l.DreamTeam, Directions: &l.Directions, YouTube: &l.YouTube,
		},
		Socials:      &SocialsPatch{Instagram: &s.Instagram, Facebook: &s.Facebook, YouTube: &s.YouTube},
		Announcement: &AnnouncementPatch{Active: &a.Active, Text: &a.Text, Link: &a.Link},
		Events:       &events,
	}
}

// SettingsRow is the singleton site_config row. The three structured
// columns are stored as JSONB and kept raw until they are merged.
type SettingsRow struct {
	ID           int             `json:"id"`
	Announcement json.RawMessage `json:"announcement"`
	Links        json.RawMessage `json:"links"`
	Socials      json.RawMessage `json:"socials"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// EventRow is one row of the events table.
type EventRow struct {
	ID         uuid.UUID `json:"id"`
	Title      string    `json:"title"`
	Date       string    `json:"date"`
	Time       string    `json:"time"`
	SignupURL  string    `json:"signup_url"`
	OrderIndex int       `json:"order_index"`
}
