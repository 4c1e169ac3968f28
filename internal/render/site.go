// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package render

import (
	"html/template"
	"strings"

	"hopecity/internal/models"
	"hopecity/internal/slug"
)

// SiteView is the data behind the public page.
type SiteView struct {
	Config models.SiteConfig
	Events []EventView
}

// EventView is one event row with its date badge split out.
type EventView struct {
	models.Event
	Anchor string
	Badge  string // leading word of Date ("Feb"), or the whole date
	Day    string // second word of Date ("22"), empty when Date is one word
}

// NewSiteView prepares cfg for the public template. Events keep their
// order; each gets a unique anchor derived from its title.
func NewSiteView(cfg models.SiteConfig) SiteView {
	titles := make([]string, len(cfg.Events))
	for i, e := range cfg.Events {
		titles[i] = e.Title
	}
	anchors := slug.Anchors(titles)

	events := make([]EventView, len(cfg.Events))
	for i, e := range cfg.Events {
		ev := EventView{Event: e, Anchor: anchors[i], Badge: e.Date}
		if parts := strings.Fields(e.Date); len(parts) >= 2 {
			ev.Badge, ev.Day = parts[0], parts[1]
		}
		events[i] = ev
	}
	return SiteView{Config: cfg, Events: events}
}

// PrayerView is the data behind a prayer result.
type PrayerView struct {
	Input string
	HTML  template.HTML
	Error string
}
