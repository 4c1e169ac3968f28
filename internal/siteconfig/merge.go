// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package siteconfig

import "hopecity/internal/models"

// Merge overlays in on base. Nested objects merge key by key, the events
// list is replaced wholesale when present, and absent keys keep the base
// value. base is not modified.
func Merge(base models.SiteConfig, in models.ConfigPatch) models.SiteConfig {
	out := base.Clone()

	if l := in.Links; l != nil {
		set(&out.Links.ConnectCard, l.ConnectCard)
		set(&out.Links.PrayerRequest, l.PrayerRequest)
		set(&out.Links.Giving, l.Giving)
		set(&out.Links.Baptism, l.Baptism)
		set(&out.Links.DreamTeam, l.DreamTeam)
		set(&out.Links.Directions, l.Directions)
		set(&out.Links.YouTube, l.YouTube)
	}
	if s := in.Socials; s != nil {
		set(&out.Socials.Instagram, s.Instagram)
		set(&out.Socials.Facebook, s.Facebook)
		set(&out.Socials.YouTube, s.YouTube)
	}
	if a := in.Announcement; a != nil {
		set(&out.Announcement.Active, a.Active)
		set(&out.Announcement.Text, a.Text)
		set(&out.Announcement.Link, a.Link)
	}
	if in.Events != nil {
		events := make([]models.Event, len(*in.Events))
		copy(events, *in.Events)
		out.Events = events
	}

	return out
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
