// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package siteconfig

import "hopecity/internal/models"

var defaults = models.SiteConfig{
	Links: models.Links{
		ConnectCard:   "https://hopecity.elvanto.net/form/connect-card-uuid",
		PrayerRequest: "https://hopecity.elvanto.net/form/prayer-uuid",
		Giving:        "https://tithe.ly/give_new/www/#/tithely/give-one-time/123456",
		Baptism:       "https://hopecity.elvanto.net/form/baptism-uuid",
		DreamTeam:     "https://hopecity.elvanto.net/form/volunteer-uuid",
		Directions:    "https://maps.google.com/?q=1700+Simpson+Ave+Sebring+FL+33870",
		YouTube:       "https://www.youtube.com/channel/YOUR_CHANNEL_ID",
	},
	Socials: models.Socials{
		Instagram: "#",
		Facebook:  "#",
		YouTube:   "#",
	},
	Announcement: models.Announcement{
		Active: true,
		Text:   "🎉 Easter Service Times: 9AM & 11AM. Plan your visit today!",
		Link:   "#",
	},
	Events: []models.Event{
		{ID: "1", Title: "Cultural Sunday & Potluck", Date: "Feb 22", Time: "10:00 AM", SignupURL: "https://hopecity.elvanto.net/form/event-registration-1"},
		{ID: "2", Title: "Worship Night", Date: "Feb 28", Time: "6:30 PM", SignupURL: ""},
		{ID: "3", Title: "Outreach: Nursing Ministry", Date: "Sundays", Time: "2:00 PM", SignupURL: "https://hopecity.elvanto.net/form/outreach-signup"},
	},
}

// Default returns a fresh copy of the built-in configuration.
func Default() models.SiteConfig {
	return defaults.Clone()
}
