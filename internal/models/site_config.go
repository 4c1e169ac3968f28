// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// SiteConfig is the canonical configuration the public page renders from,
// regardless of which store it was loaded from.
type SiteConfig struct {
	Links        Links        `json:"links"`
	Socials      Socials      `json:"socials"`
	Announcement Announcement `json:"announcement"`
	Events       []Event      `json:"events"`
}

// Links maps the fixed call-to-action buttons to their target URLs.
type Links struct {
	ConnectCard   string `json:"connectCard"`
	PrayerRequest string `json:"prayerRequest"`
	Giving        string `json:"giving"`
	Baptism       string `json:"baptism"`
	DreamTeam     string `json:"dreamTeam"`
	Directions    string `json:"directions"`
	YouTube       string `json:"youtube"`
}

// Socials holds the church's social profile URLs.
type Socials struct {
	Instagram string `json:"instagram"`
	Facebook  string `json:"facebook"`
	YouTube   string `json:"youtube"`
}

// Announcement is the banner shown at the top of the public page.
type Announcement struct {
	Active bool   `json:"active"`
	Text   string `json:"text"`
	Link   string `json:"link"`
}

// Event is a single entry in the ordered events list. Date and Time are
// display labels ("Sundays", "6:30 PM"), not parsed calendar values.
type Event struct {
	ID        EventID `json:"id"`
	Title     string  `json:"title"`
	Date      string  `json:"date"`
	Time      string  `json:"time"`
	SignupURL string  `json:"signupUrl"`
}

// Clone returns a deep copy. The events slice is never shared.
func (c SiteConfig) Clone() SiteConfig {
	out := c
	if c.Events != nil {
		out.Events = make([]Event, len(c.Events))
		copy(out.Events, c.Events)
	}
	return out
}

// EventID identifies an event. Locally persisted events use small
// integers; events read from PostgreSQL carry the UUID the database minted.
type EventID string

// Int reports the numeric value of a local id.
func (id EventID) Int() (int, bool) {
	n, err := strconv.Atoi(string(id))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// MarshalJSON writes integer ids as JSON numbers so the local blob keeps
// the shape the page has always stored.
func (id EventID) MarshalJSON() ([]byte, error) {
	if n, ok := id.Int(); ok {
		return []byte(strconv.Itoa(n)), nil
	}
	return json.Marshal(string(id))
}

// UnmarshalJSON accepts a JSON number, a JSON string, or null.
func (id *EventID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*id = ""
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = EventID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("event id: %w", err)
	}
	*id = EventID(strings.TrimSuffix(n.String(), ".0"))
	return nil
}

// NormalizeLocalIDs gives every event a unique id. Events with an empty or
// repeated id are numbered after the largest integer id already present;
// all other ids are kept as they are.
func NormalizeLocalIDs(events []Event) []Event {
	out := make([]Event, len(events))
	copy(out, events)

	next := 0
	for _, e := range out {
		if n, ok := e.ID.Int(); ok && n > next {
			next = n
		}
	}

	seen := make(map[EventID]bool, len(out))
	for i := range out {
		if out[i].ID != "" && !seen[out[i].ID] {
			seen[out[i].ID] = true
			continue
		}
		next++
		out[i].ID = EventID(strconv.Itoa(next))
		seen[out[i].ID] = true
	}
	return out
}
