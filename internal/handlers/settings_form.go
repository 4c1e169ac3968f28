// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"hopecity/internal/models"
)

// maxEvents must match the max rule on settingsForm.Events.
const maxEvents = 50

// settingsForm mirrors SiteConfig with validation rules. Links accept a
// full URL or the "#" placeholder.
type settingsForm struct {
	Announcement announcementForm
	Links        linksForm
	Socials      socialsForm
	Events       []eventForm `label:"Events" validate:"max=50,dive"`
}

type announcementForm struct {
	Active bool
	Text   string `label:"Banner text" validate:"max=280,required_if=Active true"`
	Link   string `label:"Banner link" validate:"omitempty,url|eq=#"`
}

type linksForm struct {
	ConnectCard   string `label:"Connect card" validate:"omitempty,url|eq=#"`
	PrayerRequest string `label:"Prayer request" validate:"omitempty,url|eq=#"`
	Giving        string `label:"Giving" validate:"omitempty,url|eq=#"`
	Baptism       string `label:"Baptism" validate:"omitempty,url|eq=#"`
	DreamTeam     string `label:"Dream Team" validate:"omitempty,url|eq=#"`
	Directions    string `label:"Directions" validate:"omitempty,url|eq=#"`
	YouTube       string `label:"YouTube" validate:"omitempty,url|eq=#"`
}

type socialsForm struct {
	Instagram string `label:"Instagram" validate:"omitempty,url|eq=#"`
	Facebook  string `label:"Facebook" validate:"omitempty,url|eq=#"`
	YouTube   string `label:"YouTube channel" validate:"omitempty,url|eq=#"`
}

type eventForm struct {
	ID        string
	Title     string `label:"Title" validate:"required,max=120"`
	Date      string `label:"Date" validate:"max=40"`
	Time      string `label:"Time" validate:"max=40"`
	SignupURL string `label:"Sign-up URL" validate:"omitempty,url"`
}

// newValidator returns a validator that reports fields by their label tag.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if label := f.Tag.Get("label"); label != "" {
			return label
		}
		return f.Name
	})
	return v
}

// validateSettings returns one human-readable message per problem.
func validateSettings(v *validator.Validate, f settingsForm) []string {
	err := v.Struct(f)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{"The settings could not be checked."}
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return msgs
}

func fieldMessage(fe validator.FieldError) string {
	name := fe.Field()
	if i := eventIndex(fe.StructNamespace()); i >= 0 {
		name = fmt.Sprintf("Event %d: %s", i+1, name)
	}

	switch tag := fe.Tag(); {
	case tag == "max" && fe.Kind() == reflect.Slice:
		return fmt.Sprintf("Too many events (max %s).", fe.Param())
	case tag == "required":
		return name + " is required."
	case tag == "required_if":
		return name + " is required when the banner is shown."
	case tag == "max":
		return fmt.Sprintf("%s is too long (max %s characters).", name, fe.Param())
	case strings.HasPrefix(tag, "url"):
		return name + " must be a full link starting with https:// (or # for none)."
	default:
		return name + " is not valid."
	}
}

// eventIndex extracts N from "settingsForm.Events[N].Title", or -1.
func eventIndex(ns string) int {
	_, rest, ok := strings.Cut(ns, "Events[")
	if !ok {
		return -1
	}
	num, _, ok := strings.Cut(rest, "]")
	if !ok {
		return -1
	}
	i, err := strconv.Atoi(num)
	if err != nil {
		return -1
	}
	return i
}

// parseSettingsForm reads the admin settings form. Event rows arrive as
// parallel event_* lists; rows ticked in event_remove and blank new rows
// are dropped, and the rest are ordered by event_pos.
func parseSettingsForm(values url.Values) settingsForm {
	f := settingsForm{
		Announcement: announcementForm{
			Active: values.Get("announcement_active") != "",
			Text:   strings.TrimSpace(values.Get("announcement_text")),
			Link:   strings.TrimSpace(values.Get("announcement_link")),
		},
		Links: linksForm{
			ConnectCard:   strings.TrimSpace(values.Get("link_connectCard")),
			PrayerRequest: strings.TrimSpace(values.Get("link_prayerRequest")),
			Giving:        strings.TrimSpace(values.Get("link_giving")),
			Baptism:       strings.TrimSpace(values.Get("link_baptism")),
			DreamTeam:     strings.TrimSpace(values.Get("link_dreamTeam")),
			Directions:    strings.TrimSpace(values.Get("link_directions")),
			YouTube:       strings.TrimSpace(values.Get("link_youtube")),
		},
		Socials: socialsForm{
			Instagram: strings.TrimSpace(values.Get("social_instagram")),
			Facebook:  strings.TrimSpace(values.Get("social_facebook")),
			YouTube:   strings.TrimSpace(values.Get("social_youtube")),
		},
	}

	removed := make(map[int]bool)
	for _, v := range values["event_remove"] {
		if i, err := strconv.Atoi(v); err == nil {
			removed[i] = true
		}
	}

	at := func(key string, i int) string {
		if list := values[key]; i < len(list) {
			return strings.TrimSpace(list[i])
		}
		return ""
	}

	type row struct {
		pos int
		ev  eventForm
	}
	var rows []row
	for i := range values["event_title"] {
		if removed[i] {
			continue
		}
		ev := eventForm{
			ID:        at("event_id", i),
			Title:     at("event_title", i),
			Date:      at("event_date", i),
			Time:      at("event_time", i),
			SignupURL: at("event_signup", i),
		}
		if ev.ID == "" && ev.Title == "" && ev.Date == "" && ev.Time == "" && ev.SignupURL == "" {
			continue
		}
		pos, err := strconv.Atoi(at("event_pos", i))
		if err != nil {
			pos = i
		}
		rows = append(rows, row{pos: pos, ev: ev})
	}
	sort.SliceStable(rows, func(a, b int) bool { return rows[a].pos < rows[b].pos })

	f.Events = make([]eventForm, len(rows))
	for i, r := range rows {
		f.Events[i] = r.ev
	}
	return f
}

// formFromConfig lets API payloads share the form's validation rules.
func formFromConfig(cfg models.SiteConfig) settingsForm {
	f := settingsForm{
		Announcement: announcementForm(cfg.Announcement),
		Links:        linksForm(cfg.Links),
		Socials:      socialsForm(cfg.Socials),
		Events:       make([]eventForm, len(cfg.Events)),
	}
	for i, e := range cfg.Events {
		f.Events[i] = eventForm{
			ID:        string(e.ID),
			Title:     strings.TrimSpace(e.Title),
			Date:      strings.TrimSpace(e.Date),
			Time:      strings.TrimSpace(e.Time),
			SignupURL: strings.TrimSpace(e.SignupURL),
		}
	}
	return f
}

// config converts a validated form into a SiteConfig.
func (f settingsForm) config() models.SiteConfig {
	cfg := models.SiteConfig{
		Announcement: models.Announcement(f.Announcement),
		Links:        models.Links(f.Links),
		Socials:      models.Socials(f.Socials),
		Events:       make([]models.Event, len(f.Events)),
	}
	for i, e := range f.Events {
		cfg.Events[i] = models.Event{
			ID:        models.EventID(e.ID),
			Title:     e.Title,
			Date:      e.Date,
			Time:      e.Time,
			SignupURL: e.SignupURL,
		}
	}
	return cfg
}
