// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"hopecity/internal/cache"
	"hopecity/internal/prayer"
	"hopecity/internal/render"
	"hopecity/internal/siteconfig"
)

// Public groups the handlers for the public church page. Rendered
// responses are cached in Valkey until the next config save.
type Public struct {
	renderer *render.Renderer
	config   *siteconfig.Store
	pages    PageCache
	prayer   *prayer.Service
}

// NewPublic creates the public handler group. pages may be nil to disable
// caching, and svc may be nil when no AI provider is configured.
func NewPublic(renderer *render.Renderer, config *siteconfig.Store, pages PageCache, svc *prayer.Service) *Public {
	return &Public{renderer: renderer, config: config, pages: pages, prayer: svc}
}

// Home renders the public page from the current site config.
func (p *Public) Home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, gen, ok := p.cached(r, cache.HomeKey)
	if ok {
		writeHTML(w, body)
		return
	}

	view := render.NewSiteView(p.config.Load(ctx))
	body, err := p.renderer.Home(view)
	if err != nil {
		slog.Error("render home failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if p.pages != nil {
		p.pages.Set(ctx, cache.HomeKey, gen, body)
	}
	writeHTML(w, body)
}

// Config serves the merged site config as JSON for embedding clients.
func (p *Public) Config(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	w.Header().Set("Cache-Control", "public, max-age=60")

	body, gen, ok := p.cached(r, cache.ConfigJSONKey)
	if ok {
		w.Header().Set("Content-Type", "application/json")
		w.Write(body)
		return
	}

	body, err := json.Marshal(p.config.Load(ctx))
	if err != nil {
		slog.Error("encode config failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if p.pages != nil {
		p.pages.Set(ctx, cache.ConfigJSONKey, gen, body)
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

// Prayer handles the prayer form. HTMX requests get the result fragment,
// plain form posts get a full page.
func (p *Public) Prayer(w http.ResponseWriter, r *http.Request) {
	input := r.FormValue("input")
	view := render.PrayerView{Input: input}

	res, err := p.pray(r, input)
	if err != nil {
		view.Error = sentence(err)
		p.renderer.Prayer(w, r, prayerStatus(err), view)
		return
	}

	view.HTML = res.HTML
	p.renderer.Prayer(w, r, http.StatusOK, view)
}

// PrayerAPI is the JSON form of Prayer.
func (p *Public) PrayerAPI(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Input string `json:"input"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := p.pray(r, req.Input)
	if err != nil {
		writeError(w, prayerStatus(err), sentence(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"markdown": res.Markdown,
		"html":     string(res.HTML),
	})
}

func (p *Public) pray(r *http.Request, input string) (*prayer.Prayer, error) {
	if p.prayer == nil {
		return nil, prayer.ErrUnavailable
	}
	return p.prayer.Pray(r.Context(), input)
}

// cached looks key up before the config is loaded, so the returned
// generation predates the load.
func (p *Public) cached(r *http.Request, key string) ([]byte, int64, bool) {
	if p.pages == nil {
		return nil, 0, false
	}
	return p.pages.Get(r.Context(), key)
}

// prayerStatus maps prayer errors to HTTP status codes.
func prayerStatus(err error) int {
	switch {
	case errors.Is(err, prayer.ErrEmptyInput), errors.Is(err, prayer.ErrTooLong):
		return http.StatusBadRequest
	case errors.Is(err, prayer.ErrFlagged):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusServiceUnavailable
	}
}

func writeHTML(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(body)
}
