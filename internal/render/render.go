// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package render provides HTML template rendering for the public site and
// the admin panel. It supports full-page and HTMX-style partial rendering,
// detected via the HX-Request header.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"hopecity/internal/middleware"
	"hopecity/internal/session"
)

//go:embed templates/admin/*.html templates/site/*.html
var templateFS embed.FS

// PageData holds all data passed to admin templates.
type PageData struct {
	Title      string         // <title> text
	Section    string         // active nav entry
	Session    *session.Data  // nil if unauthenticated
	CSRFToken  string         // set from the request context
	RemoteMode bool           // true when PostgreSQL holds the config
	Data       map[string]any // page-specific data
	Status     int            // response status, 200 when zero
	Flashes    []Flash
}

// Flash is a one-time notification message.
type Flash struct {
	Type    string // "success", "error", "warning", "info"
	Message string
}

// Renderer holds the parsed admin and site templates.
type Renderer struct {
	templates map[string]*template.Template
	site      map[string]*template.Template
	funcMap   template.FuncMap
}

// standaloneTemplates render as full HTML pages without the admin layout.
var standaloneTemplates = map[string]bool{
	"login":         true,
	"pin":           true,
	"pin_setup":     true,
	"2fa_setup":     true,
	"2fa_verify":    true,
	"invite_accept": true,
}

// New parses every embedded template. devMode only changes what the
// templates show in their footer.
func New(devMode bool) (*Renderer, error) {
	r := &Renderer{
		templates: make(map[string]*template.Template),
		site:      make(map[string]*template.Template),
		funcMap: template.FuncMap{
			"isDev": func() bool { return devMode },
			"year":  func() int { return time.Now().Year() },
			"activeClass": func(current, target string) string {
				if current == target {
					return "nav-active"
				}
				return ""
			},
			// safeURL allows only http(s), mailto and fragment links in hrefs.
			"safeURL": safeURL,
		},
	}

	entries, err := templateFS.ReadDir("templates/admin")
	if err != nil {
		return nil, fmt.Errorf("read admin templates: %w", err)
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == "base.html" {
			continue
		}
		tmplName := strings.TrimSuffix(name, ".html")

		var tmpl *template.Template
		if standaloneTemplates[tmplName] {
			tmpl, err = template.New(name).Funcs(r.funcMap).ParseFS(templateFS,
				"templates/admin/"+name)
		} else {
			tmpl, err = template.New("base.html").Funcs(r.funcMap).ParseFS(templateFS,
				"templates/admin/base.html", "templates/admin/"+name)
		}
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.templates[tmplName] = tmpl
	}

	// Site pages share site/layout.html; the prayer result also renders alone.
	for _, page := range []string{"home", "prayer"} {
		tmpl, err := template.New("layout.html").Funcs(r.funcMap).ParseFS(templateFS,
			"templates/site/layout.html", "templates/site/"+page+".html")
		if err != nil {
			return nil, fmt.Errorf("parse site template %s: %w", page, err)
		}
		r.site[page] = tmpl
	}

	return r, nil
}

// Page renders a full admin page or, for HTMX requests, only its "content"
// block.
func (rn *Renderer) Page(w http.ResponseWriter, r *http.Request, name string, data *PageData) {
	tmpl, ok := rn.templates[name]
	if !ok {
		http.Error(w, fmt.Sprintf("template %q not found", name), http.StatusInternalServerError)
		return
	}

	data.CSRFToken = middleware.CSRFToken(r)
	if data.Session == nil {
		data.Session = middleware.SessionFromCtx(r.Context())
	}

	execName := "base.html"
	switch {
	case isHTMX(r):
		execName = "content"
	case standaloneTemplates[name]:
		execName = name + ".html"
	}

	rn.write(w, tmpl, execName, data.Status, data)
}

// Home renders the public page into a byte slice so it can be cached.
func (rn *Renderer) Home(view SiteView) ([]byte, error) {
	var buf bytes.Buffer
	if err := rn.site["home"].ExecuteTemplate(&buf, "layout.html", view); err != nil {
		return nil, fmt.Errorf("render home: %w", err)
	}
	return buf.Bytes(), nil
}

// Prayer renders a prayer result: the bare fragment for HTMX requests, a
// full page otherwise.
func (rn *Renderer) Prayer(w http.ResponseWriter, r *http.Request, status int, view PrayerView) {
	execName := "layout.html"
	if isHTMX(r) {
		execName = "prayer_result"
	}

	var buf bytes.Buffer
	if err := rn.site["prayer"].ExecuteTemplate(&buf, execName, view); err != nil {
		slog.Error("render prayer failed", "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// write buffers the output so a failing template never sends half a page.
func (rn *Renderer) write(w http.ResponseWriter, tmpl *template.Template, name string, status int, data any) {
	var buf bytes.Buffer
	if err := executeTemplate(&buf, tmpl, name, data); err != nil {
		slog.Error("render template failed", "template", name, "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if status != 0 {
		w.WriteHeader(status)
	}
	w.Write(buf.Bytes())
}

func executeTemplate(w io.Writer, tmpl *template.Template, name string, data any) error {
	return tmpl.ExecuteTemplate(w, name, data)
}

// isHTMX returns true if the request carries the HX-Request header.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

func safeURL(s string) template.URL {
	lower := strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "", strings.HasPrefix(lower, "https://"), strings.HasPrefix(lower, "http://"),
		strings.HasPrefix(lower, "mailto:"), strings.HasPrefix(lower, "#"), strings.HasPrefix(lower, "/"):
		return template.URL(strings.TrimSpace(s))
	}
	return template.URL("#")
}
