// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up the HTTP routes and middleware chains for the
// Hope City site: the public page, the session-based admin editor and the
// bearer-authenticated JSON API.
package router

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"hopecity/internal/auth"
	"hopecity/internal/handlers"
	"hopecity/internal/middleware"
	"hopecity/internal/session"
	"hopecity/web"
)

// Deps carries everything the routes are wired to.
type Deps struct {
	Sessions  *session.Store
	Issuer    *auth.TokenIssuer
	Public    *handlers.Public
	Auth      *handlers.Auth
	Admin     *handlers.Admin
	Operators *handlers.Operators // nil in local mode
	API       *handlers.API

	// PrayerLimit throttles the prayer endpoints per client IP. Nil
	// disables throttling.
	PrayerLimit *middleware.RateLimiter

	// Remote selects email, password and TOTP sign-in. Otherwise the
	// operator signs in with the local PIN.
	Remote bool
	Secure bool
}

// New creates the chi router with all middleware and route groups.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders(d.Secure))

	r.Get("/health", healthHandler)

	static, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		panic(err)
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	// Public site. The page is cached, so the prayer form carries no CSRF
	// token; it changes nothing and is rate limited instead.
	r.Get("/", d.Public.Home)
	r.Get("/api/config", d.Public.Config)
	r.Group(func(r chi.Router) {
		if d.PrayerLimit != nil {
			r.Use(d.PrayerLimit.Middleware)
		}
		r.Post("/prayer", d.Public.Prayer)
		r.Post("/api/prayer", d.Public.PrayerAPI)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.CSRF(d.Secure))
		r.Use(middleware.LoadSession(d.Sessions))

		if d.Remote {
			r.Get("/login", d.Auth.LoginPage)
			r.Post("/login", d.Auth.LoginSubmit)
			r.Get("/2fa/setup", d.Auth.TwoFASetupPage)
			r.Get("/2fa/verify", d.Auth.TwoFAVerifyPage)
			r.Post("/2fa/verify", d.Auth.TwoFAVerifySubmit)
			r.Get("/invite/accept", d.Auth.InvitePage)
			r.Post("/invite/accept", d.Auth.InviteAccept)
		} else {
			r.Get("/pin", d.Auth.PINPage)
			r.Post("/pin", d.Auth.PINSubmit)
			r.Get("/pin/setup", d.Auth.PINSetupPage)
			r.Post("/pin/setup", d.Auth.PINSetupSubmit)
		}
		r.Post("/logout", d.Auth.Logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(d.Auth.LoginPath()))
			r.Use(middleware.RequireAdmin)

			r.Get("/", d.Admin.Settings)
			r.Post("/settings", d.Admin.SaveSettings)
			if d.Remote {
				r.Post("/invite", d.Admin.Invite)
			}
			if d.Operators != nil {
				r.Get("/operators", d.Operators.List)
				r.Post("/operators/{id}/reset-2fa", d.Operators.ResetTwoFA)
				r.Post("/operators/{id}/remove", d.Operators.Remove)
			}
			if !d.Remote {
				r.Post("/pin/change", d.Admin.ChangePIN)
			}
		})
	})

	r.Post("/api/auth/token", d.API.Token)
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.RequireBearer(d.Issuer))
		r.Use(middleware.RequireAdmin)

		r.Put("/config", d.API.SaveConfig)
		r.Post("/invite", d.API.Invite)
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
