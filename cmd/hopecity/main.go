// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package main is the entry point for the Hope City site server.
// It loads configuration, opens the local and remote stores, sets up
// routing, and starts the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"hopecity/internal/ai"
	"hopecity/internal/auth"
	"hopecity/internal/cache"
	"hopecity/internal/config"
	"hopecity/internal/database"
	"hopecity/internal/handlers"
	"hopecity/internal/invite"
	"hopecity/internal/localstore"
	"hopecity/internal/middleware"
	"hopecity/internal/notify"
	"hopecity/internal/pin"
	"hopecity/internal/prayer"
	"hopecity/internal/publish"
	"hopecity/internal/remote"
	"hopecity/internal/render"
	"hopecity/internal/router"
	"hopecity/internal/session"
	"hopecity/internal/siteconfig"
	"hopecity/internal/storage"
	"hopecity/internal/store"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"remote", cfg.RemoteConfigured(),
	)

	// The local store always exists: it is the whole config in local mode
	// and the fallback copy in remote mode.
	if err := os.MkdirAll(filepath.Dir(cfg.LocalDBPath), 0o755); err != nil {
		slog.Error("failed to create local data directory", "error", err)
		os.Exit(1)
	}
	blob, err := localstore.Open(cfg.LocalDBPath)
	if err != nil {
		slog.Error("failed to open local store", "error", err)
		os.Exit(1)
	}
	defer blob.Close()

	var (
		adapter *remote.Adapter
		users   handlers.Users
		inviter invite.Inviter
		roster  handlers.Roster
	)
	if cfg.RemoteConfigured() {
		db, err := database.Connect(cfg.DSN())
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := database.Migrate(db); err != nil {
			slog.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		if err := database.Seed(context.Background(), db, database.SeedAdmin{
			Email:    cfg.AdminEmail,
			Password: cfg.AdminPassword,
		}); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}

		adapter = remote.New(store.NewSiteConfigStore(db))
		userStore := store.NewUserStore(db)
		users = userStore
		inviter = userStore
		roster = userStore
	} else {
		slog.Warn("remote store not configured, config is kept on this server only")
	}

	notifier := notify.New()
	siteConfig := siteconfig.New(blob, adapter, notifier)

	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword, cfg.ValkeyDB)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	secureCookies := !cfg.IsDev()
	sessionStore := session.NewStore(valkeyClient, secureCookies)
	attempts := cache.NewAttempts(valkeyClient, cache.DefaultAttemptLimit, cache.DefaultAttemptWindow)

	pageCache := cache.NewPageCache(valkeyClient, cfg.PageCacheTTL)
	stopInvalidate := pageCache.InvalidateOn(notifier)
	defer stopInvalidate()

	storageClient, err := storage.New(storage.Options{
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.S3Region,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Bucket:    cfg.S3Bucket,
		PublicURL: cfg.S3PublicURL,
	})
	if err != nil {
		slog.Error("failed to initialize S3 storage", "error", err)
		os.Exit(1)
	}
	if storageClient != nil {
		stopPublish := publish.New(storageClient).Follow(siteConfig)
		defer stopPublish()
		slog.Info("config snapshots enabled", "url", storageClient.URL(publish.Key))
	} else {
		slog.Warn("s3 storage not configured, config snapshots disabled")
	}

	aiRegistry := ai.NewRegistry(cfg.AIProvider, map[string]ai.ProviderConfig{
		"openai":      {APIKey: cfg.OpenAIKey, Model: cfg.OpenAIModel, BaseURL: cfg.OpenAIBaseURL},
		"gemini":      {APIKey: cfg.GeminiKey, Model: cfg.GeminiModel, BaseURL: cfg.GeminiBaseURL},
		"claude":      {APIKey: cfg.ClaudeKey, Model: cfg.ClaudeModel, BaseURL: cfg.ClaudeBaseURL},
		"mistral":     {APIKey: cfg.MistralKey, Model: cfg.MistralModel, BaseURL: cfg.MistralBaseURL},
		"huggingface": {APIKey: cfg.HuggingFaceKey, Model: cfg.HuggingFaceModel, BaseURL: cfg.HuggingFaceURL},
	})
	var prayerService *prayer.Service
	if len(aiRegistry.Available()) > 0 {
		prayerService = prayer.New(aiRegistry)
		slog.Info("ai providers initialized",
			"active", aiRegistry.ActiveName(),
			"available", aiRegistry.Available(),
		)
	} else {
		slog.Warn("no ai provider configured, prayer helper disabled")
	}

	var (
		relay handlers.Inviter
		pins  handlers.PINGate
	)
	if inviter != nil {
		var mailer invite.Mailer = invite.LogMailer{}
		if cfg.SMTPHost != "" {
			mailer = invite.SMTPMailer{
				Host:     cfg.SMTPHost,
				Port:     cfg.SMTPPort,
				Username: cfg.SMTPUsername,
				Password: cfg.SMTPPassword,
				From:     cfg.SMTPFrom,
			}
		}
		relay = invite.NewRelay(inviter, mailer, cfg.BaseURL)
	} else {
		pins = pin.New(blob)
	}

	issuer, err := auth.NewTokenIssuer(cfg.JWTSecret, "hopecity", cfg.JWTTTL)
	if err != nil {
		slog.Error("failed to initialize token issuer", "error", err)
		os.Exit(1)
	}

	renderer, err := render.New(cfg.IsDev())
	if err != nil {
		slog.Error("failed to initialize template renderer", "error", err)
		os.Exit(1)
	}

	prayerLimit := middleware.NewRateLimiter(10, time.Minute)
	defer prayerLimit.Stop()

	authHandlers := handlers.NewAuth(renderer, sessionStore, users, pins, attempts)
	var operators *handlers.Operators
	if roster != nil {
		operators = handlers.NewOperators(renderer, roster)
	}
	r := router.New(router.Deps{
		Sessions:    sessionStore,
		Issuer:      issuer,
		Public:      handlers.NewPublic(renderer, siteConfig, pageCache, prayerService),
		Auth:        authHandlers,
		Admin:       handlers.NewAdmin(renderer, siteConfig, relay, pins),
		Operators:   operators,
		API:         handlers.NewAPI(issuer, users, pins, attempts, siteConfig, relay),
		PrayerLimit: prayerLimit,
		Remote:      siteConfig.RemoteConfigured(),
		Secure:      secureCookies,
	})

	// WriteTimeout covers the prayer endpoints, which wait on the AI
	// provider.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
