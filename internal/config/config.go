// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package config loads application configuration from the environment, with
// an optional .env file for local development.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// devJWTSecret signs bearer tokens in development when JWT_SECRET is unset.
const devJWTSecret = "hopecity-development-only"

// Config holds all application configuration values.
type Config struct {
	// Server settings
	Host    string `env:"APP_HOST" envDefault:"0.0.0.0"`
	Port    string `env:"APP_PORT" envDefault:"8080"`
	Env     string `env:"APP_ENV" envDefault:"development"` // "development", "production", "testing"
	BaseURL string `env:"SITE_BASE_URL" envDefault:"http://localhost:8080"`

	// Local persisted blob. Always used; it is the only store when
	// PostgreSQL is not configured.
	LocalDBPath string `env:"LOCAL_DB_PATH" envDefault:"data/hopecity.db"`

	// PostgreSQL connection. The remote store is enabled only when host,
	// user and database name are all present.
	DBHost     string `env:"POSTGRES_HOST"`
	DBPort     string `env:"POSTGRES_PORT" envDefault:"5432"`
	DBUser     string `env:"POSTGRES_USER"`
	DBPassword string `env:"POSTGRES_PASSWORD"`
	DBName     string `env:"POSTGRES_DB"`
	DBSSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`

	// Valkey (Redis-compatible cache)
	ValkeyHost     string `env:"VALKEY_HOST" envDefault:"localhost"`
	ValkeyPort     string `env:"VALKEY_PORT" envDefault:"6379"`
	ValkeyPassword string `env:"VALKEY_PASSWORD"`
	ValkeyDB       int    `env:"VALKEY_DB" envDefault:"0"`

	// Bearer credentials for the JSON API
	JWTSecret string        `env:"JWT_SECRET"`
	JWTTTL    time.Duration `env:"JWT_TTL" envDefault:"12h"`

	PageCacheTTL time.Duration `env:"PAGE_CACHE_TTL" envDefault:"5m"`

	// AI provider settings
	AIProvider       string `env:"AI_PROVIDER" envDefault:"gemini"`
	OpenAIKey        string `env:"OPENAI_API_KEY"`
	OpenAIModel      string `env:"OPENAI_MODEL"`
	OpenAIBaseURL    string `env:"OPENAI_BASE_URL"`
	GeminiKey        string `env:"GEMINI_API_KEY"`
	GeminiModel      string `env:"GEMINI_MODEL"`
	GeminiBaseURL    string `env:"GEMINI_BASE_URL"`
	ClaudeKey        string `env:"CLAUDE_API_KEY"`
	ClaudeModel      string `env:"CLAUDE_MODEL"`
	ClaudeBaseURL    string `env:"CLAUDE_BASE_URL"`
	MistralKey       string `env:"MISTRAL_API_KEY"`
	MistralModel     string `env:"MISTRAL_MODEL"`
	MistralBaseURL   string `env:"MISTRAL_BASE_URL"`
	HuggingFaceKey   string `env:"HUGGINGFACE_API_KEY"`
	HuggingFaceModel string `env:"HUGGINGFACE_MODEL"`
	HuggingFaceURL   string `env:"HUGGINGFACE_BASE_URL"`

	// S3-compatible storage for the published config snapshot
	S3Endpoint  string `env:"S3_ENDPOINT"`
	S3Region    string `env:"S3_REGION" envDefault:"us-east-1"`
	S3AccessKey string `env:"S3_ACCESS_KEY"`
	S3SecretKey string `env:"S3_SECRET_KEY"`
	S3Bucket    string `env:"S3_BUCKET" envDefault:"hopecity-public"`
	S3PublicURL string `env:"S3_PUBLIC_URL"`

	// Outgoing mail for invitations. Empty host logs the message instead.
	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     string `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	SMTPFrom     string `env:"SMTP_FROM" envDefault:"Hope City <no-reply@hopecity.local>"`

	// First admin, seeded when the users table is empty.
	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
}

// Load reads .env when present, then the environment. Production requires
// a real JWT_SECRET.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("could not read .env file", "error", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.JWTSecret == "" {
		if cfg.Env == "production" {
			return nil, fmt.Errorf("JWT_SECRET must be set in production")
		}
		cfg.JWTSecret = devJWTSecret
	}
	if cfg.Env == "production" && cfg.RemoteConfigured() && cfg.DBPassword == "" {
		return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
	}

	return cfg, nil
}

// RemoteConfigured reports whether PostgreSQL settings are present.
func (c *Config) RemoteConfigured() bool {
	return c.DBHost != "" && c.DBUser != "" && c.DBName != ""
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     net.JoinHostPort(c.DBHost, c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.DBSSLMode),
	}
	return u.String()
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}
