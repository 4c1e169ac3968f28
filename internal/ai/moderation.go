// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync/atomic"
	"time"
)

// ModerationResult is the outcome of a prompt safety check.
type ModerationResult struct {
	Safe       bool
	Categories []string // flagged categories, empty when safe
}

// Moderator screens user text before it reaches a provider.
type Moderator interface {
	CheckSafety(ctx context.Context, text string) (*ModerationResult, error)
}

// moderationAPI calls a /moderations endpoint. OpenAI and Mistral share the
// request shape; Mistral omits the top-level flagged field.
type moderationAPI struct {
	name   string
	url    string
	apiKey string
	model  string
	client *http.Client
}

func newOpenAIModerator(apiKey, baseURL string) *moderationAPI {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &moderationAPI{
		name: "openai moderation", url: baseURL + "/moderations", apiKey: apiKey,
		model: "omni-moderation-latest", client: newHTTPClient(15 * time.Second),
	}
}

func newMistralModerator(apiKey, baseURL string) *moderationAPI {
	if baseURL == "" {
		baseURL = "https://api.mistral.ai/v1"
	}
	return &moderationAPI{
		name: "mistral moderation", url: baseURL + "/moderations", apiKey: apiKey,
		model: "mistral-moderation-latest", client: newHTTPClient(15 * time.Second),
	}
}

func (m *moderationAPI) CheckSafety(ctx context.Context, text string) (*ModerationResult, error) {
	req := struct {
		Model string `json:"model"`
		Input string `json:"input"`
	}{m.model, text}

	var resp struct {
		Results []struct {
			Flagged    *bool           `json:"flagged"`
			Categories map[string]bool `json:"categories"`
		} `json:"results"`
	}
	if err := postJSON(ctx, m.client, m.name, m.url, map[string]string{"Authorization": "Bearer " + m.apiKey}, req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return &ModerationResult{Safe: true}, nil
	}

	r := resp.Results[0]
	var flagged []string
	for cat, hit := range r.Categories {
		if hit {
			flagged = append(flagged, displayCategory(cat))
		}
	}
	sort.Strings(flagged)

	safe := len(flagged) == 0
	if r.Flagged != nil {
		safe = !*r.Flagged
	}
	return &ModerationResult{Safe: safe, Categories: flagged}, nil
}

// displayCategory turns "self-harm/intent" into "self-harm (intent)" and
// "hate_and_discrimination" into "hate and discrimination".
func displayCategory(cat string) string {
	cat = strings.ReplaceAll(cat, "_", " ")
	if base, sub, ok := strings.Cut(cat, "/"); ok {
		return base + " (" + sub + ")"
	}
	return cat
}

// fallbackModerator tries primary and switches to secondary for good after
// the primary rejects its credentials.
type fallbackModerator struct {
	primary, secondary Moderator
	useSecondary       atomic.Bool
}

func newFallbackModerator(primary, secondary Moderator) *fallbackModerator {
	return &fallbackModerator{primary: primary, secondary: secondary}
}

func (f *fallbackModerator) CheckSafety(ctx context.Context, text string) (*ModerationResult, error) {
	if f.useSecondary.Load() {
		return f.secondary.CheckSafety(ctx, text)
	}

	res, err := f.primary.CheckSafety(ctx, text)
	var apiErr *APIError
	if errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden) {
		slog.Warn("primary moderator rejected credentials, switching", "error", err)
		f.useSecondary.Store(true)
		return f.secondary.CheckSafety(ctx, text)
	}
	return res, err
}
