// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package prayer turns a visitor's situation into a short prayer and a
// matching Bible verse using the configured text generation provider.
package prayer

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"strings"
	"unicode/utf8"

	"hopecity/internal/ai"
	"hopecity/internal/markdown"
)

// MaxInputRunes caps the visitor's text.
const MaxInputRunes = 1000

var (
	ErrEmptyInput  = errors.New("please share what's on your heart")
	ErrTooLong     = fmt.Errorf("please keep it under %d characters", MaxInputRunes)
	ErrFlagged     = errors.New("we can't help with that request here; please reach out to our prayer team")
	ErrUnavailable = errors.New("the prayer helper is unavailable right now; please try again shortly")
)

const systemPrompt = `You are a compassionate, encouraging pastoral assistant for Hope City Highlands church.
The user will share a situation or feeling. Respond with:
1. A short, comforting prayer (3-4 sentences).
2. A relevant Bible verse (NIV or ESV) with its reference.
Keep the tone warm, hopeful and inclusive. Format the response in Markdown with bold headings.`

// Generator produces text. *ai.Registry satisfies it.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	CheckPrompt(ctx context.Context, prompt string) (*ai.ModerationResult, error)
}

// Prayer is a generated response.
type Prayer struct {
	Markdown string        `json:"markdown"`
	HTML     template.HTML `json:"html"`
}

// Service generates prayers.
type Service struct {
	gen Generator
}

// New creates a service over gen.
func New(gen Generator) *Service {
	return &Service{gen: gen}
}

// Pray validates input, screens it, and generates a prayer.
func (s *Service) Pray(ctx context.Context, input string) (*Prayer, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrEmptyInput
	}
	if utf8.RuneCountInString(input) > MaxInputRunes {
		return nil, ErrTooLong
	}

	mod, err := s.gen.CheckPrompt(ctx, input)
	if err != nil {
		// A moderation outage does not block generation.
		slog.Warn("prayer moderation unavailable", "error", err)
	} else if !mod.Safe {
		slog.Info("prayer request flagged", "categories", mod.Categories)
		return nil, ErrFlagged
	}

	text, err := s.gen.Generate(ctx, systemPrompt, "User input: "+input)
	if err != nil {
		slog.Error("prayer generation failed", "error", err)
		if errors.Is(err, ai.ErrModelLoading) {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return nil, ErrUnavailable
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrUnavailable
	}

	html, err := markdown.ToHTML(text)
	if err != nil {
		return nil, fmt.Errorf("prayer render: %w", err)
	}
	return &Prayer{Markdown: text, HTML: html}, nil
}
