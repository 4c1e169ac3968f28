// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
)

type stubProvider struct {
	name string
	out  string
	err  error
}

func (s *stubProvider) Generate(context.Context, string, string) (string, error) { return s.out, s.err }
func (s *stubProvider) Name() string                                             { return s.name }

type stubModerator struct{ res *ModerationResult }

func (s stubModerator) CheckSafety(context.Context, string) (*ModerationResult, error) {
	return s.res, nil
}

func TestNewRegistrySkipsMissingKeys(t *testing.T) {
	r := NewRegistry("gemini", map[string]ProviderConfig{
		"gemini":      {APIKey: "g"},
		"openai":      {},
		"huggingface": {APIKey: "h"},
		"unknown":     {APIKey: "x"},
	})

	if got := r.Available(); !reflect.DeepEqual(got, []string{"gemini", "huggingface"}) {
		t.Errorf("Available = %v", got)
	}
	if r.HasProvider("openai") {
		t.Error("provider without key registered")
	}
	p, err := r.Active()
	if err != nil || p.Name() != "gemini" {
		t.Errorf("Active = (%v, %v)", p, err)
	}
}

func TestNewRegistryFallsBackToConfigured(t *testing.T) {
	r := NewRegistry("gemini", map[string]ProviderConfig{
		"openai":      {APIKey: "o"},
		"huggingface": {APIKey: "h"},
	})
	if got := r.ActiveName(); got != "huggingface" {
		t.Errorf("ActiveName = %q, want huggingface", got)
	}
}

func TestRegistryModeratorSelection(t *testing.T) {
	tests := []struct {
		name    string
		configs map[string]ProviderConfig
		want    string
	}{
		{"none", map[string]ProviderConfig{"gemini": {APIKey: "g"}}, ""},
		{"openai", map[string]ProviderConfig{"openai": {APIKey: "o"}}, "*ai.moderationAPI"},
		{"mistral", map[string]ProviderConfig{"mistral": {APIKey: "m"}}, "*ai.moderationAPI"},
		{"both", map[string]ProviderConfig{"openai": {APIKey: "o"}, "mistral": {APIKey: "m"}}, "*ai.fallbackModerator"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry("", tt.configs)
			got := ""
			if r.moderator != nil {
				got = reflect.TypeOf(r.moderator).String()
			}
			if got != tt.want {
				t.Errorf("moderator = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRegistryGenerate(t *testing.T) {
	r := NewRegistry("stub", nil)
	if _, err := r.Generate(context.Background(), "s", "u"); err == nil {
		t.Error("expected error with no providers")
	}

	r.Register("stub", &stubProvider{name: "stub", out: "Amen"})
	got, err := r.Generate(context.Background(), "s", "u")
	if err != nil || got != "Amen" {
		t.Errorf("Generate = (%q, %v)", got, err)
	}

	boom := errors.New("boom")
	r.Register("stub", &stubProvider{name: "stub", err: boom})
	if _, err := r.Generate(context.Background(), "s", "u"); !errors.Is(err, boom) {
		t.Errorf("Generate error = %v", err)
	}
}

func TestRegistrySetActive(t *testing.T) {
	r := NewRegistry("a", nil)
	r.Register("a", &stubProvider{name: "a"})
	r.Register("b", &stubProvider{name: "b"})

	if err := r.SetActive("missing"); err == nil {
		t.Error("SetActive to unknown provider should fail")
	}
	if r.ActiveName() != "a" {
		t.Errorf("active changed after failed SetActive: %q", r.ActiveName())
	}
	if err := r.SetActive("b"); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	if r.ActiveName() != "b" {
		t.Errorf("ActiveName = %q", r.ActiveName())
	}
}

func TestCheckPrompt(t *testing.T) {
	r := NewRegistry("", nil)
	res, err := r.CheckPrompt(context.Background(), "anything")
	if err != nil || !res.Safe {
		t.Errorf("no moderator: (%+v, %v), want safe", res, err)
	}

	r.SetModerator(stubModerator{&ModerationResult{Safe: false, Categories: []string{"violence"}}})
	res, _ = r.CheckPrompt(context.Background(), "anything")
	if res.Safe {
		t.Error("moderator verdict ignored")
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewRegistry("a", nil)
	r.Register("a", &stubProvider{name: "a", out: "x"})
	r.Register("b", &stubProvider{name: "b", out: "y"})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			r.Generate(context.Background(), "s", "u")
		}()
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				r.SetActive("a")
			} else {
				r.SetActive("b")
			}
		}(i)
	}
	wg.Wait()
}
