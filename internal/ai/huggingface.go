// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
)

// ErrModelLoading is returned while a Hugging Face model is cold-starting.
var ErrModelLoading = errors.New("model is loading, please try again in 15-20 seconds")

// huggingFaceProvider uses the Hugging Face Inference API
// (POST {base}/models/{model}). The API has no system role, so the system
// prompt is prepended to the input.
type huggingFaceProvider struct {
	config ProviderConfig
	client *http.Client
}

func newHuggingFace(cfg ProviderConfig) *huggingFaceProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api-inference.huggingface.co"
	}
	if cfg.Model == "" {
		cfg.Model = "google/flan-t5-large"
	}
	return &huggingFaceProvider{config: cfg, client: newHTTPClient(60 * time.Second)}
}

func (p *huggingFaceProvider) Name() string { return "huggingface" }

func (p *huggingFaceProvider) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	req := hfRequest{Inputs: strings.TrimSpace(systemPrompt + "\n\n" + userPrompt)}
	req.Parameters.MaxNewTokens = 400
	req.Parameters.ReturnFullText = false

	var resp []hfGenerated
	err := postJSON(ctx, p.client, "huggingface", p.config.BaseURL+"/models/"+p.config.Model,
		map[string]string{"Authorization": "Bearer " + p.config.APIKey}, req, &resp)

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusServiceUnavailable &&
		strings.Contains(strings.ToLower(apiErr.Body), "loading") {
		return "", ErrModelLoading
	}
	if err != nil {
		return "", err
	}

	if len(resp) == 0 || strings.TrimSpace(resp[0].GeneratedText) == "" {
		return "", errors.New("huggingface: no text generated")
	}
	return resp[0].GeneratedText, nil
}

type hfRequest struct {
	Inputs     string `json:"inputs"`
	Parameters struct {
		MaxNewTokens   int  `json:"max_new_tokens"`
		ReturnFullText bool `json:"return_full_text"`
	} `json:"parameters"`
}

type hfGenerated struct {
	GeneratedText string `json:"generated_text"`
}
