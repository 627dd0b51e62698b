// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm abstracts the language-model capability behind a single
// Generator contract and provides the Claude and OpenAI-compatible HTTP
// backends, retry with backoff, and tolerant JSON decoding of model output.
package llm

import (
	"context"
	"fmt"

	"github.com/pdiddy/review-engine/pkg/types"
)

// Request is one generation call: an optional system prompt plus the user
// prompt and sampling bounds.
type Request struct {
	// Model is the model identifier for this call.
	Model string

	// System is the optional system prompt.
	System string

	// Prompt is the user prompt.
	Prompt string

	// MaxTokens bounds the completion length (default 4096).
	MaxTokens int

	// Temperature is the sampling temperature. Zero means provider default.
	Temperature float64
}

// Response is the generation result.
type Response struct {
	// Text is the raw model output.
	Text string
}

// Generator is the opaque language-model capability the review pipeline
// depends on. Implementations must honor ctx deadlines; callers apply a
// per-call timeout and treat a timeout as a step failure.
type Generator interface {
	Generate(ctx context.Context, req Request) (Response, error)
}

// New builds the configured backend. The API family comes from
// cfg.Provider; unknown providers are an error rather than a guess.
func New(cfg types.AIConfig) (Generator, error) {
	switch cfg.Provider {
	case types.ProviderClaude, "":
		return &Claude{APIKey: cfg.APIKey, MaxRetries: cfg.MaxRetries}, nil
	case types.ProviderOpenAI:
		return &OpenAI{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL, MaxRetries: cfg.MaxRetries}, nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
}
