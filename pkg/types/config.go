// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Provider identifies the language-model API family.
type Provider string

const (
	ProviderClaude Provider = "claude"
	ProviderOpenAI Provider = "openai"
)

// AIConfig holds shared settings for components that call a Generative AI API.
type AIConfig struct {
	// Provider selects the API family: claude or openai.
	Provider Provider `json:"provider" yaml:"provider"`

	// Model is the default AI model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model"`

	// TaskModels overrides the model per task name (outline, analyze,
	// crossref, review, summary). Missing tasks fall back to Model.
	TaskModels map[string]string `json:"task_models,omitempty" yaml:"task_models,omitempty"`

	// BaseURL overrides the API endpoint for OpenAI-compatible gateways
	// (OpenRouter, Ollama). Empty uses the provider default.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// CallTimeout bounds a single API call (default 120s). A timeout is a
	// step failure, never a silent empty result.
	CallTimeout time.Duration `json:"call_timeout" yaml:"call_timeout"`
}

// ModelFor returns the model configured for task, falling back to the
// default Model when no per-task override exists.
func (c AIConfig) ModelFor(task string) string {
	if m, ok := c.TaskModels[task]; ok && m != "" {
		return m
	}
	return c.Model
}

// PersonaConfig holds settings for the persona store.
type PersonaConfig struct {
	// DBPath is the SQLite database file for the persona index. Empty
	// disables persona retrieval; reviews use the generic rubric only.
	DBPath string `json:"db_path,omitempty" yaml:"db_path,omitempty"`

	// MaxSnippets is the number of prior reviewer comments injected as
	// persona context per section (default 5).
	MaxSnippets int `json:"max_snippets" yaml:"max_snippets"`
}

// ReviewConfig is the explicit configuration record passed into the review
// engine at pipeline start. Components never read ambient global state.
type ReviewConfig struct {
	AIConfig `yaml:",inline"`

	// MaxIterations bounds the quality-gate loop per section (default 3).
	MaxIterations int `json:"max_iterations" yaml:"max_iterations"`

	// Parallelism bounds concurrent per-section review pipelines (default 4).
	Parallelism int `json:"parallelism" yaml:"parallelism"`

	// RubricPath optionally points at a YAML file of per-section-type rubric
	// overrides merged over the built-in defaults.
	RubricPath string `json:"rubric_path,omitempty" yaml:"rubric_path,omitempty"`

	// Persona configures the prior-reviewer-comment store.
	Persona PersonaConfig `json:"persona" yaml:"persona"`
}

// WithDefaults returns a copy of cfg with zero-valued fields replaced by
// their documented defaults.
func (c ReviewConfig) WithDefaults() ReviewConfig {
	if c.Provider == "" {
		c.Provider = ProviderClaude
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = 120 * time.Second
	}
	if c.MaxIterations <= 0 {
		c.MaxIterations = 3
	}
	if c.Parallelism <= 0 {
		c.Parallelism = 4
	}
	if c.Persona.MaxSnippets <= 0 {
		c.Persona.MaxSnippets = 5
	}
	return c
}
