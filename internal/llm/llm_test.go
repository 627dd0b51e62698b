// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pdiddy/review-engine/pkg/types"
)

func TestClaudeGenerate(t *testing.T) {
	var gotBody claudeRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("x-api-key = %q", r.Header.Get("x-api-key"))
		}
		if r.Header.Get("anthropic-version") == "" {
			t.Error("missing anthropic-version header")
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		json.NewEncoder(w).Encode(claudeResponse{
			Content: []claudeContent{{Type: "text", Text: "generated text"}},
		})
	}))
	defer ts.Close()

	orig := claudeAPIURL
	claudeAPIURL = ts.URL
	defer func() { claudeAPIURL = orig }()

	backend := &Claude{APIKey: "test-key"}
	resp, err := backend.Generate(context.Background(), Request{
		Model:  "test-model",
		System: "be brief",
		Prompt: "review this",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if resp.Text != "generated text" {
		t.Errorf("Text = %q", resp.Text)
	}
	if gotBody.Model != "test-model" || gotBody.System != "be brief" {
		t.Errorf("request body = %+v", gotBody)
	}
	if gotBody.MaxTokens != 4096 {
		t.Errorf("MaxTokens = %d, want default 4096", gotBody.MaxTokens)
	}
}

func TestClaudeGenerateRetriesOverloaded(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(claudeResponse{
			Content: []claudeContent{{Type: "text", Text: "ok"}},
		})
	}))
	defer ts.Close()

	orig := claudeAPIURL
	claudeAPIURL = ts.URL
	defer func() { claudeAPIURL = orig }()

	backend := &Claude{APIKey: "k", MaxRetries: 2}
	resp, err := backend.Generate(context.Background(), Request{Model: "m", Prompt: "p"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if resp.Text != "ok" || calls != 2 {
		t.Errorf("Text = %q, calls = %d", resp.Text, calls)
	}
}

func TestOpenAIGenerate(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		var req openaiRequest
		json.NewDecoder(r.Body).Decode(&req)
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("messages = %+v, want system then user", req.Messages)
		}
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"answer"}}]}`))
	}))
	defer ts.Close()

	backend := &OpenAI{APIKey: "sk-test", BaseURL: ts.URL}
	resp, err := backend.Generate(context.Background(), Request{
		Model:  "gpt-test",
		System: "sys",
		Prompt: "user prompt",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if resp.Text != "answer" {
		t.Errorf("Text = %q", resp.Text)
	}
}

func TestNewSelectsProvider(t *testing.T) {
	tests := []struct {
		name     string
		provider types.Provider
		wantErr  bool
	}{
		{"claude", types.ProviderClaude, false},
		{"default", "", false},
		{"openai", types.ProviderOpenAI, false},
		{"unknown", "gemini", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(types.AIConfig{Provider: tt.provider})
			if (err != nil) != tt.wantErr {
				t.Errorf("New(%q) error = %v, wantErr %v", tt.provider, err, tt.wantErr)
			}
		})
	}
}
