// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package ai provides a unified interface over the upstream text-generation
// services used for site generation (Gemini, Groq, OpenAI, OpenRouter,
// Perplexity). Each provider implements the Provider interface; the Registry
// decides the try-order and falls back across providers on failure.
package ai

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Provider names. The set is closed: NewRegistry only builds these.
const (
	Gemini     = "gemini"
	Groq       = "groq"
	OpenAI     = "openai"
	OpenRouter = "openrouter"
	Perplexity = "perplexity"
)

// FallbackOrder is the fixed priority used after the preferred provider.
// OpenRouter is reachable only when explicitly preferred.
var FallbackOrder = []string{Groq, OpenAI, Perplexity, Gemini}

// Provider defines the interface that all AI providers must implement.
// Each provider handles its own HTTP communication and response parsing.
type Provider interface {
	// Generate sends a prompt to the LLM and returns the generated text.
	// systemPrompt sets the model's behaviour; userPrompt is the user's request.
	// It returns ErrNotConfigured without any network call when the provider
	// has no usable key, and *ProviderError on a non-success HTTP status.
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	// Name returns the provider identifier (e.g., "openai", "gemini").
	Name() string

	// Configured reports whether the provider has a usable API key.
	Configured() bool

	// Model returns the model the provider sends requests to.
	Model() string
}

// ProviderConfig holds the credentials and settings for a single provider.
type ProviderConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// keyConfigured rejects empty keys and the "your_<name>_api_key_here"
// placeholder shipped in sample env files.
func keyConfigured(name, key string) bool {
	key = strings.TrimSpace(key)
	if key == "" {
		return false
	}
	return key != fmt.Sprintf("your_%s_api_key_here", name)
}

// constructors maps each known provider name to its adapter.
var constructors = map[string]func(ProviderConfig) Provider{
	Gemini:     func(c ProviderConfig) Provider { return newGemini(c) },
	Groq:       func(c ProviderConfig) Provider { return newGroq(c) },
	OpenAI:     func(c ProviderConfig) Provider { return newOpenAI(c) },
	OpenRouter: func(c ProviderConfig) Provider { return newOpenRouter(c) },
	Perplexity: func(c ProviderConfig) Provider { return newPerplexity(c) },
}

// Registry holds every known provider, configured or not, so callers can
// tell "never try" apart from "tried and failed".
// All methods are safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	fallback  []string

	// strict stops the fallback chain on errors that are neither quota
	// conditions nor missing configuration.
	strict bool
}

// NewRegistry creates a registry with an adapter for every known provider.
// Providers missing from configs are created unconfigured.
func NewRegistry(configs map[string]ProviderConfig) *Registry {
	r := &Registry{
		providers: make(map[string]Provider, len(constructors)),
		fallback:  append([]string(nil), FallbackOrder...),
	}
	for name, build := range constructors {
		r.providers[name] = build(configs[name])
	}
	return r
}

// SetStrict toggles strict fallback. See Generate.
func (r *Registry) SetStrict(strict bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strict = strict
}

// Register adds or replaces a provider in the registry. This allows injecting
// custom providers at runtime (e.g. for testing).
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// SetFallbackOrder replaces the fixed priority sequence.
func (r *Registry) SetFallbackOrder(names ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = append([]string(nil), names...)
}

// IsConfigured reports whether the named provider exists and has a key.
func (r *Registry) IsConfigured(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	return ok && p.Configured()
}

// Available returns the sorted names of all configured providers.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var names []string
	for name, p := range r.providers {
		if p.Configured() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// ProviderStatus describes one provider for status endpoints.
type ProviderStatus struct {
	Name       string `json:"name"`
	Configured bool   `json:"configured"`
	Model      string `json:"model"`
}

// Status lists every known provider, sorted by name.
func (r *Registry) Status() []ProviderStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ProviderStatus, 0, len(r.providers))
	for name, p := range r.providers {
		out = append(out, ProviderStatus{Name: name, Configured: p.Configured(), Model: p.Model()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
