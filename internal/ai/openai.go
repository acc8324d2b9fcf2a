// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// chatProvider implements the Provider interface for the OpenAI chat
// completions format (POST {base}/chat/completions). OpenAI, Groq,
// OpenRouter and Perplexity all speak it and differ only in the
// defaults set by their constructors.
type chatProvider struct {
	name    string
	envKey  string
	config  ProviderConfig
	client  *http.Client
	headers map[string]string

	temperature float64
	maxTokens   int
	topP        float64
}

// newOpenAI creates a new OpenAI provider.
func newOpenAI(cfg ProviderConfig) *chatProvider {
	return newChatProvider(OpenAI, "OPENAI_API_KEY", cfg, "https://api.openai.com/v1", "gpt-4o-mini", 0.7, 8192, 0.95)
}

// newGroq creates a Groq provider (OpenAI-compatible endpoint).
func newGroq(cfg ProviderConfig) *chatProvider {
	return newChatProvider(Groq, "GROQ_API_KEY", cfg, "https://api.groq.com/openai/v1", "llama-3.3-70b-versatile", 0.7, 8192, 0.95)
}

// newOpenRouter creates an OpenRouter provider. OpenRouter asks callers to
// identify themselves with HTTP-Referer and X-Title.
func newOpenRouter(cfg ProviderConfig) *chatProvider {
	p := newChatProvider(OpenRouter, "OPENROUTER_API_KEY", cfg, "https://openrouter.ai/api/v1", "google/gemini-2.0-flash-001", 0.7, 2048, 0)
	p.headers = map[string]string{
		"HTTP-Referer": "https://sitecraft.app",
		"X-Title":      "Sitecraft",
	}
	return p
}

// newPerplexity creates a Perplexity provider.
func newPerplexity(cfg ProviderConfig) *chatProvider {
	return newChatProvider(Perplexity, "PERPLEXITY_API_KEY", cfg, "https://api.perplexity.ai", "sonar", 0.2, 0, 0.9)
}

func newChatProvider(name, envKey string, cfg ProviderConfig, baseURL, model string, temperature float64, maxTokens int, topP float64) *chatProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = baseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = model
	}
	return &chatProvider{
		name:        name,
		envKey:      envKey,
		config:      cfg,
		client:      &http.Client{Timeout: 120 * time.Second},
		temperature: temperature,
		maxTokens:   maxTokens,
		topP:        topP,
	}
}

func (p *chatProvider) Name() string     { return p.name }
func (p *chatProvider) Model() string    { return p.config.Model }
func (p *chatProvider) Configured() bool { return keyConfigured(p.name, p.config.APIKey) }

// Generate sends a chat completion request and returns the assistant's
// response text. The system message is omitted when systemPrompt is empty.
func (p *chatProvider) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if !p.Configured() {
		return "", fmt.Errorf("%w: %s (set %s)", ErrNotConfigured, p.name, p.envKey)
	}

	var messages []openAIMessage
	if systemPrompt != "" {
		messages = append(messages, openAIMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, openAIMessage{Role: "user", Content: userPrompt})

	body := openAIRequest{
		Model:       p.config.Model,
		Messages:    messages,
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
		TopP:        p.topP,
	}

	return p.doChat(ctx, body)
}

// doChat performs the HTTP call to the chat completions endpoint.
func (p *chatProvider) doChat(ctx context.Context, body openAIRequest) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("%s marshal: %w", p.name, err)
	}

	url := p.config.BaseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%s request: %w", p.name, err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.config.APIKey)
	for k, v := range p.headers {
		req.Header.Set(k, v)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s http: %w", p.name, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%s read body: %w", p.name, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &ProviderError{Provider: p.name, StatusCode: resp.StatusCode, Message: upstreamMessage(respBody)}
	}

	var result openAIResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("%s unmarshal: %w", p.name, err)
	}

	// choices[0].message.content; an empty reply is not an error.
	if len(result.Choices) == 0 {
		return "", nil
	}
	return result.Choices[0].Message.Content, nil
}

// --- OpenAI-compatible request/response types ---

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	TopP        float64         `json:"top_p,omitempty"`
}

type openAIResponse struct {
	Choices []openAIChoice `json:"choices"`
}

type openAIChoice struct {
	Message openAIMessage `json:"message"`
}
