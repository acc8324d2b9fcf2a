// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

// ---------- Helpers ----------

// newTestServer creates an httptest.Server that responds with the given status
// code and body bytes. The caller must call Close on the returned server.
func newTestServer(t *testing.T, statusCode int, body []byte) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		w.Write(body)
	}))
}

// chatSuccessBody builds a chat completions response with one choice.
func chatSuccessBody(text string) []byte {
	resp := openAIResponse{
		Choices: []openAIChoice{
			{Message: openAIMessage{Role: "assistant", Content: text}},
		},
	}
	b, _ := json.Marshal(resp)
	return b
}

// geminiSuccessBody builds a generateContent response with one candidate.
func geminiSuccessBody(text string) []byte {
	resp := geminiResponse{
		Candidates: []geminiCandidate{
			{Content: geminiContent{Parts: []geminiPart{{Text: text}}}},
		},
	}
	b, _ := json.Marshal(resp)
	return b
}

// chatConstructors lists every OpenAI-compatible adapter.
var chatConstructors = map[string]func(ProviderConfig) *chatProvider{
	OpenAI:     newOpenAI,
	Groq:       newGroq,
	OpenRouter: newOpenRouter,
	Perplexity: newPerplexity,
}

// =====================================================================
// OpenAI-compatible providers
// =====================================================================

func TestChatGenerate_Success(t *testing.T) {
	for name, build := range chatConstructors {
		t.Run(name, func(t *testing.T) {
			want := "Hello from " + name
			srv := newTestServer(t, http.StatusOK, chatSuccessBody(want))
			defer srv.Close()

			p := build(ProviderConfig{APIKey: "test-key", BaseURL: srv.URL})
			got, err := p.Generate(context.Background(), "sys", "usr")
			if err != nil {
				t.Fatalf("Generate: unexpected error: %v", err)
			}
			if got != want {
				t.Errorf("result: got %q, want %q", got, want)
			}
			if p.Name() != name {
				t.Errorf("Name: got %q, want %q", p.Name(), name)
			}
		})
	}
}

func TestChatGenerate_VerifiesRequest(t *testing.T) {
	var (
		capturedHeaders http.Header
		capturedBody    []byte
		capturedPath    string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedHeaders = r.Header.Clone()
		capturedBody, _ = io.ReadAll(r.Body)
		capturedPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write(chatSuccessBody("ok"))
	}))
	defer srv.Close()

	p := newOpenAI(ProviderConfig{APIKey: "sk-test-123", Model: "gpt-4o", BaseURL: srv.URL + "/"})
	if _, err := p.Generate(context.Background(), "system prompt", "user prompt"); err != nil {
		t.Fatalf("Generate: unexpected error: %v", err)
	}

	if got := capturedHeaders.Get("Authorization"); got != "Bearer sk-test-123" {
		t.Errorf("Authorization: got %q", got)
	}
	if got := capturedHeaders.Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type: got %q", got)
	}
	if capturedPath != "/chat/completions" {
		t.Errorf("path: got %q, want /chat/completions", capturedPath)
	}

	var body openAIRequest
	if err := json.Unmarshal(capturedBody, &body); err != nil {
		t.Fatalf("unmarshal request body: %v", err)
	}
	if body.Model != "gpt-4o" {
		t.Errorf("model: got %q", body.Model)
	}
	if len(body.Messages) != 2 {
		t.Fatalf("messages: got %d, want 2", len(body.Messages))
	}
	if body.Messages[0].Role != "system" || body.Messages[0].Content != "system prompt" {
		t.Errorf("system message: got %+v", body.Messages[0])
	}
	if body.Messages[1].Role != "user" || body.Messages[1].Content != "user prompt" {
		t.Errorf("user message: got %+v", body.Messages[1])
	}
}

func TestChatGenerate_OmitsEmptySystemMessage(t *testing.T) {
	var capturedBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedBody, _ = io.ReadAll(r.Body)
		w.Write(chatSuccessBody("ok"))
	}))
	defer srv.Close()

	p := newGroq(ProviderConfig{APIKey: "gsk-key", BaseURL: srv.URL})
	if _, err := p.Generate(context.Background(), "", "just the user"); err != nil {
		t.Fatalf("Generate: unexpected error: %v", err)
	}

	var body openAIRequest
	if err := json.Unmarshal(capturedBody, &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(body.Messages) != 1 || body.Messages[0].Role != "user" {
		t.Errorf("messages: got %+v, want a single user message", body.Messages)
	}
	if body.Model != "llama-3.3-70b-versatile" {
		t.Errorf("default groq model: got %q", body.Model)
	}
}

func TestOpenRouterGenerate_AttributionHeaders(t *testing.T) {
	var capturedHeaders http.Header
	var capturedBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedHeaders = r.Header.Clone()
		capturedBody, _ = io.ReadAll(r.Body)
		w.Write(chatSuccessBody("ok"))
	}))
	defer srv.Close()

	p := newOpenRouter(ProviderConfig{APIKey: "or-key", BaseURL: srv.URL})
	if _, err := p.Generate(context.Background(), "sys", "usr"); err != nil {
		t.Fatalf("Generate: unexpected error: %v", err)
	}

	if capturedHeaders.Get("HTTP-Referer") == "" {
		t.Error("HTTP-Referer header missing")
	}
	if capturedHeaders.Get("X-Title") == "" {
		t.Error("X-Title header missing")
	}

	var body openAIRequest
	if err := json.Unmarshal(capturedBody, &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.MaxTokens != 2048 {
		t.Errorf("max_tokens: got %d, want 2048", body.MaxTokens)
	}
	if body.Model != "google/gemini-2.0-flash-001" {
		t.Errorf("default model: got %q", body.Model)
	}
}

func TestPerplexityGenerate_SamplingParameters(t *testing.T) {
	var capturedBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedBody, _ = io.ReadAll(r.Body)
		w.Write(chatSuccessBody("ok"))
	}))
	defer srv.Close()

	p := newPerplexity(ProviderConfig{APIKey: "pplx-key", BaseURL: srv.URL})
	if _, err := p.Generate(context.Background(), "sys", "usr"); err != nil {
		t.Fatalf("Generate: unexpected error: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(capturedBody, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if raw["temperature"] != 0.2 {
		t.Errorf("temperature: got %v, want 0.2", raw["temperature"])
	}
	if raw["top_p"] != 0.9 {
		t.Errorf("top_p: got %v, want 0.9", raw["top_p"])
	}
	if _, ok := raw["max_tokens"]; ok {
		t.Error("max_tokens should be omitted for perplexity")
	}
}

func TestChatGenerate_HTTPError(t *testing.T) {
	srv := newTestServer(t, http.StatusTooManyRequests,
		[]byte(`{"error":{"message":"Rate limit reached for requests","type":"requests"}}`))
	defer srv.Close()

	p := newOpenAI(ProviderConfig{APIKey: "k", BaseURL: srv.URL})
	_, err := p.Generate(context.Background(), "", "usr")

	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("error: got %T %v, want *ProviderError", err, err)
	}
	if perr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("status: got %d", perr.StatusCode)
	}
	if perr.Message != "Rate limit reached for requests" {
		t.Errorf("message: got %q", perr.Message)
	}
	if !IsQuotaError(err.Error()) {
		t.Errorf("expected %q to classify as quota", err.Error())
	}
}

func TestChatGenerate_ErrorBodyNotJSON(t *testing.T) {
	srv := newTestServer(t, http.StatusBadGateway, []byte("  upstream unavailable  "))
	defer srv.Close()

	p := newGroq(ProviderConfig{APIKey: "k", BaseURL: srv.URL})
	_, err := p.Generate(context.Background(), "", "usr")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "upstream unavailable") {
		t.Errorf("error should include the raw body: %v", err)
	}
}

func TestChatGenerate_MalformedJSON(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, []byte(`{not json`))
	defer srv.Close()

	p := newOpenAI(ProviderConfig{APIKey: "k", BaseURL: srv.URL})
	_, err := p.Generate(context.Background(), "", "usr")
	if err == nil || !strings.Contains(err.Error(), "unmarshal") {
		t.Errorf("error: got %v, want unmarshal error", err)
	}
}

func TestChatGenerate_EmptyChoices(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, []byte(`{"choices":[]}`))
	defer srv.Close()

	p := newOpenAI(ProviderConfig{APIKey: "k", BaseURL: srv.URL})
	got, err := p.Generate(context.Background(), "", "usr")
	if err != nil {
		t.Fatalf("empty choices should not be an error: %v", err)
	}
	if got != "" {
		t.Errorf("result: got %q, want empty", got)
	}
}

func TestChatGenerate_CancelledContext(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, chatSuccessBody("late"))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := newOpenAI(ProviderConfig{APIKey: "k", BaseURL: srv.URL})
	if _, err := p.Generate(ctx, "", "usr"); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestChatGenerate_ConnectionRefused(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, nil)
	url := srv.URL
	srv.Close()

	p := newPerplexity(ProviderConfig{APIKey: "k", BaseURL: url})
	_, err := p.Generate(context.Background(), "", "usr")
	if err == nil || !strings.Contains(err.Error(), "perplexity http") {
		t.Errorf("error: got %v, want perplexity http error", err)
	}
}

// =====================================================================
// Gemini
// =====================================================================

func TestGeminiGenerate_Success(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, geminiSuccessBody("Hello from Gemini"))
	defer srv.Close()

	p := newGemini(ProviderConfig{APIKey: "g-key", BaseURL: srv.URL})
	got, err := p.Generate(context.Background(), "sys", "usr")
	if err != nil {
		t.Fatalf("Generate: unexpected error: %v", err)
	}
	if got != "Hello from Gemini" {
		t.Errorf("result: got %q", got)
	}
}

func TestGeminiGenerate_VerifiesRequest(t *testing.T) {
	var (
		capturedBody []byte
		capturedPath string
		capturedKey  string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedBody, _ = io.ReadAll(r.Body)
		capturedPath = r.URL.Path
		capturedKey = r.URL.Query().Get("key")
		w.Write(geminiSuccessBody("ok"))
	}))
	defer srv.Close()

	p := newGemini(ProviderConfig{APIKey: "gemini key&123", BaseURL: srv.URL})
	if _, err := p.Generate(context.Background(), "system prompt", "user prompt"); err != nil {
		t.Fatalf("Generate: unexpected error: %v", err)
	}

	if capturedKey != "gemini key&123" {
		t.Errorf("key query parameter: got %q", capturedKey)
	}
	if want := "/v1beta/models/gemini-2.0-flash:generateContent"; capturedPath != want {
		t.Errorf("path: got %q, want %q", capturedPath, want)
	}

	var body geminiRequest
	if err := json.Unmarshal(capturedBody, &body); err != nil {
		t.Fatalf("unmarshal request body: %v", err)
	}
	if len(body.Contents) != 1 || len(body.Contents[0].Parts) != 1 {
		t.Fatalf("contents: got %+v, want one part", body.Contents)
	}
	if got := body.Contents[0].Parts[0].Text; got != "system prompt\n\nuser prompt" {
		t.Errorf("part text: got %q", got)
	}
	if body.GenerationConfig.MaxOutputTokens != 8192 {
		t.Errorf("maxOutputTokens: got %d", body.GenerationConfig.MaxOutputTokens)
	}
	if body.GenerationConfig.Temperature != 0.7 || body.GenerationConfig.TopP != 0.95 {
		t.Errorf("sampling: got %+v", body.GenerationConfig)
	}
}

func TestGeminiGenerate_HTTPError(t *testing.T) {
	srv := newTestServer(t, http.StatusForbidden, []byte(`{"error":{"message":"API key not valid"}}`))
	defer srv.Close()

	p := newGemini(ProviderConfig{APIKey: "bad", BaseURL: srv.URL})
	_, err := p.Generate(context.Background(), "", "usr")

	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("error: got %v, want *ProviderError", err)
	}
	if perr.Provider != Gemini || perr.StatusCode != http.StatusForbidden {
		t.Errorf("error fields: got %+v", perr)
	}
	if perr.Message != "API key not valid" {
		t.Errorf("message: got %q", perr.Message)
	}
	if IsQuotaError(err.Error()) {
		t.Errorf("auth error should not classify as quota: %v", err)
	}
}

func TestGeminiGenerate_NoCandidates(t *testing.T) {
	tests := map[string]string{
		"no candidates": `{"candidates":[]}`,
		"no parts":      `{"candidates":[{"content":{"parts":[]}}]}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			srv := newTestServer(t, http.StatusOK, []byte(body))
			defer srv.Close()

			p := newGemini(ProviderConfig{APIKey: "k", BaseURL: srv.URL})
			got, err := p.Generate(context.Background(), "", "usr")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != "" {
				t.Errorf("result: got %q, want empty", got)
			}
		})
	}
}

// =====================================================================
// Configuration
// =====================================================================

func TestGenerate_NotConfiguredMakesNoCall(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write(chatSuccessBody("should not happen"))
	}))
	defer srv.Close()

	providers := []Provider{
		newGemini(ProviderConfig{BaseURL: srv.URL}),
		newGemini(ProviderConfig{APIKey: "your_gemini_api_key_here", BaseURL: srv.URL}),
		newOpenAI(ProviderConfig{APIKey: "your_openai_api_key_here", BaseURL: srv.URL}),
		newGroq(ProviderConfig{BaseURL: srv.URL}),
		newOpenRouter(ProviderConfig{APIKey: " ", BaseURL: srv.URL}),
		newPerplexity(ProviderConfig{APIKey: "your_perplexity_api_key_here", BaseURL: srv.URL}),
	}

	for _, p := range providers {
		if p.Configured() {
			t.Errorf("%s: Configured() = true, want false", p.Name())
		}
		_, err := p.Generate(context.Background(), "sys", "usr")
		if !errors.Is(err, ErrNotConfigured) {
			t.Errorf("%s: error got %v, want ErrNotConfigured", p.Name(), err)
		}
	}

	if n := hits.Load(); n != 0 {
		t.Errorf("server received %d requests, want 0", n)
	}
}

func TestKeyConfigured(t *testing.T) {
	tests := []struct {
		name, key string
		want      bool
	}{
		{Groq, "gsk_live", true},
		{Groq, "", false},
		{Groq, "your_groq_api_key_here", false},
		{Groq, "your_openai_api_key_here", true},
		{OpenAI, "\t\n", false},
	}
	for _, tt := range tests {
		if got := keyConfigured(tt.name, tt.key); got != tt.want {
			t.Errorf("keyConfigured(%q, %q): got %v, want %v", tt.name, tt.key, got, tt.want)
		}
	}
}

// =====================================================================
// Registry over real HTTP adapters
// =====================================================================

func TestRegistryGenerate_WithRealHTTPProviders(t *testing.T) {
	quotaSrv := newTestServer(t, http.StatusTooManyRequests,
		[]byte(`{"error":{"message":"You exceeded your current quota"}}`))
	defer quotaSrv.Close()
	okSrv := newTestServer(t, http.StatusOK, chatSuccessBody("from openai"))
	defer okSrv.Close()

	reg := NewRegistry(map[string]ProviderConfig{
		Groq:   {APIKey: "gsk", BaseURL: quotaSrv.URL},
		OpenAI: {APIKey: "sk", BaseURL: okSrv.URL},
	})

	got, err := reg.Generate(context.Background(), Groq, "sys", "usr")
	if err != nil {
		t.Fatalf("Generate: unexpected error: %v", err)
	}
	if got != "from openai" {
		t.Errorf("result: got %q, want %q", got, "from openai")
	}
}

func TestRegistryRegister(t *testing.T) {
	reg := NewRegistry(nil)
	if len(reg.Available()) != 0 {
		t.Fatalf("Available: got %v, want none", reg.Available())
	}

	reg.Register(&mockProvider{name: Groq, configured: true, response: "mocked"})
	got, err := reg.Generate(context.Background(), "", "", "usr")
	if err != nil {
		t.Fatalf("Generate: unexpected error: %v", err)
	}
	if got != "mocked" {
		t.Errorf("result: got %q", got)
	}
}
