// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared fakes for the handler tests. No external
// service is needed: the generation service runs on a fake provider.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"sitecraft/internal/ai"
	"sitecraft/internal/generate"
	"sitecraft/internal/scrape"
	"sitecraft/internal/store"
)

// mockGenerator implements generate.Generator with a canned answer.
type mockGenerator struct {
	mu         sync.Mutex
	configured []string
	response   string
	err        error
	calls      int
	lastPref   string
}

func (m *mockGenerator) Generate(_ context.Context, preferred, _, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastPref = preferred
	return m.response, m.err
}

func (m *mockGenerator) IsConfigured(name string) bool {
	for _, c := range m.configured {
		if c == name {
			return true
		}
	}
	return false
}

func (m *mockGenerator) Available() []string { return m.configured }

func (m *mockGenerator) Status() []ai.ProviderStatus {
	out := make([]ai.ProviderStatus, 0, len(ai.FallbackOrder))
	for _, name := range ai.FallbackOrder {
		out = append(out, ai.ProviderStatus{Name: name, Configured: m.IsConfigured(name)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

type mockAnalyzer struct {
	analysis *scrape.Analysis
	err      error
}

func (m *mockAnalyzer) Analyze(_ context.Context, _ string) (*scrape.Analysis, error) {
	return m.analysis, m.err
}

// mockProjects is an in-memory ProjectStore.
type mockProjects struct {
	mu       sync.Mutex
	saved    []store.Generation
	projects map[uuid.UUID]*store.Project
	history  []store.HistoryEntry
	err      error
}

func newMockProjects() *mockProjects {
	return &mockProjects{projects: map[uuid.UUID]*store.Project{}}
}

func (m *mockProjects) SaveGeneration(_ context.Context, g store.Generation) (*store.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.saved = append(m.saved, g)
	p := &store.Project{ID: uuid.New(), Name: g.Name, ThemeKey: g.ThemeKey, Status: "draft", CreatedAt: time.Now()}
	m.projects[p.ID] = p
	return p, nil
}

func (m *mockProjects) FindByID(_ context.Context, id uuid.UUID) (*store.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.projects[id], nil
}

func (m *mockProjects) History(_ context.Context, _ uuid.UUID, limit int) ([]store.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if len(m.history) > limit {
		return m.history[:limit], nil
	}
	return m.history, nil
}

const siteJSON = `{"files":{"index.html":"<img src=\"https://cdn.example.com/a.jpg\">","style.css":"body{}","script.js":"//"},"summary":"A bakery site"}`

// testEnv bundles the handlers and their fakes.
type testEnv struct {
	Gen      *mockGenerator
	Analyzer *mockAnalyzer
	Projects *mockProjects
	AI       *AI
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		Gen:      &mockGenerator{configured: []string{ai.Gemini, ai.Groq}, response: siteJSON},
		Analyzer: &mockAnalyzer{},
		Projects: newMockProjects(),
	}
	svc := generate.NewService(env.Gen, nil, env.Analyzer, nil, generate.Config{})
	env.AI = NewAI(svc, env.Gen, env.Projects)
	return env
}

// postJSON runs a handler on a JSON POST and decodes the response body.
func postJSON(t *testing.T, h http.HandlerFunc, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec, decodeBody(t, rec)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

var errBoom = errors.New("boom")
