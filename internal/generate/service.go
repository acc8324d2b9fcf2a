// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package generate composes providers, themes, page analysis and response
// parsing into the site-generation operations exposed to the route layer.
//
// Errors returned by the Service are limited to ErrInvalidRequest,
// ai.ErrNotConfigured, ai.ErrNoProvidersConfigured, *ai.AllProvidersFailedError
// and scrape.ErrPageLoad (AnalyzeURL only). Malformed model output is never
// an error.
package generate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"sitecraft/internal/ai"
	"sitecraft/internal/parser"
	"sitecraft/internal/scrape"
	"sitecraft/internal/theme"
)

// ErrInvalidRequest means a required field is missing or malformed.
// It is returned before any network call.
var ErrInvalidRequest = errors.New("generate: invalid request")

// Kind identifies the operation a Request is for.
type Kind int

const (
	FullSite Kind = iota
	ModifyExisting
	ExplainCode
	AnalyzeURL
	SinglePage
)

func (k Kind) String() string {
	switch k {
	case FullSite:
		return "full_site"
	case ModifyExisting:
		return "modify"
	case ExplainCode:
		return "explain"
	case AnalyzeURL:
		return "analyze_url"
	case SinglePage:
		return "single_page"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Request carries the inputs of one operation. Only the fields relevant to
// Kind are read.
type Request struct {
	Kind Kind

	Prompt      string
	ProjectName string

	// ThemeKey names a theme; Palette, when set, overrides it field by
	// field (invalid fields fall back to the theme).
	ThemeKey string
	Palette  *theme.Palette

	ExistingCode string
	FileType     string
	Detailed     bool

	TargetURL string

	// SiteType, Sections and CustomPrompt shape single-page generation.
	// CustomPrompt replaces the built prompt entirely.
	SiteType     string
	Sections     []string
	CustomPrompt string

	// Provider is the preferred provider. Empty uses the service default.
	Provider string

	// UserID, when set, is charged for successful generations.
	UserID string
}

// Validate checks the fields required by Kind.
func (r Request) Validate() error {
	switch r.Kind {
	case FullSite:
		if strings.TrimSpace(r.Prompt) == "" {
			return fmt.Errorf("%w: prompt is required", ErrInvalidRequest)
		}
	case ModifyExisting:
		if strings.TrimSpace(r.ExistingCode) == "" || strings.TrimSpace(r.Prompt) == "" {
			return fmt.Errorf("%w: both code and prompt are required", ErrInvalidRequest)
		}
	case ExplainCode:
		if strings.TrimSpace(r.ExistingCode) == "" {
			return fmt.Errorf("%w: code is required for explanation", ErrInvalidRequest)
		}
	case AnalyzeURL:
		if strings.TrimSpace(r.TargetURL) == "" {
			return fmt.Errorf("%w: URL is required", ErrInvalidRequest)
		}
	case SinglePage:
		// Every field has a default.
	default:
		return fmt.Errorf("%w: unknown kind %s", ErrInvalidRequest, r.Kind)
	}
	return nil
}

// Generator runs a prompt with provider fallback. *ai.Registry implements it.
type Generator interface {
	Generate(ctx context.Context, preferred, systemPrompt, userPrompt string) (string, error)
	IsConfigured(name string) bool
	Available() []string
}

// PageAnalyzer analyzes a live page. *scrape.Analyzer implements it.
type PageAnalyzer interface {
	Analyze(ctx context.Context, targetURL string) (*scrape.Analysis, error)
}

// Ledger charges users for generations. A nil Ledger disables billing.
type Ledger interface {
	Deduct(ctx context.Context, userID string, amount int, reason string) error
}

// Config holds service defaults.
type Config struct {
	DefaultProvider string // used when a request names none
	ChatProvider    string // default preference for Chat
	GenerateCost    int    // tokens per generate/modify
	AnalyzeCost     int    // tokens per URL analysis
}

// Service implements the generation operations. It keeps no per-request
// state and is safe for concurrent use.
type Service struct {
	gen      Generator
	themes   *theme.Table
	analyzer PageAnalyzer
	ledger   Ledger
	cfg      Config
}

// NewService creates a Service. analyzer and ledger may be nil; AnalyzeURL
// then fails with scrape.ErrPageLoad and billing is skipped.
func NewService(gen Generator, themes *theme.Table, analyzer PageAnalyzer, ledger Ledger, cfg Config) *Service {
	if themes == nil {
		themes = theme.Builtin()
	}
	if cfg.DefaultProvider == "" {
		cfg.DefaultProvider = ai.Gemini
	}
	if cfg.ChatProvider == "" {
		cfg.ChatProvider = ai.OpenRouter
	}
	return &Service{gen: gen, themes: themes, analyzer: analyzer, ledger: ledger, cfg: cfg}
}

// Themes returns the service's theme table.
func (s *Service) Themes() *theme.Table { return s.themes }

// preference resolves the preferred provider. A provider named explicitly
// must be configured; the default preference only orders the fallback.
func (s *Service) preference(requested, fallback string) (string, error) {
	if requested == "" {
		if len(s.gen.Available()) == 0 {
			return "", ai.ErrNoProvidersConfigured
		}
		return fallback, nil
	}
	if !s.gen.IsConfigured(requested) {
		return "", fmt.Errorf("%w: %s API key not configured", ai.ErrNotConfigured, strings.ToUpper(requested))
	}
	return requested, nil
}

// charge bills a successful generation. Failures are logged only; they
// never undo the result.
func (s *Service) charge(ctx context.Context, userID string, amount int, reason string) {
	if s.ledger == nil || userID == "" || amount <= 0 {
		return
	}
	if err := s.ledger.Deduct(context.WithoutCancel(ctx), userID, amount, reason); err != nil {
		slog.Warn("token deduction failed", "user_id", userID, "amount", amount, "reason", reason, "error", err)
		return
	}
	slog.Info("tokens deducted", "user_id", userID, "amount", amount, "reason", reason)
}

// Project is a generated multi-file site.
type Project struct {
	Files    parser.FileSet
	Summary  string
	ThemeKey string
	Palette  theme.Palette
}

// GenerateProject resolves the palette, asks a provider for a three-file
// site and parses the answer. The file set is never empty.
func (s *Service) GenerateProject(ctx context.Context, req Request) (*Project, error) {
	req.Kind = FullSite
	if err := req.Validate(); err != nil {
		return nil, err
	}
	preferred, err := s.preference(req.Provider, s.cfg.DefaultProvider)
	if err != nil {
		return nil, err
	}

	def := s.themes.Lookup(req.ThemeKey)
	palette := def.Colors
	description := def.Description
	if req.Palette != nil {
		palette = s.themes.Sanitize(*req.Palette, def.Key)
		description = "Custom palette"
	}

	prompt := projectPrompt(req.Prompt, req.ProjectName, palette, description)
	slog.Info("generating project", "provider", preferred, "theme", def.Key, "custom_palette", req.Palette != nil)

	raw, err := s.gen.Generate(ctx, preferred, multiFileInstruction, prompt)
	if err != nil {
		return nil, err
	}

	res := parser.Parse(raw)
	slog.Info("project generated", "files", res.Files.Names())

	s.charge(ctx, req.UserID, s.cfg.GenerateCost, "AI project generation")

	return &Project{Files: res.Files, Summary: res.Summary, ThemeKey: def.Key, Palette: palette}, nil
}

// ModifyCode applies an instruction to a single file and returns the new
// code with any code fences removed.
func (s *Service) ModifyCode(ctx context.Context, req Request) (string, error) {
	req.Kind = ModifyExisting
	if err := req.Validate(); err != nil {
		return "", err
	}
	preferred, err := s.preference(req.Provider, s.cfg.DefaultProvider)
	if err != nil {
		return "", err
	}

	raw, err := s.gen.Generate(ctx, preferred, codeInstruction, modifyPrompt(req.ExistingCode, req.Prompt, req.FileType))
	if err != nil {
		return "", err
	}

	s.charge(ctx, req.UserID, s.cfg.GenerateCost, "AI code modification")
	return parser.StripAllFences(raw), nil
}

// GenerateSingle asks a provider for one self-contained HTML document with
// embedded CSS and JavaScript and returns it with code fences removed.
// ThemeKey may name a theme or describe colors in free text.
func (s *Service) GenerateSingle(ctx context.Context, req Request) (string, error) {
	req.Kind = SinglePage
	if err := req.Validate(); err != nil {
		return "", err
	}
	preferred, err := s.preference(req.Provider, s.cfg.DefaultProvider)
	if err != nil {
		return "", err
	}

	prompt := strings.TrimSpace(req.CustomPrompt)
	if prompt == "" {
		colors := req.ThemeKey
		if s.themes.Has(req.ThemeKey) {
			def := s.themes.Lookup(req.ThemeKey)
			colors = paletteBlock("Use these colors as CSS variables:", def.Colors, def.Description)
		}
		prompt = singlePagePrompt(req.SiteType, req.ProjectName, req.Sections, colors)
	}
	slog.Info("generating single page", "provider", preferred, "custom_prompt", req.CustomPrompt != "")

	raw, err := s.gen.Generate(ctx, preferred, singlePageInstruction, prompt)
	if err != nil {
		return "", err
	}

	s.charge(ctx, req.UserID, s.cfg.GenerateCost, "AI website generation")
	return parser.StripAllFences(raw), nil
}

// Explain returns a structured explanation of code. Output that is not a
// JSON object degrades to a raw-text explanation.
func (s *Service) Explain(ctx context.Context, req Request) (*Explanation, error) {
	req.Kind = ExplainCode
	if err := req.Validate(); err != nil {
		return nil, err
	}
	preferred, err := s.preference(req.Provider, s.cfg.DefaultProvider)
	if err != nil {
		return nil, err
	}

	prompt := explainPrompt(truncateCode(req.ExistingCode), req.FileType, req.Detailed)
	raw, err := s.gen.Generate(ctx, preferred, "", prompt)
	if err != nil {
		return nil, err
	}
	return parseExplanation(raw), nil
}

// SiteAnalysis is a site recreated from a live page.
type SiteAnalysis struct {
	Project

	SourceURL     string
	OriginalTitle string
	ImageCount    int

	// DetectedColors reports whether the page's own colors were usable.
	DetectedColors bool
}

// AnalyzeURL analyzes a live page, builds a hybrid palette from its colors,
// asks a provider to recreate it referencing only the extracted images and
// merges those images into the result.
func (s *Service) AnalyzeURL(ctx context.Context, req Request) (*SiteAnalysis, error) {
	req.Kind = AnalyzeURL
	if err := req.Validate(); err != nil {
		return nil, err
	}
	preferred, err := s.preference(req.Provider, s.cfg.DefaultProvider)
	if err != nil {
		return nil, err
	}
	if s.analyzer == nil {
		return nil, fmt.Errorf("%w: page analysis is not available", scrape.ErrPageLoad)
	}

	target := strings.TrimSpace(req.TargetURL)
	analysis, err := s.analyzer.Analyze(ctx, target)
	if err != nil {
		if errors.Is(err, scrape.ErrInvalidURL) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		return nil, err
	}

	themeKey := s.themes.Lookup(req.ThemeKey).Key
	palette, _ := s.themes.Synthesize(analysis.Colors, themeKey)
	usable := theme.HasUsableColors(analysis.Colors)

	prompt := analyzePrompt(analysis, palette, usable)
	slog.Info("recreating page", "url", target, "provider", preferred, "images", len(analysis.Images), "detected_colors", usable)

	raw, err := s.gen.Generate(ctx, preferred, multiFileInstruction, prompt)
	if err != nil {
		return nil, err
	}

	res := parser.Parse(raw)
	if index, ok := res.Files[parser.IndexHTML]; ok && len(analysis.Mapping) > 0 {
		res.Files[parser.IndexHTML] = parser.TextFile(scrape.RewriteImageSources(index.String(), analysis.Mapping))
	}
	res.Files.Merge(analysis.ImageFiles())

	s.charge(ctx, req.UserID, s.cfg.AnalyzeCost, "Analyze website URL")

	return &SiteAnalysis{
		Project: Project{
			Files:    res.Files,
			Summary:  fmt.Sprintf("Analyzed %s and recreated similar design with %d extracted images", target, len(analysis.Images)),
			ThemeKey: themeKey,
			Palette:  palette,
		},
		SourceURL:      target,
		OriginalTitle:  analysis.Title,
		ImageCount:     len(analysis.Images),
		DetectedColors: usable,
	}, nil
}

// PageContext describes the page a chat user is on.
type PageContext struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// Chat answers a short assistant message, aware of the user's current page.
func (s *Service) Chat(ctx context.Context, message string, page *PageContext, provider string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", fmt.Errorf("%w: message is required", ErrInvalidRequest)
	}
	preferred, err := s.preference(provider, s.cfg.ChatProvider)
	if err != nil {
		return "", err
	}
	return s.gen.Generate(ctx, preferred, chatInstruction(page), message)
}
