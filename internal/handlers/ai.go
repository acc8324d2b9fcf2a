// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"sitecraft/internal/ai"
	"sitecraft/internal/generate"
	"sitecraft/internal/markdown"
	"sitecraft/internal/parser"
	"sitecraft/internal/store"
	"sitecraft/internal/theme"
)

// ProviderStatus reports provider configuration. *ai.Registry implements it.
type ProviderStatus interface {
	Status() []ai.ProviderStatus
	Available() []string
}

// ProjectStore persists generated projects. *store.ProjectStore implements it.
type ProjectStore interface {
	SaveGeneration(ctx context.Context, g store.Generation) (*store.Project, error)
	FindByID(ctx context.Context, id uuid.UUID) (*store.Project, error)
	History(ctx context.Context, projectID uuid.UUID, limit int) ([]store.HistoryEntry, error)
}

// AI groups the /api/ai handlers.
type AI struct {
	svc      *generate.Service
	status   ProviderStatus
	projects ProjectStore
}

// NewAI creates the AI handlers. projects may be nil; save requests then
// report a save error alongside the generated files.
func NewAI(svc *generate.Service, status ProviderStatus, projects ProjectStore) *AI {
	return &AI{svc: svc, status: status, projects: projects}
}

type generateProjectRequest struct {
	Prompt      string         `json:"prompt"`
	ProjectName string         `json:"projectName"`
	ColorTheme  string         `json:"colorTheme"`
	Palette     *theme.Palette `json:"palette"`
	Provider    string         `json:"provider"`
	UserID      string         `json:"userId"`
	Save        bool           `json:"save"`
}

type projectResponse struct {
	Success    bool           `json:"success"`
	Files      parser.FileSet `json:"files"`
	Summary    string         `json:"summary"`
	FilesCount int            `json:"filesCount"`
	Theme      string         `json:"theme"`
	Palette    theme.Palette  `json:"palette"`
	ProjectID  string         `json:"projectId,omitempty"`
	SaveError  string         `json:"saveError,omitempty"`
}

func newProjectResponse(p *generate.Project) projectResponse {
	return projectResponse{
		Success:    true,
		Files:      p.Files,
		Summary:    p.Summary,
		FilesCount: len(p.Files),
		Theme:      p.ThemeKey,
		Palette:    p.Palette,
	}
}

// GenerateProject handles POST /api/ai/generate-project.
func (h *AI) GenerateProject(w http.ResponseWriter, r *http.Request) {
	var req generateProjectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg := validatePrompt(req.Prompt, req.ProjectName); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	project, err := h.svc.GenerateProject(r.Context(), generate.Request{
		Prompt:      req.Prompt,
		ProjectName: req.ProjectName,
		ThemeKey:    req.ColorTheme,
		Palette:     req.Palette,
		Provider:    strings.ToLower(req.Provider),
		UserID:      req.UserID,
	})
	if err != nil {
		writeServiceError(w, r, "generate project", err)
		return
	}

	resp := newProjectResponse(project)
	if req.Save {
		resp.ProjectID, resp.SaveError = h.save(r.Context(), store.Generation{
			Name:     req.ProjectName,
			ThemeKey: project.ThemeKey,
			UserID:   req.UserID,
			Kind:     generate.FullSite.String(),
			Prompt:   req.Prompt,
			Summary:  project.Summary,
			Files:    project.Files,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type generatePageRequest struct {
	ProjectName  string   `json:"projectName"`
	Theme        string   `json:"theme"`
	Sections     []string `json:"sections"`
	ColorTheme   string   `json:"colorTheme"`
	CustomPrompt string   `json:"customPrompt"`
	Provider     string   `json:"provider"`
	UserID       string   `json:"userId"`
}

// GeneratePage handles POST /api/ai/generate. It returns one HTML document.
func (h *AI) GeneratePage(w http.ResponseWriter, r *http.Request) {
	var req generatePageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg := validatePage(req.CustomPrompt, req.ProjectName, req.Sections); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	code, err := h.svc.GenerateSingle(r.Context(), generate.Request{
		ProjectName:  req.ProjectName,
		SiteType:     req.Theme,
		Sections:     req.Sections,
		ThemeKey:     req.ColorTheme,
		CustomPrompt: req.CustomPrompt,
		Provider:     strings.ToLower(req.Provider),
		UserID:       req.UserID,
	})
	if err != nil {
		writeServiceError(w, r, "generate website", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "code": code, "type": "html"})
}

type modifyRequest struct {
	Code     string `json:"code"`
	Prompt   string `json:"prompt"`
	FileType string `json:"fileType"`
	Provider string `json:"provider"`
	UserID   string `json:"userId"`
}

// ModifyCode handles POST /api/ai/modify.
func (h *AI) ModifyCode(w http.ResponseWriter, r *http.Request) {
	var req modifyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg := validateCode(req.Code); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if msg := validatePrompt(req.Prompt, ""); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	code, err := h.svc.ModifyCode(r.Context(), generate.Request{
		ExistingCode: req.Code,
		Prompt:       req.Prompt,
		FileType:     req.FileType,
		Provider:     strings.ToLower(req.Provider),
		UserID:       req.UserID,
	})
	if err != nil {
		writeServiceError(w, r, "modify code", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "code": code})
}

type explainRequest struct {
	Code     string `json:"code"`
	FileType string `json:"fileType"`
	Detailed bool   `json:"detailed"`
	Provider string `json:"provider"`
}

// ExplainCode handles POST /api/ai/explain.
func (h *AI) ExplainCode(w http.ResponseWriter, r *http.Request) {
	var req explainRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg := validateCode(req.Code); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	explanation, err := h.svc.Explain(r.Context(), generate.Request{
		ExistingCode: req.Code,
		FileType:     req.FileType,
		Detailed:     req.Detailed,
		Provider:     strings.ToLower(req.Provider),
	})
	if err != nil {
		writeServiceError(w, r, "explain code", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"explanation": explanation,
		"fileType":    req.FileType,
	})
}

type analyzeRequest struct {
	URL         string `json:"url"`
	ProjectName string `json:"projectName"`
	ColorTheme  string `json:"colorTheme"`
	Provider    string `json:"provider"`
	UserID      string `json:"userId"`
	Save        bool   `json:"save"`
}

type analyzeResponse struct {
	projectResponse
	SourceURL      string `json:"sourceUrl"`
	OriginalTitle  string `json:"originalTitle"`
	ImageCount     int    `json:"imageCount"`
	DetectedColors bool   `json:"detectedColors"`
}

// AnalyzeURL handles POST /api/ai/analyze-url.
func (h *AI) AnalyzeURL(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg := validateURL(req.URL); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	site, err := h.svc.AnalyzeURL(r.Context(), generate.Request{
		TargetURL: req.URL,
		ThemeKey:  req.ColorTheme,
		Provider:  strings.ToLower(req.Provider),
		UserID:    req.UserID,
	})
	if err != nil {
		writeServiceError(w, r, "analyze website", err)
		return
	}

	resp := analyzeResponse{
		projectResponse: newProjectResponse(&site.Project),
		SourceURL:       site.SourceURL,
		OriginalTitle:   site.OriginalTitle,
		ImageCount:      site.ImageCount,
		DetectedColors:  site.DetectedColors,
	}
	if req.Save {
		name := req.ProjectName
		if name == "" {
			name = site.OriginalTitle
		}
		resp.ProjectID, resp.SaveError = h.save(r.Context(), store.Generation{
			Name:      name,
			ThemeKey:  site.ThemeKey,
			SourceURL: site.SourceURL,
			UserID:    req.UserID,
			Kind:      generate.AnalyzeURL.String(),
			Prompt:    site.SourceURL,
			Summary:   site.Summary,
			Files:     site.Files,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type chatRequest struct {
	Message     string                `json:"message"`
	Provider    string                `json:"provider"`
	PageContext *generate.PageContext `json:"pageContext"`
}

// Chat handles POST /api/ai/chat.
func (h *AI) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg := validateMessage(req.Message); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	answer, err := h.svc.Chat(r.Context(), req.Message, req.PageContext, strings.ToLower(req.Provider))
	if err != nil {
		writeServiceError(w, r, "answer", err)
		return
	}
	answer = strings.TrimSpace(answer)
	rendered, err := markdown.ToHTML(answer)
	if err != nil {
		slog.Warn("failed to render chat answer", "error", err)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"response":     answer,
		"responseHtml": rendered,
	})
}

// Status handles GET /api/ai/status.
func (h *AI) Status(w http.ResponseWriter, r *http.Request) {
	available := h.status.Available()
	if available == nil {
		available = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"providers": h.status.Status(),
		"available": available,
	})
}

// Themes handles GET /api/ai/themes.
func (h *AI) Themes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"default": theme.DefaultKey,
		"themes":  h.svc.Themes().All(),
	})
}

// save persists a generation. It returns the new project id, or a message
// when saving was not possible; the generated files are returned either way.
func (h *AI) save(ctx context.Context, g store.Generation) (id, saveErr string) {
	if h.projects == nil {
		return "", "project storage is not configured"
	}
	p, err := h.projects.SaveGeneration(ctx, g)
	if err != nil {
		slog.Error("failed to save project", "kind", g.Kind, "error", err)
		return "", "project could not be saved"
	}
	return p.ID.String(), ""
}
