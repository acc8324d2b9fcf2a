// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"sitecraft/internal/store"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// Projects serves saved projects.
type Projects struct {
	store ProjectStore
}

// NewProjects creates the project handlers.
func NewProjects(s ProjectStore) *Projects {
	return &Projects{store: s}
}

type projectView struct {
	ID        string     `json:"id"`
	Slug      string     `json:"slug"`
	Name      string     `json:"name"`
	Theme     string     `json:"theme"`
	SourceURL string     `json:"sourceUrl,omitempty"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
	Files     []fileView `json:"files"`
}

type fileView struct {
	Filename string `json:"filename"`
	FileType string `json:"fileType"`
	Content  string `json:"content,omitempty"`
	URL      string `json:"url,omitempty"`
	Size     int64  `json:"size"`
}

type historyView struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Prompt    string    `json:"prompt"`
	Summary   string    `json:"summary"`
	FileCount int       `json:"fileCount"`
	CreatedAt time.Time `json:"createdAt"`
}

func newProjectView(p *store.Project) projectView {
	v := projectView{
		ID:        p.ID.String(),
		Slug:      p.Slug,
		Name:      p.Name,
		Theme:     p.ThemeKey,
		SourceURL: p.SourceURL,
		Status:    p.Status,
		CreatedAt: p.CreatedAt,
		Files:     make([]fileView, 0, len(p.Files)),
	}
	for _, f := range p.Files {
		v.Files = append(v.Files, fileView{
			Filename: f.Filename,
			FileType: f.FileType,
			Content:  f.Content,
			URL:      f.URL,
			Size:     f.SizeBytes,
		})
	}
	return v
}

// projectID parses the {id} URL parameter, writing a 400 on failure.
func projectID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid project ID")
		return uuid.Nil, false
	}
	return id, true
}

// Get handles GET /api/projects/{id}.
func (h *Projects) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := projectID(w, r)
	if !ok {
		return
	}

	p, err := h.store.FindByID(r.Context(), id)
	if err != nil {
		slog.Error("failed to load project", "project_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load project")
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "Project not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "project": newProjectView(p)})
}

// History handles GET /api/projects/{id}/history?limit=N.
func (h *Projects) History(w http.ResponseWriter, r *http.Request) {
	id, ok := projectID(w, r)
	if !ok {
		return
	}

	limit := defaultHistoryLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	entries, err := h.store.History(r.Context(), id, limit)
	if err != nil {
		slog.Error("failed to load project history", "project_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load history")
		return
	}

	views := make([]historyView, 0, len(entries))
	for _, e := range entries {
		views = append(views, historyView{
			ID:        e.ID.String(),
			Kind:      e.Kind,
			Prompt:    e.Prompt,
			Summary:   e.Summary,
			FileCount: e.FileCount,
			CreatedAt: e.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "history": views})
}
