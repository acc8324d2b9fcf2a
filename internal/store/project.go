// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"sitecraft/internal/parser"
	"sitecraft/internal/slug"
	"sitecraft/internal/storage"
)

// AssetStore holds binary project files. *storage.Client implements it.
type AssetStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	Delete(ctx context.Context, key string) error
	FileURL(key string) string
}

// Generation is a generated file set to persist with its provenance.
type Generation struct {
	Name      string
	ThemeKey  string
	SourceURL string // set for URL analyses
	UserID    string
	Kind      string
	Prompt    string
	Summary   string
	Files     parser.FileSet
}

// Project is a saved project.
type Project struct {
	ID        uuid.UUID
	Slug      string
	Name      string
	ThemeKey  string
	SourceURL string
	UserID    string
	Status    string
	CreatedAt time.Time
	Files     []ProjectFile
}

// ProjectFile is one stored file. Text files carry Content; binary files
// stored in object storage carry S3Key and URL.
type ProjectFile struct {
	Filename  string
	FileType  string
	Content   string
	S3Key     string
	URL       string
	SizeBytes int64
}

// HistoryEntry is one generation_history row.
type HistoryEntry struct {
	ID        uuid.UUID
	Kind      string
	Prompt    string
	Summary   string
	FileCount int
	CreatedAt time.Time
}

// ProjectStore handles project persistence.
type ProjectStore struct {
	db     *sql.DB
	assets AssetStore
}

// NewProjectStore creates a ProjectStore. assets may be nil; binary files
// are then stored inline as data URIs.
func NewProjectStore(db *sql.DB, assets AssetStore) *ProjectStore {
	return &ProjectStore{db: db, assets: assets}
}

// SaveGeneration stores a generated file set as a new project and records
// a history row. Binary files are uploaded before the transaction starts
// and removed again if it fails.
func (s *ProjectStore) SaveGeneration(ctx context.Context, g Generation) (*Project, error) {
	if len(g.Files) == 0 {
		return nil, fmt.Errorf("save generation: empty file set")
	}
	name := g.Name
	if name == "" {
		name = "Untitled Project"
	}
	p := &Project{
		Slug:      slug.Project(name),
		Name:      name,
		ThemeKey:  g.ThemeKey,
		SourceURL: g.SourceURL,
		UserID:    g.UserID,
		Status:    "draft",
	}

	files, uploaded, err := s.prepareFiles(ctx, p.Slug, g.Files)
	if err != nil {
		s.removeAssets(uploaded)
		return nil, err
	}

	if err := s.insert(ctx, p, files, g); err != nil {
		s.removeAssets(uploaded)
		return nil, err
	}
	p.Files = files

	slog.Info("project saved", "project_id", p.ID, "slug", p.Slug, "files", len(files), "assets", len(uploaded))
	return p, nil
}

// prepareFiles turns a file set into rows, uploading binary files.
// It returns the keys uploaded so far even on error.
func (s *ProjectStore) prepareFiles(ctx context.Context, projectSlug string, fs parser.FileSet) ([]ProjectFile, []string, error) {
	var uploaded []string
	files := make([]ProjectFile, 0, len(fs))
	for _, name := range fs.Names() {
		f := fs[name]
		pf := ProjectFile{
			Filename:  name,
			FileType:  parser.ContentType(name),
			SizeBytes: int64(len(f.Content)),
		}
		switch {
		case !f.Binary:
			pf.Content = f.String()
		case s.assets == nil:
			pf.FileType = f.MimeType
			pf.Content = f.DataURI()
		default:
			pf.FileType = f.MimeType
			pf.S3Key = storage.ObjectKey(projectSlug, name)
			if err := s.assets.Put(ctx, pf.S3Key, f.MimeType, f.Content); err != nil {
				return nil, uploaded, fmt.Errorf("upload %s: %w", name, err)
			}
			uploaded = append(uploaded, pf.S3Key)
			pf.URL = s.assets.FileURL(pf.S3Key)
		}
		files = append(files, pf)
	}
	return files, uploaded, nil
}

func (s *ProjectStore) insert(ctx context.Context, p *Project, files []ProjectFile, g Generation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO projects (slug, name, theme_key, source_url, user_id, status)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6)
		RETURNING id, created_at
	`, p.Slug, p.Name, p.ThemeKey, p.SourceURL, p.UserID, p.Status).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}

	for _, f := range files {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO project_files (project_id, filename, file_type, content, s3_key, size_bytes)
			VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6)
		`, p.ID, f.Filename, f.FileType, f.Content, f.S3Key, f.SizeBytes)
		if err != nil {
			return fmt.Errorf("insert file %s: %w", f.Filename, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO generation_history (id, project_id, kind, prompt, summary, file_count, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''))
	`, uuid.New(), p.ID, g.Kind, g.Prompt, g.Summary, len(files), g.UserID)
	if err != nil {
		return fmt.Errorf("insert history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit project: %w", err)
	}
	return nil
}

// removeAssets deletes uploaded objects after a failed save. Best-effort.
func (s *ProjectStore) removeAssets(keys []string) {
	if len(keys) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for _, key := range keys {
		if err := s.assets.Delete(ctx, key); err != nil {
			slog.Warn("failed to remove orphaned asset", "key", key, "error", err)
		}
	}
}

// FindByID returns a project with its files, or (nil, nil) if not found.
func (s *ProjectStore) FindByID(ctx context.Context, id uuid.UUID) (*Project, error) {
	var (
		p         Project
		sourceURL sql.NullString
		userID    sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, slug, name, theme_key, source_url, user_id, status, created_at
		FROM projects WHERE id = $1
	`, id).Scan(&p.ID, &p.Slug, &p.Name, &p.ThemeKey, &sourceURL, &userID, &p.Status, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find project by id: %w", err)
	}
	p.SourceURL = sourceURL.String
	p.UserID = userID.String

	rows, err := s.db.QueryContext(ctx, `
		SELECT filename, file_type, content, s3_key, size_bytes
		FROM project_files WHERE project_id = $1
		ORDER BY filename
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query project files: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			f       ProjectFile
			content sql.NullString
			key     sql.NullString
		)
		if err := rows.Scan(&f.Filename, &f.FileType, &content, &key, &f.SizeBytes); err != nil {
			return nil, fmt.Errorf("scan project file: %w", err)
		}
		f.Content = content.String
		f.S3Key = key.String
		if f.S3Key != "" && s.assets != nil {
			f.URL = s.assets.FileURL(f.S3Key)
		}
		p.Files = append(p.Files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate project files: %w", err)
	}
	return &p, nil
}

// History returns the most recent generations of a project.
func (s *ProjectStore) History(ctx context.Context, projectID uuid.UUID, limit int) ([]HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, prompt, summary, file_count, created_at
		FROM generation_history
		WHERE project_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.ID, &e.Kind, &e.Prompt, &e.Summary, &e.FileCount, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
