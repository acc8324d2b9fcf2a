// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"sitecraft/internal/theme"
)

// WaitMode selects when a navigation counts as complete.
type WaitMode int

const (
	// WaitNetworkIdle waits until the page's network is almost idle.
	WaitNetworkIdle WaitMode = iota
	// WaitDOMContentLoaded waits for DOMContentLoaded and a <body>.
	WaitDOMContentLoaded
)

func (m WaitMode) String() string {
	if m == WaitNetworkIdle {
		return "network-idle"
	}
	return "dom-content-loaded"
}

// Browser opens headless browser sessions.
type Browser interface {
	Open(ctx context.Context) (Session, error)
}

// Session is one browser with one page. Close releases both and must be
// called exactly once.
type Session interface {
	Navigate(ctx context.Context, url string, mode WaitMode, timeout time.Duration) error
	Eval(ctx context.Context, js string, out any) error
	Close() error
}

// Config tunes an Analyzer. Zero fields take the defaults below.
type Config struct {
	NavTimeout       time.Duration // per navigation attempt, default 60s
	SettleDelay      time.Duration // after a DOM-content-loaded fallback, default 2s
	MaxImages        int           // default 10
	FetchConcurrency int           // default 4
}

func (c Config) withDefaults() Config {
	if c.NavTimeout <= 0 {
		c.NavTimeout = 60 * time.Second
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = 2 * time.Second
	}
	if c.MaxImages <= 0 {
		c.MaxImages = 10
	}
	if c.FetchConcurrency <= 0 {
		c.FetchConcurrency = 4
	}
	return c
}

// ImageFetcher downloads one image.
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Analyzer runs page analyses. It holds no per-request state and is safe
// for concurrent use; each call opens its own browser session.
type Analyzer struct {
	browser Browser
	fetcher ImageFetcher
	cfg     Config
}

// NewAnalyzer creates an analyzer. Images are fetched with fetcher, never
// through the browser page.
func NewAnalyzer(browser Browser, fetcher ImageFetcher, cfg Config) *Analyzer {
	return &Analyzer{browser: browser, fetcher: fetcher, cfg: cfg.withDefaults()}
}

// pageData mirrors the object returned by analysisJS.
type pageData struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Font        string               `json:"font"`
	Colors      theme.DetectedColors `json:"colors"`
	Structure   Structure            `json:"structure"`
}

// Analyze loads targetURL, reads its design signals and extracts up to
// MaxImages qualifying images. Any failure before the page is read returns
// an error wrapping ErrPageLoad.
func (a *Analyzer) Analyze(ctx context.Context, targetURL string) (*Analysis, error) {
	targetURL = strings.TrimSpace(targetURL)
	if err := validateURL(targetURL); err != nil {
		return nil, err
	}

	sess, err := a.browser.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: open browser: %w", ErrPageLoad, err)
	}
	defer func() {
		if err := sess.Close(); err != nil {
			slog.Warn("browser close failed", "url", targetURL, "error", err)
		}
	}()

	if err := a.load(ctx, sess, targetURL); err != nil {
		return nil, err
	}

	var data pageData
	if err := sess.Eval(ctx, analysisJS, &data); err != nil {
		return nil, fmt.Errorf("%w: read page: %w", ErrPageLoad, err)
	}

	var candidates []ImageCandidate
	if err := sess.Eval(ctx, imagesJS, &candidates); err != nil {
		slog.Warn("image listing failed", "url", targetURL, "error", err)
		candidates = nil
	}

	analysis := &Analysis{
		URL:         targetURL,
		Title:       data.Title,
		Description: data.Description,
		Font:        data.Font,
		Colors:      data.Colors,
		Structure:   data.Structure,
	}
	analysis.Images, analysis.Mapping = a.extractImages(ctx, a.selectImages(candidates))

	slog.Info("page analyzed",
		"url", targetURL,
		"title", analysis.Title,
		"candidates", len(candidates),
		"images", len(analysis.Images),
	)
	return analysis, nil
}

// load navigates with the network-idle wait and falls back to
// DOM-content-loaded plus a settle delay.
func (a *Analyzer) load(ctx context.Context, sess Session, targetURL string) error {
	err := sess.Navigate(ctx, targetURL, WaitNetworkIdle, a.cfg.NavTimeout)
	if err == nil {
		return nil
	}
	slog.Warn("primary navigation failed, retrying",
		"url", targetURL, "mode", WaitNetworkIdle.String(), "error", err)

	if err := sess.Navigate(ctx, targetURL, WaitDOMContentLoaded, a.cfg.NavTimeout); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPageLoad, targetURL, err)
	}

	select {
	case <-time.After(a.cfg.SettleDelay):
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrPageLoad, ctx.Err())
	}
}

// selectImages keeps qualifying candidates in encounter order, up to the cap.
func (a *Analyzer) selectImages(candidates []ImageCandidate) []ImageCandidate {
	var out []ImageCandidate
	for _, c := range candidates {
		if len(out) == a.cfg.MaxImages {
			break
		}
		if Qualifies(c) {
			out = append(out, c)
		}
	}
	return out
}

// extractImages fetches the selected images with bounded parallelism.
// Names are assigned by position before fetching, so the result is the same
// regardless of completion order. Failed fetches are logged and skipped.
func (a *Analyzer) extractImages(ctx context.Context, selected []ImageCandidate) ([]Image, map[string]string) {
	slots := make([]*Image, len(selected))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.FetchConcurrency)
	for i, c := range selected {
		g.Go(func() error {
			body, err := a.fetcher.Fetch(gctx, c.Src)
			if err != nil {
				slog.Warn("image fetch failed", "src", c.Src, "error", err)
				return nil
			}
			ext := ExtensionFor(c.Src)
			slots[i] = &Image{
				OriginalURL: c.Src,
				Path:        imagePath(i+1, c.Src),
				Content:     body,
				MimeType:    MimeFor(ext),
			}
			return nil
		})
	}
	_ = g.Wait()

	images := make([]Image, 0, len(slots))
	mapping := make(map[string]string, len(slots))
	for _, img := range slots {
		if img == nil {
			continue
		}
		images = append(images, *img)
		mapping[img.OriginalURL] = img.LocalRef()
	}
	return images, mapping
}
