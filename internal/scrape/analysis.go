// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package scrape analyzes a live web page in a headless browser and
// extracts its images for local reuse. One browser session is opened per
// analysis and always closed before Analyze returns.
package scrape

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"sitecraft/internal/parser"
	"sitecraft/internal/theme"
)

var (
	// ErrPageLoad means the target page could not be loaded or read.
	// No partial analysis is returned with it.
	ErrPageLoad = errors.New("scrape: page load failed")

	// ErrInvalidURL means the target is not an absolute http(s) URL.
	ErrInvalidURL = errors.New("scrape: invalid URL")
)

// Structure holds short text excerpts of the page's main regions.
type Structure struct {
	Nav      string   `json:"nav"`
	Hero     string   `json:"hero"`
	Headings []string `json:"headings"`
	Footer   string   `json:"footer"`
}

// Analysis is the result of analyzing one page.
type Analysis struct {
	URL         string               `json:"url"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Font        string               `json:"font"`
	Colors      theme.DetectedColors `json:"colors"`
	Structure   Structure            `json:"structure"`

	// Images are the fetched images in encounter order. A failed fetch
	// leaves no entry, so numbering may have gaps.
	Images []Image `json:"-"`

	// Mapping maps each fetched image's source URL to its local
	// reference, e.g. "./images/image-1.png".
	Mapping map[string]string `json:"-"`
}

// Image is one extracted image.
type Image struct {
	OriginalURL string
	Path        string // images/image-N.ext
	Content     []byte
	MimeType    string
}

// LocalRef is the path used in generated markup.
func (img Image) LocalRef() string { return "./" + img.Path }

// ImageFiles returns the images as binary files keyed by Path.
func (a *Analysis) ImageFiles() parser.FileSet {
	fs := make(parser.FileSet, len(a.Images))
	for _, img := range a.Images {
		fs[img.Path] = parser.BinaryFile(img.Content, img.MimeType)
	}
	return fs
}

// LocalRefs returns the local references of all images in order.
func (a *Analysis) LocalRefs() []string {
	refs := make([]string, 0, len(a.Images))
	for _, img := range a.Images {
		refs = append(refs, img.LocalRef())
	}
	return refs
}

// ImageCandidate is an <img> as reported by the page.
type ImageCandidate struct {
	Src    string  `json:"src"`
	Alt    string  `json:"alt"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// minImageSide filters icons and trackers: an image is dropped when both
// sides are below it.
const minImageSide = 50

var trackingMarkers = []string{"google-analytics", "facebook.com/tr", "pixel"}

// Qualifies reports whether a candidate should be extracted.
func Qualifies(c ImageCandidate) bool {
	if !strings.HasPrefix(c.Src, "http://") && !strings.HasPrefix(c.Src, "https://") {
		return false
	}
	if c.Width < minImageSide && c.Height < minImageSide {
		return false
	}
	for _, m := range trackingMarkers {
		if strings.Contains(c.Src, m) {
			return false
		}
	}
	return true
}

var knownExtensions = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "gif": true, "webp": true, "svg": true,
}

// ExtensionFor returns the image extension from a URL path, or "jpg" when
// the path has no recognised raster or vector extension.
func ExtensionFor(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "jpg"
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(u.Path), "."))
	if !knownExtensions[ext] {
		return "jpg"
	}
	return ext
}

// MimeFor returns the MIME type for an image extension.
func MimeFor(ext string) string {
	switch ext {
	case "svg":
		return "image/svg+xml"
	case "jpg":
		return "image/jpeg"
	default:
		return "image/" + ext
	}
}

// imagePath returns the deterministic local path of the n-th (1-based)
// qualifying image.
func imagePath(n int, src string) string {
	return fmt.Sprintf("images/image-%d.%s", n, ExtensionFor(src))
}

func validateURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	return nil
}
