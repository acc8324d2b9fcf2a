// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package scrape

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeSession scripts navigation and evaluation results.
type fakeSession struct {
	mu sync.Mutex

	navErrs    map[WaitMode]error
	navCalls   []WaitMode
	navURLs    []string
	page       any
	pageErr    error
	images     any
	imagesErr  error
	closeCalls int
}

func (s *fakeSession) Navigate(_ context.Context, url string, mode WaitMode, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.navCalls = append(s.navCalls, mode)
	s.navURLs = append(s.navURLs, url)
	return s.navErrs[mode]
}

func (s *fakeSession) Eval(_ context.Context, js string, out any) error {
	var v any
	var err error
	switch js {
	case analysisJS:
		v, err = s.page, s.pageErr
	case imagesJS:
		v, err = s.images, s.imagesErr
	default:
		return fmt.Errorf("unexpected script")
	}
	if err != nil {
		return err
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeCalls++
	return nil
}

type fakeBrowser struct {
	session *fakeSession
	openErr error
	opens   int
}

func (b *fakeBrowser) Open(context.Context) (Session, error) {
	b.opens++
	if b.openErr != nil {
		return nil, b.openErr
	}
	return b.session, nil
}

// fakeFetcher returns the URL as the body, failing for URLs in fail.
type fakeFetcher struct {
	mu    sync.Mutex
	fail  map[string]bool
	calls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.mu.Unlock()
	if f.fail[url] {
		return nil, errors.New("connection reset")
	}
	return []byte("bytes:" + url), nil
}

func samplePage() map[string]any {
	return map[string]any{
		"title":       "Acme",
		"description": "Widgets for everyone",
		"font":        "Inter, sans-serif",
		"colors": map[string]any{
			"background": "rgb(255, 255, 255)",
			"text":       "rgb(17, 17, 17)",
			"accents":    []string{"rgb(37, 99, 235)", "rgba(0, 0, 0, 0)"},
		},
		"structure": map[string]any{
			"nav":      "Home About",
			"hero":     "Build faster",
			"headings": []string{"Build faster", "Pricing"},
			"footer":   "(c) Acme",
		},
	}
}

func candidates(n int) []ImageCandidate {
	out := make([]ImageCandidate, n)
	for i := range out {
		out[i] = ImageCandidate{Src: fmt.Sprintf("https://cdn.example.com/img/%d.png", i+1), Width: 400, Height: 300}
	}
	return out
}

func testConfig() Config {
	return Config{SettleDelay: time.Millisecond, NavTimeout: time.Second}
}

func TestAnalyze_Success(t *testing.T) {
	sess := &fakeSession{page: samplePage(), images: candidates(2)}
	browser := &fakeBrowser{session: sess}
	a := NewAnalyzer(browser, &fakeFetcher{}, testConfig())

	got, err := a.Analyze(context.Background(), "https://example.com")
	require.NoError(t, err)

	require.Equal(t, "Acme", got.Title)
	require.Equal(t, "Widgets for everyone", got.Description)
	require.Equal(t, "Inter, sans-serif", got.Font)
	require.Equal(t, "rgb(255, 255, 255)", got.Colors.Background)
	require.Len(t, got.Colors.Accents, 2)
	require.Equal(t, []string{"Build faster", "Pricing"}, got.Structure.Headings)

	require.Len(t, got.Images, 2)
	require.Equal(t, "images/image-1.png", got.Images[0].Path)
	require.Equal(t, "image/png", got.Images[0].MimeType)
	require.Equal(t, "./images/image-2.png", got.Mapping["https://cdn.example.com/img/2.png"])
	require.Equal(t, []string{"./images/image-1.png", "./images/image-2.png"}, got.LocalRefs())

	files := got.ImageFiles()
	require.True(t, files["images/image-1.png"].Binary)

	require.Equal(t, []WaitMode{WaitNetworkIdle}, sess.navCalls)
	require.Equal(t, 1, sess.closeCalls)
}

func TestAnalyze_TrimsURL(t *testing.T) {
	sess := &fakeSession{page: samplePage()}
	a := NewAnalyzer(&fakeBrowser{session: sess}, &fakeFetcher{}, testConfig())

	got, err := a.Analyze(context.Background(), "  https://example.com/about \n")
	require.NoError(t, err)
	require.Equal(t, "https://example.com/about", got.URL)
	require.Equal(t, []string{"https://example.com/about"}, sess.navURLs)
}

func TestAnalyze_FallbackNavigation(t *testing.T) {
	sess := &fakeSession{
		navErrs: map[WaitMode]error{WaitNetworkIdle: errors.New("timeout")},
		page:    samplePage(),
		images:  []ImageCandidate{},
	}
	a := NewAnalyzer(&fakeBrowser{session: sess}, &fakeFetcher{}, testConfig())

	got, err := a.Analyze(context.Background(), "https://example.com")
	require.NoError(t, err)
	require.Equal(t, "Acme", got.Title)
	require.Empty(t, got.Images)
	require.Equal(t, []WaitMode{WaitNetworkIdle, WaitDOMContentLoaded}, sess.navCalls)
	require.Equal(t, 1, sess.closeCalls)
}

func TestAnalyze_PageLoadFailureClosesOnce(t *testing.T) {
	sess := &fakeSession{
		navErrs: map[WaitMode]error{
			WaitNetworkIdle:      errors.New("net::ERR_NAME_NOT_RESOLVED"),
			WaitDOMContentLoaded: errors.New("net::ERR_NAME_NOT_RESOLVED"),
		},
	}
	fetcher := &fakeFetcher{}
	a := NewAnalyzer(&fakeBrowser{session: sess}, fetcher, testConfig())

	got, err := a.Analyze(context.Background(), "https://does-not-exist.invalid")
	require.Nil(t, got)
	require.ErrorIs(t, err, ErrPageLoad)
	require.Contains(t, err.Error(), "ERR_NAME_NOT_RESOLVED")
	require.Equal(t, 1, sess.closeCalls)
	require.Empty(t, fetcher.calls)
}

func TestAnalyze_EvalFailureIsPageLoad(t *testing.T) {
	sess := &fakeSession{pageErr: errors.New("execution context destroyed")}
	a := NewAnalyzer(&fakeBrowser{session: sess}, &fakeFetcher{}, testConfig())

	_, err := a.Analyze(context.Background(), "https://example.com")
	require.ErrorIs(t, err, ErrPageLoad)
	require.Equal(t, 1, sess.closeCalls)
}

func TestAnalyze_ImageListingFailureIsNotFatal(t *testing.T) {
	sess := &fakeSession{page: samplePage(), imagesErr: errors.New("boom")}
	a := NewAnalyzer(&fakeBrowser{session: sess}, &fakeFetcher{}, testConfig())

	got, err := a.Analyze(context.Background(), "https://example.com")
	require.NoError(t, err)
	require.Empty(t, got.Images)
	require.Empty(t, got.Mapping)
}

func TestAnalyze_BrowserOpenFailure(t *testing.T) {
	browser := &fakeBrowser{openErr: errors.New("chromium not found")}
	a := NewAnalyzer(browser, &fakeFetcher{}, testConfig())

	_, err := a.Analyze(context.Background(), "https://example.com")
	require.ErrorIs(t, err, ErrPageLoad)
}

func TestAnalyze_InvalidURL(t *testing.T) {
	for _, u := range []string{"", "example.com", "ftp://example.com/x", "javascript:alert(1)", "https://"} {
		t.Run(u, func(t *testing.T) {
			browser := &fakeBrowser{session: &fakeSession{}}
			a := NewAnalyzer(browser, &fakeFetcher{}, testConfig())

			_, err := a.Analyze(context.Background(), u)
			require.ErrorIs(t, err, ErrInvalidURL)
			require.Zero(t, browser.opens, "browser must not be launched")
		})
	}
}

func TestAnalyze_ImageCap(t *testing.T) {
	sess := &fakeSession{page: samplePage(), images: candidates(15)}
	fetcher := &fakeFetcher{}
	a := NewAnalyzer(&fakeBrowser{session: sess}, fetcher, testConfig())

	got, err := a.Analyze(context.Background(), "https://example.com")
	require.NoError(t, err)
	require.Len(t, got.Images, 10)
	require.Len(t, fetcher.calls, 10)

	for i, img := range got.Images {
		require.Equal(t, fmt.Sprintf("images/image-%d.png", i+1), img.Path)
		require.Equal(t, fmt.Sprintf("https://cdn.example.com/img/%d.png", i+1), img.OriginalURL)
	}
}

func TestAnalyze_FetchFailureSkipped(t *testing.T) {
	imgs := candidates(3)
	sess := &fakeSession{page: samplePage(), images: imgs}
	fetcher := &fakeFetcher{fail: map[string]bool{imgs[1].Src: true}}
	a := NewAnalyzer(&fakeBrowser{session: sess}, fetcher, testConfig())

	got, err := a.Analyze(context.Background(), "https://example.com")
	require.NoError(t, err)
	require.Len(t, got.Images, 2)
	require.Equal(t, "images/image-1.png", got.Images[0].Path)
	require.Equal(t, "images/image-3.png", got.Images[1].Path)
	require.NotContains(t, got.Mapping, imgs[1].Src)
}

func TestAnalyze_NonQualifyingImagesDoNotCount(t *testing.T) {
	imgs := []ImageCandidate{
		{Src: "https://example.com/icon.png", Width: 16, Height: 16},
		{Src: "data:image/png;base64,AAAA", Width: 500, Height: 500},
		{Src: "https://www.facebook.com/tr?id=1", Width: 100, Height: 100},
		{Src: "https://example.com/hero.webp?v=2", Width: 1200, Height: 20},
	}
	sess := &fakeSession{page: samplePage(), images: imgs}
	a := NewAnalyzer(&fakeBrowser{session: sess}, &fakeFetcher{}, testConfig())

	got, err := a.Analyze(context.Background(), "https://example.com")
	require.NoError(t, err)
	require.Len(t, got.Images, 1)
	require.Equal(t, "images/image-1.webp", got.Images[0].Path)
	require.Equal(t, "image/webp", got.Images[0].MimeType)
}

func TestQualifies(t *testing.T) {
	tests := []struct {
		name string
		c    ImageCandidate
		want bool
	}{
		{"large https", ImageCandidate{Src: "https://a.com/x.jpg", Width: 300, Height: 200}, true},
		{"http", ImageCandidate{Src: "http://a.com/x.jpg", Width: 300, Height: 200}, true},
		{"wide but short", ImageCandidate{Src: "https://a.com/x.jpg", Width: 300, Height: 10}, true},
		{"tiny", ImageCandidate{Src: "https://a.com/x.jpg", Width: 49, Height: 49}, false},
		{"relative", ImageCandidate{Src: "/x.jpg", Width: 300, Height: 200}, false},
		{"empty", ImageCandidate{Width: 300, Height: 200}, false},
		{"analytics", ImageCandidate{Src: "https://www.google-analytics.com/collect", Width: 300, Height: 200}, false},
		{"pixel", ImageCandidate{Src: "https://a.com/pixel.gif", Width: 300, Height: 200}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Qualifies(tt.c))
		})
	}
}

func TestExtensionAndMime(t *testing.T) {
	tests := []struct {
		url, ext, mime string
	}{
		{"https://a.com/x.PNG", "png", "image/png"},
		{"https://a.com/x.jpeg?w=200", "jpeg", "image/jpeg"},
		{"https://a.com/x.jpg", "jpg", "image/jpeg"},
		{"https://a.com/logo.svg", "svg", "image/svg+xml"},
		{"https://a.com/x.gif", "gif", "image/gif"},
		{"https://a.com/image", "jpg", "image/jpeg"},
		{"https://a.com/x.php?id=3", "jpg", "image/jpeg"},
		{"https://a.com/a.b/c", "jpg", "image/jpeg"},
	}
	for _, tt := range tests {
		ext := ExtensionFor(tt.url)
		require.Equal(t, tt.ext, ext, tt.url)
		require.Equal(t, tt.mime, MimeFor(ext), tt.url)
	}
}

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.png":
			if r.Header.Get("User-Agent") != UserAgent {
				http.Error(w, "unexpected user agent", http.StatusBadRequest)
				return
			}
			w.Write([]byte("PNGDATA"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewHTTPFetcher(time.Second)

	body, err := f.Fetch(context.Background(), srv.URL+"/ok.png")
	require.NoError(t, err)
	require.Equal(t, "PNGDATA", string(body))

	_, err = f.Fetch(context.Background(), srv.URL+"/missing.png")
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "404"))
}
