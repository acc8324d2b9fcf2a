// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package scrape

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
)

// Browser identity used for every analysis.
const (
	UserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	AcceptLanguage = "en-US,en;q=0.9"
	viewportWidth  = 1280
	viewportHeight = 800
	bodyWait       = 15 * time.Second
)

// RodBrowser launches a local Chromium through go-rod. Each Open starts a
// fresh browser process that the returned session owns.
type RodBrowser struct {
	// Bin is the browser binary. Empty lets the launcher find or download one.
	Bin      string
	Headless bool
}

// Open launches a browser, connects to it and opens a blank page with the
// analysis viewport and user agent.
func (b *RodBrowser) Open(ctx context.Context) (Session, error) {
	l := launcher.New().Context(ctx).Headless(b.Headless).Set(flags.NoSandbox)
	if b.Bin != "" {
		l = l.Bin(b.Bin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect to browser: %w", err)
	}

	s := &rodSession{launcher: l, browser: browser}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("create page: %w", err)
	}
	s.page = page

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             viewportWidth,
		Height:            viewportHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("set viewport: %w", err)
	}

	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      UserAgent,
		AcceptLanguage: AcceptLanguage,
	}); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("set user agent: %w", err)
	}

	return s, nil
}

// rodSession is a launched browser with a single page.
type rodSession struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page

	closeOnce sync.Once
	closeErr  error
}

// Navigate loads url and waits for the lifecycle event matching mode.
// The wait is bounded by timeout; running out of time is an error.
func (s *rodSession) Navigate(ctx context.Context, url string, mode WaitMode, timeout time.Duration) error {
	navCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	page := s.page.Context(navCtx)

	event := proto.PageLifecycleEventNameNetworkAlmostIdle
	if mode == WaitDOMContentLoaded {
		event = proto.PageLifecycleEventNameDOMContentLoaded
	}

	wait := page.WaitNavigation(event)
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("navigate (%s): %w", mode, err)
	}
	wait()
	if err := navCtx.Err(); err != nil {
		return fmt.Errorf("navigate (%s): %w", mode, err)
	}

	if mode == WaitDOMContentLoaded {
		// A missing body is tolerated; the settle delay follows.
		_, _ = s.page.Context(ctx).Timeout(bodyWait).Element("body")
	}
	return nil
}

// Eval runs a JS function in the page and decodes its return value into out.
func (s *rodSession) Eval(ctx context.Context, js string, out any) error {
	res, err := s.page.Context(ctx).Evaluate(&rod.EvalOptions{
		JS:           js,
		ByValue:      true,
		AwaitPromise: true,
	})
	if err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}
	if res == nil {
		return errors.New("evaluate: no result")
	}

	raw, err := res.Value.MarshalJSON()
	if err != nil {
		return fmt.Errorf("evaluate result: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode evaluate result: %w", err)
	}
	return nil
}

// Close closes the page and browser and kills the browser process.
// Later calls return the first call's result.
func (s *rodSession) Close() error {
	s.closeOnce.Do(func() {
		var errs []error
		if s.page != nil {
			if err := s.page.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close page: %w", err))
			}
		}
		if err := s.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
		s.launcher.Kill()
		s.launcher.Cleanup()
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}
