// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"fmt"
	"log/slog"
	"time"

	"sitecraft/internal/ai"
	"sitecraft/internal/config"
	"sitecraft/internal/generate"
	"sitecraft/internal/scrape"
	"sitecraft/internal/theme"
)

// imageFetchTimeout bounds each extracted image download.
const imageFetchTimeout = 15 * time.Second

// buildRegistry creates the provider registry from configuration.
func buildRegistry(cfg *config.Config) *ai.Registry {
	registry := ai.NewRegistry(cfg.Providers)
	registry.SetStrict(cfg.AIStrict)

	slog.Info("ai providers initialized",
		"preferred", cfg.AIProvider,
		"available", registry.Available(),
		"strict", cfg.AIStrict,
	)
	return registry
}

// buildAnalyzer creates the page analyzer backed by a local headless browser.
func buildAnalyzer(cfg *config.Config) *scrape.Analyzer {
	browser := &scrape.RodBrowser{Bin: cfg.BrowserBin, Headless: cfg.BrowserHeadless}
	return scrape.NewAnalyzer(browser, scrape.NewHTTPFetcher(imageFetchTimeout), scrape.Config{
		NavTimeout: cfg.BrowserNavTimeout,
	})
}

// buildService loads the theme table and creates the generation service.
// ledger may be nil to disable billing.
func buildService(cfg *config.Config, registry *ai.Registry, analyzer generate.PageAnalyzer, ledger generate.Ledger) (*generate.Service, error) {
	themes, err := theme.LoadFile(cfg.ThemesFile)
	if err != nil {
		return nil, fmt.Errorf("load themes: %w", err)
	}
	return generate.NewService(registry, themes, analyzer, ledger, generate.Config{
		DefaultProvider: cfg.AIProvider,
		ChatProvider:    cfg.ChatProvider,
		GenerateCost:    cfg.GenerateCost,
		AnalyzeCost:     cfg.AnalyzeCost,
	}), nil
}
