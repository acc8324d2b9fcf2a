// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"sitecraft/internal/config"
	"sitecraft/internal/generate"
	"sitecraft/internal/parser"
)

var (
	outDir       string
	projectName  string
	themeKey     string
	providerName string
)

var generateCmd = &cobra.Command{
	Use:   "generate <description>",
	Short: "Generate a website from a description",
	Long: `Generate a three-file website from a description and write it to a
directory.

Example:
  sitecraft generate --theme light-blue --out ./bakery "a landing page for a bakery"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGenerate,
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <url>",
	Short: "Recreate a live web page as a new website",
	Long: `Load a page in a headless browser, extract its colors, layout and images,
and generate a similar website that uses the extracted images.

Example:
  sitecraft analyze --out ./copy https://example.com`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	for _, c := range []*cobra.Command{generateCmd, analyzeCmd} {
		c.Flags().StringVarP(&outDir, "out", "o", "site", "output directory")
		c.Flags().StringVar(&themeKey, "theme", "", "color theme key (see 'sitecraft themes')")
		c.Flags().StringVar(&providerName, "provider", "", "preferred AI provider")
	}
	generateCmd.Flags().StringVar(&projectName, "name", "", "project name")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	svc, err := buildService(cfg, buildRegistry(cfg), nil, nil)
	if err != nil {
		return err
	}

	project, err := svc.GenerateProject(cmd.Context(), generate.Request{
		Prompt:      strings.Join(args, " "),
		ProjectName: projectName,
		ThemeKey:    themeKey,
		Provider:    strings.ToLower(providerName),
	})
	if err != nil {
		return err
	}

	if err := writeFiles(outDir, project.Files); err != nil {
		return err
	}
	printResult(cmd.OutOrStdout(), project.Summary, project.ThemeKey, project.Files)
	return nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	svc, err := buildService(cfg, buildRegistry(cfg), buildAnalyzer(cfg), nil)
	if err != nil {
		return err
	}

	site, err := svc.AnalyzeURL(cmd.Context(), generate.Request{
		TargetURL: args[0],
		ThemeKey:  themeKey,
		Provider:  strings.ToLower(providerName),
	})
	if err != nil {
		return err
	}

	if err := writeFiles(outDir, site.Files); err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Source:   %s (%q)\n", site.SourceURL, site.OriginalTitle)
	fmt.Fprintf(w, "Images:   %d extracted\n", site.ImageCount)
	if !site.DetectedColors {
		fmt.Fprintln(w, "Colors:   not detected, theme palette used")
	}
	printResult(w, site.Summary, site.ThemeKey, site.Files)
	return nil
}

// writeFiles writes a file set below dir. Names must stay inside dir.
func writeFiles(dir string, files parser.FileSet) error {
	for _, name := range files.Names() {
		rel := filepath.FromSlash(name)
		if !filepath.IsLocal(rel) {
			return fmt.Errorf("refusing to write %q outside %s", name, dir)
		}
		path := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create directory for %s: %w", name, err)
		}
		if err := os.WriteFile(path, files[name].Content, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}

func printResult(w io.Writer, summary, theme string, files parser.FileSet) {
	fmt.Fprintf(w, "Summary:  %s\n", summary)
	fmt.Fprintf(w, "Theme:    %s\n", theme)
	fmt.Fprintf(w, "Written:  %d files to %s\n", len(files), outDir)
	for _, name := range files.Names() {
		fmt.Fprintf(w, "  %s (%d bytes)\n", name, len(files[name].Content))
	}
}
