// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package main is the entry point for Sitecraft. It runs the API server and
// offers one-shot generation and maintenance commands.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var debugLogs bool

var rootCmd = &cobra.Command{
	Use:   "sitecraft",
	Short: "AI website generation service",
	Long: `Sitecraft turns a description or an existing web page into a small
multi-file website (index.html, style.css, script.js) using a set of
interchangeable AI providers with automatic fallback.

Quick Start:
  sitecraft serve                       Start the HTTP API
  sitecraft generate "a bakery site"    Generate a site into ./site
  sitecraft analyze https://example.com Recreate a page into ./site
  sitecraft providers                   Show configured providers`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogger()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugLogs, "debug", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(themesCmd)
	rootCmd.AddCommand(providersCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(grantCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// setupLogger installs the default structured logger. Logs go to stderr so
// command output on stdout stays clean.
func setupLogger() {
	level := slog.LevelInfo
	if debugLogs {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}
