// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"sitecraft/internal/config"
	"sitecraft/internal/database"
	"sitecraft/internal/parser"
	"sitecraft/internal/storage"
	"sitecraft/internal/store"
	"sitecraft/internal/theme"
)

var themesCmd = &cobra.Command{
	Use:   "themes",
	Short: "List the available color themes",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		themes, err := theme.LoadFile(cfg.ThemesFile)
		if err != nil {
			return fmt.Errorf("load themes: %w", err)
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "KEY\tNAME\tPRIMARY\tDESCRIPTION")
		for _, d := range themes.All() {
			key := d.Key
			if key == theme.DefaultKey {
				key += " *"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", key, d.Name, d.Colors.Primary, d.Description)
		}
		return tw.Flush()
	},
}

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Show AI provider configuration and the fallback order",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		registry := buildRegistry(cfg)

		w := cmd.OutOrStdout()
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "PROVIDER\tCONFIGURED\tMODEL")
		for _, s := range registry.Status() {
			fmt.Fprintf(tw, "%s\t%t\t%s\n", s.Name, s.Configured, s.Model)
		}
		if err := tw.Flush(); err != nil {
			return err
		}

		var order []string
		for _, p := range registry.Order(cfg.AIProvider) {
			order = append(order, p.Name())
		}
		if len(order) == 0 {
			fmt.Fprintln(w, "\nNo providers configured. Set at least one <PROVIDER>_API_KEY.")
			return nil
		}
		fmt.Fprintf(w, "\nTry order (preferred %s): %s\n", cfg.AIProvider, strings.Join(order, " -> "))
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		db, err := database.Connect(cfg.DSN())
		if err != nil {
			return err
		}
		defer db.Close()

		if err := database.Migrate(db); err != nil {
			return err
		}
		v, err := database.Version(db)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Schema at version %d\n", v)
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <project-id>",
	Short: "Write a saved project to a directory",
	Long: `Write a saved project's files to a directory, downloading images kept
in object storage.

Example:
  sitecraft export 6b0f9f5e-3c55-4a55-9a8e-8f0e5d3f2a11 --out ./bakery`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid project id %q", args[0])
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		return err
	}
	defer db.Close()

	assets, err := storage.New(cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3BucketPublic, cfg.S3PublicURL)
	if err != nil {
		return fmt.Errorf("initialize s3 storage: %w", err)
	}

	project, err := store.NewProjectStore(db, nil).FindByID(cmd.Context(), id)
	if err != nil {
		return err
	}
	if project == nil {
		return fmt.Errorf("project %s not found", id)
	}

	files := make(parser.FileSet, len(project.Files))
	for _, f := range project.Files {
		switch {
		case f.S3Key != "":
			if assets == nil {
				return fmt.Errorf("%s is in object storage but S3 is not configured", f.Filename)
			}
			data, err := assets.Get(cmd.Context(), f.S3Key)
			if err != nil {
				return err
			}
			files[f.Filename] = parser.BinaryFile(data, f.FileType)
		default:
			if bin, ok := parser.FromDataURI(f.Content); ok {
				files[f.Filename] = bin
			} else {
				files[f.Filename] = parser.TextFile(f.Content)
			}
		}
	}

	if err := writeFiles(outDir, files); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %q (%s): %d files to %s\n", project.Name, project.Slug, len(files), outDir)
	return nil
}

var grantDays int

var grantCmd = &cobra.Command{
	Use:   "grant <user-id> <tokens>",
	Short: "Add generation tokens to a user's subscription",
	Long: `Add generation tokens to a user's active subscription, opening a new
one when the user has none.

Example:
  sitecraft grant user-42 500 --days 30`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		tokens, err := strconv.Atoi(args[1])
		if err != nil || tokens <= 0 {
			return fmt.Errorf("tokens must be a positive integer, got %q", args[1])
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		db, err := database.Connect(cfg.DSN())
		if err != nil {
			return err
		}
		defer db.Close()
		if err := database.Migrate(db); err != nil {
			return err
		}

		ledger := store.NewLedger(db)
		valid := time.Duration(grantDays) * 24 * time.Hour
		if err := ledger.Grant(cmd.Context(), args[0], tokens, valid); err != nil {
			return err
		}
		balance, err := ledger.Balance(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Granted %d tokens to %s, balance %d\n", tokens, args[0], balance)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&outDir, "out", "o", "site", "output directory")
	grantCmd.Flags().IntVar(&grantDays, "days", 0, "subscription validity in days for a new subscription (0 = no expiry)")
}
