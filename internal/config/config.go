// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package config handles application configuration loading from environment
// variables. It provides a centralized Config struct used across the application.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"sitecraft/internal/ai"
)

// providerEnvPrefixes maps each provider to its environment variable prefix.
var providerEnvPrefixes = map[string]string{
	ai.Gemini:     "GEMINI",
	ai.Groq:       "GROQ",
	ai.OpenAI:     "OPENAI",
	ai.OpenRouter: "OPENROUTER",
	ai.Perplexity: "PERPLEXITY",
}

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host string
	Port string
	Env  string // "development", "production", "testing"

	// PostgreSQL connection
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Valkey (Redis-compatible cache)
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string

	// S3-compatible object storage for generated binary assets
	S3Endpoint     string
	S3Region       string
	S3AccessKey    string
	S3SecretKey    string
	S3BucketPublic string
	S3PublicURL    string

	// AI provider settings. Providers holds one entry per known provider;
	// an empty Model or BaseURL means the adapter's default.
	AIProvider      string
	ChatProvider    string
	AIStrict        bool
	Providers       map[string]ai.ProviderConfig
	GenerateCost    int
	AnalyzeCost     int
	RateLimitPerMin int

	// Headless browser used for page analysis
	BrowserBin        string
	BrowserHeadless   bool
	BrowserNavTimeout time.Duration

	// Optional YAML file with extra themes
	ThemesFile string
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. Returns an error if critical values
// are missing in production mode or a numeric value does not parse.
func Load() (*Config, error) {
	cfg := &Config{
		Host: envOrDefault("APP_HOST", "0.0.0.0"),
		Port: envOrDefault("APP_PORT", "8080"),
		Env:  envOrDefault("APP_ENV", "development"),

		DBHost:     envOrDefault("POSTGRES_HOST", "localhost"),
		DBPort:     envOrDefault("POSTGRES_PORT", "5432"),
		DBUser:     envOrDefault("POSTGRES_USER", "sitecraft"),
		DBPassword: envOrDefault("POSTGRES_PASSWORD", "changeme"),
		DBName:     envOrDefault("POSTGRES_DB", "sitecraft"),

		ValkeyHost:     envOrDefault("VALKEY_HOST", "localhost"),
		ValkeyPort:     envOrDefault("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),

		S3Endpoint:     os.Getenv("S3_ENDPOINT"),
		S3Region:       envOrDefault("S3_REGION", "fsn1"),
		S3AccessKey:    os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:    os.Getenv("S3_SECRET_KEY"),
		S3BucketPublic: envOrDefault("S3_BUCKET_PUBLIC", "sitecraft-public"),
		S3PublicURL:    os.Getenv("S3_PUBLIC_URL"),

		AIProvider:   strings.ToLower(envOrDefault("AI_PROVIDER", ai.Gemini)),
		ChatProvider: strings.ToLower(envOrDefault("AI_CHAT_PROVIDER", ai.OpenRouter)),
		Providers:    make(map[string]ai.ProviderConfig, len(providerEnvPrefixes)),

		BrowserBin: os.Getenv("BROWSER_BIN"),
		ThemesFile: os.Getenv("THEMES_FILE"),
	}

	for name, prefix := range providerEnvPrefixes {
		cfg.Providers[name] = ai.ProviderConfig{
			APIKey:  os.Getenv(prefix + "_API_KEY"),
			Model:   os.Getenv(prefix + "_MODEL"),
			BaseURL: os.Getenv(prefix + "_BASE_URL"),
		}
	}

	var err error
	if cfg.AIStrict, err = envBool("AI_STRICT_FALLBACK", false); err != nil {
		return nil, err
	}
	if cfg.BrowserHeadless, err = envBool("BROWSER_HEADLESS", true); err != nil {
		return nil, err
	}
	if cfg.BrowserNavTimeout, err = envDuration("BROWSER_NAV_TIMEOUT", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.GenerateCost, err = envInt("AI_TOKEN_COST_GENERATE", 10); err != nil {
		return nil, err
	}
	if cfg.AnalyzeCost, err = envInt("AI_TOKEN_COST_ANALYZE", 25); err != nil {
		return nil, err
	}
	if cfg.RateLimitPerMin, err = envInt("RATE_LIMIT_PER_MINUTE", 20); err != nil {
		return nil, err
	}

	if cfg.Env == "production" {
		if cfg.DBPassword == "changeme" {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
	}

	return cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// ValkeyAddr returns the Valkey address (host:port).
func (c *Config) ValkeyAddr() string {
	return fmt.Sprintf("%s:%s", c.ValkeyHost, c.ValkeyPort)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// StorageEnabled reports whether S3 credentials are present.
func (c *Config) StorageEnabled() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", key, v)
	}
	return n, nil
}

func envBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean, got %q", key, v)
	}
	return b, nil
}

// envDuration accepts Go durations ("45s") or plain seconds ("45").
func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", key, v)
	}
	return d, nil
}
