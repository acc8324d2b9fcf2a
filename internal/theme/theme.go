// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package theme resolves the color palette a generated site is styled with.
// A Table holds the named themes; lookups never fail, unknown keys resolve
// to the default theme, and every palette handed out contains only colors
// that pass IsValidColor.
package theme

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultKey is the theme used for empty or unknown keys.
const DefaultKey = "dark-blue-purple"

// Palette is the set of colors embedded in generation prompts.
type Palette struct {
	Background string `yaml:"background" json:"background"`
	Surface    string `yaml:"surface" json:"surface"`
	Primary    string `yaml:"primary" json:"primary"`
	Secondary  string `yaml:"secondary" json:"secondary"`
	Accent     string `yaml:"accent" json:"accent"`
	Text       string `yaml:"text" json:"text"`
	TextMuted  string `yaml:"textMuted" json:"textMuted"`
	Gradient   string `yaml:"gradient" json:"gradient"`
}

// Definition is a named theme.
type Definition struct {
	Key         string  `yaml:"key" json:"key"`
	Name        string  `yaml:"name" json:"name"`
	Description string  `yaml:"description" json:"description"`
	Colors      Palette `yaml:"colors" json:"colors"`
}

// LinearGradient returns the 135deg two-stop gradient used by every theme.
func LinearGradient(from, to string) string {
	return fmt.Sprintf("linear-gradient(135deg, %s, %s)", from, to)
}

func builtinDefinitions() []Definition {
	return []Definition{
		{
			Key: "dark-blue-purple", Name: "Dark with Blue & Purple",
			Description: "Dark navy background with vibrant blue (#3b82f6) and purple (#8b5cf6) accents",
			Colors: Palette{
				Background: "#0f172a", Surface: "#1e293b", Primary: "#3b82f6", Secondary: "#8b5cf6",
				Accent: "#06b6d4", Text: "#f8fafc", TextMuted: "#94a3b8",
				Gradient: LinearGradient("#3b82f6", "#8b5cf6"),
			},
		},
		{
			Key: "dark-green-cyan", Name: "Dark with Green & Cyan",
			Description: "Dark forest background with emerald green (#10b981) and cyan (#06b6d4) accents",
			Colors: Palette{
				Background: "#0a0f0d", Surface: "#1a2420", Primary: "#10b981", Secondary: "#06b6d4",
				Accent: "#22d3ee", Text: "#f0fdf4", TextMuted: "#86efac",
				Gradient: LinearGradient("#10b981", "#06b6d4"),
			},
		},
		{
			Key: "light-blue", Name: "Light with Blue",
			Description: "Clean white background with professional blue (#2563eb) accents",
			Colors: Palette{
				Background: "#f8fafc", Surface: "#ffffff", Primary: "#2563eb", Secondary: "#3b82f6",
				Accent: "#0ea5e9", Text: "#0f172a", TextMuted: "#64748b",
				Gradient: LinearGradient("#2563eb", "#0ea5e9"),
			},
		},
		{
			Key: "light-purple", Name: "Light with Purple",
			Description: "Soft lavender background with vibrant purple (#7c3aed) accents",
			Colors: Palette{
				Background: "#faf5ff", Surface: "#ffffff", Primary: "#7c3aed", Secondary: "#a855f7",
				Accent: "#c084fc", Text: "#1e1b4b", TextMuted: "#6b7280",
				Gradient: LinearGradient("#7c3aed", "#a855f7"),
			},
		},
		{
			Key: "dark-orange-red", Name: "Dark with Orange & Red",
			Description: "Dark charcoal background with warm orange (#f97316) and red (#ef4444) accents",
			Colors: Palette{
				Background: "#18181b", Surface: "#27272a", Primary: "#f97316", Secondary: "#ef4444",
				Accent: "#fbbf24", Text: "#fafafa", TextMuted: "#a1a1aa",
				Gradient: LinearGradient("#f97316", "#ef4444"),
			},
		},
		{
			Key: "dark-pink-rose", Name: "Dark with Pink & Rose",
			Description: "Deep indigo background with vibrant pink (#ec4899) and rose (#f43f5e) accents",
			Colors: Palette{
				Background: "#1a1a2e", Surface: "#16213e", Primary: "#ec4899", Secondary: "#f43f5e",
				Accent: "#fb7185", Text: "#fdf2f8", TextMuted: "#f9a8d4",
				Gradient: LinearGradient("#ec4899", "#f43f5e"),
			},
		},
	}
}

// Table is an immutable set of themes keyed by normalized key.
// It is built once at start-up and is safe for concurrent reads.
type Table struct {
	themes map[string]Definition
	keys   []string
}

// Builtin returns a table holding only the built-in themes.
func Builtin() *Table {
	t, _ := newTable(builtinDefinitions(), nil)
	return t
}

// newTable builds a table from base definitions overlaid with extra ones.
// Extra definitions with an existing key replace the base entry in place.
func newTable(base, extra []Definition) (*Table, error) {
	t := &Table{themes: make(map[string]Definition, len(base)+len(extra))}
	add := func(d Definition) error {
		d.Key = NormalizeKey(d.Key)
		if d.Key == "" {
			return fmt.Errorf("theme %q: missing key", d.Name)
		}
		if err := validateDefinition(d); err != nil {
			return err
		}
		if _, exists := t.themes[d.Key]; !exists {
			t.keys = append(t.keys, d.Key)
		}
		t.themes[d.Key] = d
		return nil
	}
	for _, d := range base {
		if err := add(d); err != nil {
			return nil, err
		}
	}
	for _, d := range extra {
		if d.Colors.Gradient == "" {
			d.Colors.Gradient = LinearGradient(d.Colors.Primary, d.Colors.Secondary)
		}
		if err := add(d); err != nil {
			return nil, err
		}
	}
	if _, ok := t.themes[DefaultKey]; !ok {
		return nil, fmt.Errorf("theme table has no %q theme", DefaultKey)
	}
	return t, nil
}

func validateDefinition(d Definition) error {
	fields := map[string]string{
		"background": d.Colors.Background,
		"surface":    d.Colors.Surface,
		"primary":    d.Colors.Primary,
		"secondary":  d.Colors.Secondary,
		"accent":     d.Colors.Accent,
		"text":       d.Colors.Text,
		"textMuted":  d.Colors.TextMuted,
	}
	for field, value := range fields {
		if !IsValidColor(value) {
			return fmt.Errorf("theme %q: invalid %s color %q", d.Key, field, value)
		}
	}
	return nil
}

var nonKeyChars = regexp.MustCompile(`[^a-z-]`)

// NormalizeKey lowercases a free-form theme label and replaces every
// character other than a-z and '-' with '-'. "Dark Blue Purple" becomes
// "dark-blue-purple".
func NormalizeKey(key string) string {
	return nonKeyChars.ReplaceAllString(strings.ToLower(strings.TrimSpace(key)), "-")
}

// Lookup returns the theme for key, or the default theme when the key is
// empty or unknown.
func (t *Table) Lookup(key string) Definition {
	if d, ok := t.themes[NormalizeKey(key)]; ok {
		return d
	}
	return t.themes[DefaultKey]
}

// Has reports whether key names a theme in the table.
func (t *Table) Has(key string) bool {
	_, ok := t.themes[NormalizeKey(key)]
	return ok
}

// Resolve is Lookup(key).Colors.
func (t *Table) Resolve(key string) Palette {
	return t.Lookup(key).Colors
}

// Keys returns theme keys in definition order.
func (t *Table) Keys() []string {
	return append([]string(nil), t.keys...)
}

// All returns every definition in key order.
func (t *Table) All() []Definition {
	out := make([]Definition, 0, len(t.keys))
	for _, k := range t.keys {
		out = append(out, t.themes[k])
	}
	return out
}
