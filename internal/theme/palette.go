// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package theme

import "strings"

// DetectedColors are raw colors read from a live page. Any of them may be
// invalid.
type DetectedColors struct {
	Background string   `json:"background"`
	Text       string   `json:"text"`
	Accents    []string `json:"accents"`
}

// HasUsableColors reports whether at least two of the detected colors
// (background, text and accents together) are valid.
func HasUsableColors(d DetectedColors) bool {
	all := append([]string{d.Background, d.Text}, d.Accents...)
	return len(FilterValid(all)) >= 2
}

// Synthesize builds a hybrid palette from detected colors over the theme
// named by key. With at least two valid accents the first two become
// primary and secondary and a third, if any, the accent; background and
// text are taken from the page only when individually valid. With fewer
// than two valid accents the theme palette is returned unchanged.
// The second return value reports whether detected accents were used.
func (t *Table) Synthesize(detected DetectedColors, key string) (Palette, bool) {
	base := t.Resolve(key)
	accents := FilterValid(detected.Accents)
	if len(accents) < 2 {
		return base, false
	}

	p := Palette{
		Primary:    accents[0],
		Secondary:  accents[1],
		Accent:     base.Accent,
		Background: pick(detected.Background, base.Background),
		Text:       pick(detected.Text, base.Text),
		TextMuted:  base.TextMuted,
	}
	if len(accents) > 2 {
		p.Accent = accents[2]
	}
	p.Surface = "#ffffff"
	if strings.EqualFold(p.Background, base.Background) {
		p.Surface = base.Surface
	}
	p.Gradient = LinearGradient(p.Primary, p.Secondary)
	return p, true
}

// Sanitize fills every invalid field of an explicit palette from the theme
// named by key. The gradient is rebuilt when it is empty or references an
// invalid color keyword.
func (t *Table) Sanitize(p Palette, key string) Palette {
	base := t.Resolve(key)
	out := Palette{
		Background: pick(p.Background, base.Background),
		Surface:    pick(p.Surface, base.Surface),
		Primary:    pick(p.Primary, base.Primary),
		Secondary:  pick(p.Secondary, base.Secondary),
		Accent:     pick(p.Accent, base.Accent),
		Text:       pick(p.Text, base.Text),
		TextMuted:  pick(p.TextMuted, base.TextMuted),
		Gradient:   strings.TrimSpace(p.Gradient),
	}
	if out.Gradient == "" || strings.Contains(strings.ToLower(out.Gradient), "transparent") {
		out.Gradient = LinearGradient(out.Primary, out.Secondary)
	}
	return out
}

func pick(candidate, fallback string) string {
	if IsValidColor(candidate) {
		return strings.TrimSpace(candidate)
	}
	return fallback
}
