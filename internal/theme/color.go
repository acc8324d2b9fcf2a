// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package theme

import (
	"regexp"
	"strings"
)

// invalidKeywords never resolve to a visible color on their own.
var invalidKeywords = map[string]bool{
	"transparent": true,
	"inherit":     true,
	"initial":     true,
	"unset":       true,
}

// zeroAlpha matches rgb()/rgba()/hsl()/hsla() with an explicit alpha of zero,
// in both the comma form and the space/slash form, and the #RGBA and
// #RRGGBBAA hex forms with a zero alpha. A three-component rgb() whose last
// channel is 0 has no alpha and does not match.
var zeroAlpha = []*regexp.Regexp{
	regexp.MustCompile(`^(rgba?|hsla?)\(\s*[^,()]+,\s*[^,()]+,\s*[^,()]+,\s*(0+(\.0*)?|\.0+|0+(\.0*)?%)\s*\)$`),
	regexp.MustCompile(`^(rgba?|hsla?)\([^,()/]+/\s*(0+(\.0*)?|\.0+|0+(\.0*)?%)\s*\)$`),
	regexp.MustCompile(`^#([0-9a-f]{3}0|[0-9a-f]{6}00)$`),
}

// IsValidColor reports whether a CSS color string can be trusted as
// generation input. Empty strings, the keywords transparent, inherit,
// initial and unset (any case) and zero-alpha color functions are invalid.
func IsValidColor(color string) bool {
	c := strings.ToLower(strings.TrimSpace(color))
	if c == "" || invalidKeywords[c] {
		return false
	}
	for _, re := range zeroAlpha {
		if re.MatchString(c) {
			return false
		}
	}
	return true
}

// FilterValid returns the valid colors of in, preserving order.
func FilterValid(in []string) []string {
	var out []string
	for _, c := range in {
		if IsValidColor(c) {
			out = append(out, strings.TrimSpace(c))
		}
	}
	return out
}
