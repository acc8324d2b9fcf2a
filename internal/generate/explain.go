// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package generate

import (
	"bytes"
	"encoding/json"
	"strconv"
	"unicode/utf8"

	"sitecraft/internal/parser"
)

const (
	maxExplainCode  = 3000
	truncatedMarker = "\n... (code truncated)"
	rawSummaryLen   = 200
)

// Explanation is a code explanation. Detailed mode fills Sections,
// KeyTakeaways and Tips; brief mode fills Highlights and LearnMore.
type Explanation struct {
	Summary      string    `json:"summary"`
	Sections     []Section `json:"sections,omitempty"`
	KeyTakeaways []string  `json:"keyTakeaways,omitempty"`
	Tips         []string  `json:"tips,omitempty"`
	Highlights   []string  `json:"highlights,omitempty"`
	LearnMore    []string  `json:"learnMore,omitempty"`

	// IsRawText is set when the model's answer was not JSON and is carried
	// verbatim in Highlights.
	IsRawText bool `json:"isRawText,omitempty"`
}

// Section explains one region of the code.
type Section struct {
	Title       string    `json:"title"`
	Lines       LineRange `json:"lines"`
	Explanation string    `json:"explanation"`
	Concepts    []string  `json:"concepts,omitempty"`
}

// LineRange is a line reference such as "1-10". Models also send a bare
// number or a [start, end] pair; any other shape is dropped.
type LineRange string

func (l *LineRange) UnmarshalJSON(b []byte) error {
	*l = ""
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*l = LineRange(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*l = LineRange(n.String())
		return nil
	}
	var pair []json.Number
	if err := json.Unmarshal(b, &pair); err == nil {
		switch len(pair) {
		case 1:
			*l = LineRange(pair[0].String())
		case 2:
			*l = LineRange(pair[0].String() + "-" + pair[1].String())
		}
	}
	return nil
}

// empty reports whether nothing was decoded, as with a literal null.
func (e *Explanation) empty() bool {
	return e.Summary == "" && len(e.Sections) == 0 && len(e.KeyTakeaways) == 0 &&
		len(e.Tips) == 0 && len(e.Highlights) == 0 && len(e.LearnMore) == 0
}

// truncateCode caps code at maxExplainCode characters and marks the cut.
func truncateCode(code string) string {
	if utf8.RuneCountInString(code) <= maxExplainCode {
		return code
	}
	return string([]rune(code)[:maxExplainCode]) + truncatedMarker
}

// parseExplanation decodes a JSON explanation, degrading to raw text.
func parseExplanation(raw string) *Explanation {
	var e Explanation
	if err := json.Unmarshal([]byte(parser.StripJSONFences(raw)), &e); err == nil && !e.empty() {
		return &e
	}

	summary := raw
	if utf8.RuneCountInString(summary) > rawSummaryLen {
		summary = string([]rune(summary)[:rawSummaryLen])
	}
	return &Explanation{
		Summary:    summary,
		Highlights: []string{raw},
		IsRawText:  true,
	}
}

// lineCount is used in prompts to help models reference lines.
func lineCount(code string) string {
	return strconv.Itoa(bytes.Count([]byte(code), []byte("\n")) + 1)
}
