// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package parser turns raw model output into a file set. Parsing is staged
// and best-effort: strict JSON first, then per-file pattern extraction, then
// the whole response as a single index.html. It never returns an error.
package parser

import (
	"encoding/json"
	"regexp"
	"strings"
)

// DefaultSummary is used when the model supplies none.
const DefaultSummary = "Website generated successfully"

// Result is a parsed generation response.
type Result struct {
	Files   FileSet
	Summary string
}

// Parse runs the stages in order and returns the first that yields files.
// The returned file set always has at least one entry.
func Parse(raw string) Result {
	if res, ok := ParseStructured(StripJSONFences(raw)); ok {
		return res
	}
	if files := ExtractByPattern(raw); len(files) > 0 {
		return Result{Files: files, Summary: DefaultSummary}
	}
	return Result{Files: SingleFile(raw), Summary: DefaultSummary}
}

var (
	jsonFence = regexp.MustCompile("(?i)```json\\n?")
	anyFence  = regexp.MustCompile("```[a-zA-Z0-9_+-]*\\n?")
	bareFence = regexp.MustCompile("```\\n?")
)

// StripJSONFences removes ```json and bare ``` markers and trims the result.
func StripJSONFences(s string) string {
	s = jsonFence.ReplaceAllString(s, "")
	s = bareFence.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// StripAllFences removes every code-fence marker regardless of the declared
// language and trims the result.
func StripAllFences(s string) string {
	return strings.TrimSpace(anyFence.ReplaceAllString(s, ""))
}

// ParseStructured decodes {"files": {name: content}, "summary": "..."}.
// It reports false unless files is an object with at least one string entry.
// Non-string entries are dropped.
func ParseStructured(s string) (Result, bool) {
	var envelope struct {
		Files   map[string]json.RawMessage `json:"files"`
		Summary string                     `json:"summary"`
	}
	if err := json.Unmarshal([]byte(s), &envelope); err != nil {
		return Result{}, false
	}

	files := make(FileSet, len(envelope.Files))
	for name, raw := range envelope.Files {
		var content string
		if err := json.Unmarshal(raw, &content); err != nil {
			continue
		}
		files[name] = TextFile(content)
	}
	if len(files) == 0 {
		return Result{}, false
	}

	summary := envelope.Summary
	if summary == "" {
		summary = DefaultSummary
	}
	return Result{Files: files, Summary: summary}, true
}

// filePattern builds the permissive key:value matcher for one file name.
// The value may be quoted with ', " or a backtick and ends at the first
// closing quote followed by ',' or '}'.
func filePattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?s)["']?` + regexp.QuoteMeta(name) + `["']?\s*:\s*["'` + "`" + `](.*?)["'` + "`" + `]\s*[,}]`)
}

var patterns = []struct {
	name string
	re   *regexp.Regexp
}{
	{IndexHTML, filePattern(IndexHTML)},
	{StyleCSS, filePattern(StyleCSS)},
	{ScriptJS, filePattern(ScriptJS)},
}

var unescaper = strings.NewReplacer(`\n`, "\n", `\"`, `"`)

// ExtractByPattern searches independently for index.html, style.css and
// script.js entries in malformed JSON-like text. Any subset may be found.
// Literal \n and \" sequences in a match are unescaped.
func ExtractByPattern(s string) FileSet {
	files := FileSet{}
	for _, p := range patterns {
		m := p.re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		files[p.name] = TextFile(unescaper.Replace(m[1]))
	}
	return files
}

// SingleFile treats the fence-stripped response as the whole index.html.
func SingleFile(s string) FileSet {
	return FileSet{IndexHTML: TextFile(StripAllFences(s))}
}
