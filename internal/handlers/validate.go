// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"strings"
	"unicode/utf8"
)

// Validation limits for AI request fields.
const (
	maxPromptLen      = 5_000
	maxProjectNameLen = 200
	maxCodeLen        = 200_000
	maxMessageLen     = 2_000
	maxURLLen         = 2_048
	maxSections       = 20
)

// validatePrompt checks a generation prompt and optional project name.
func validatePrompt(prompt, projectName string) string {
	if strings.TrimSpace(prompt) == "" {
		return "Prompt is required"
	}
	if utf8.RuneCountInString(prompt) > maxPromptLen {
		return "Prompt is too long (max 5,000 characters)."
	}
	if utf8.RuneCountInString(projectName) > maxProjectNameLen {
		return "Project name is too long (max 200 characters)."
	}
	return ""
}

// validatePage checks a single-page request. Every field is optional.
func validatePage(customPrompt, projectName string, sections []string) string {
	if utf8.RuneCountInString(customPrompt) > maxPromptLen {
		return "Prompt is too long (max 5,000 characters)."
	}
	if utf8.RuneCountInString(projectName) > maxProjectNameLen {
		return "Project name is too long (max 200 characters)."
	}
	if len(sections) > maxSections {
		return "Too many sections (max 20)."
	}
	return ""
}

// validateCode checks code sent for modification or explanation.
func validateCode(code string) string {
	if strings.TrimSpace(code) == "" {
		return "Code is required"
	}
	if utf8.RuneCountInString(code) > maxCodeLen {
		return "Code is too long (max 200,000 characters)."
	}
	return ""
}

// validateMessage checks an assistant chat message.
func validateMessage(msg string) string {
	if strings.TrimSpace(msg) == "" {
		return "Message is required"
	}
	if utf8.RuneCountInString(msg) > maxMessageLen {
		return "Message is too long (max 2,000 characters)."
	}
	return ""
}

// validateURL checks the page address of an analysis. Scheme and host are
// validated by the analyzer.
func validateURL(u string) string {
	u = strings.TrimSpace(u)
	if u == "" {
		return "URL is required"
	}
	if len(u) > maxURLLen {
		return "URL is too long."
	}
	return ""
}
