// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotConfigured is returned by a provider whose API key is missing
	// or still set to the sample placeholder. No network call is made.
	ErrNotConfigured = errors.New("ai: provider not configured")

	// ErrNoProvidersConfigured is returned by the registry when not a single
	// provider in the try-order has a usable API key.
	ErrNoProvidersConfigured = errors.New("ai: no providers configured")
)

// ProviderError is a non-success HTTP response from an upstream provider.
// Message carries the upstream error text so quota conditions can be
// recognised by IsQuotaError.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// AllProvidersFailedError is returned when every provider in the try-order
// failed. Last is the final attempt's error.
type AllProvidersFailedError struct {
	Tried []string
	Last  error
}

func (e *AllProvidersFailedError) Error() string {
	last := "unknown error"
	if e.Last != nil {
		last = e.Last.Error()
	}
	return "all AI providers failed. Last error: " + last
}

func (e *AllProvidersFailedError) Unwrap() error { return e.Last }

// quotaMarkers are matched case-insensitively against an error message.
var quotaMarkers = []string{
	"quota",
	"rate limit",
	"rate_limit",
	"exceeded",
	"too many requests",
	"429",
	"limit",
}

// IsQuotaError reports whether an error message looks like rate or usage
// limiting rather than a content or auth failure.
func IsQuotaError(msg string) bool {
	lower := strings.ToLower(msg)
	for _, m := range quotaMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// upstreamMessage pulls error.message out of an error body. Gemini and the
// OpenAI-compatible APIs share this envelope. Falls back to the raw body.
func upstreamMessage(body []byte) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return "request failed"
	}
	return msg
}
