// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"context"
	"errors"
	"log/slog"
)

// outcome classifies one provider attempt.
type outcome int

const (
	outcomeSuccess outcome = iota
	outcomeQuota
	outcomeFailure
)

func (o outcome) String() string {
	switch o {
	case outcomeSuccess:
		return "success"
	case outcomeQuota:
		return "quota_exceeded"
	default:
		return "failure"
	}
}

func classify(err error) outcome {
	if err == nil {
		return outcomeSuccess
	}
	if IsQuotaError(err.Error()) {
		return outcomeQuota
	}
	return outcomeFailure
}

// Order returns the try-order for a request: the preferred provider first,
// then the fixed fallback priority, keeping only configured providers.
// The result is deterministic for a given configuration.
func (r *Registry) Order(preferred string) []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.fallback)+1)
	if preferred != "" {
		names = append(names, preferred)
	}
	for _, name := range r.fallback {
		if name != preferred {
			names = append(names, name)
		}
	}

	var order []Provider
	for _, name := range names {
		p, ok := r.providers[name]
		if !ok || !p.Configured() {
			continue
		}
		order = append(order, p)
	}
	return order
}

// Generate runs the prompt against the try-order for preferred, one provider
// at a time, and returns the first successful response. Every failure,
// quota-classified or not, moves on to the next provider unless the
// registry is strict, in which case only quota and configuration errors
// do. The classification is otherwise used for logging only.
func (r *Registry) Generate(ctx context.Context, preferred, systemPrompt, userPrompt string) (string, error) {
	order := r.Order(preferred)
	if len(order) == 0 {
		return "", ErrNoProvidersConfigured
	}

	r.mu.RLock()
	strict := r.strict
	r.mu.RUnlock()

	var (
		lastErr error
		tried   []string
	)
	for _, p := range order {
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}

		tried = append(tried, p.Name())
		slog.Info("ai provider attempt", "provider", p.Name(), "model", p.Model())

		text, err := p.Generate(ctx, systemPrompt, userPrompt)
		o := classify(err)
		if o == outcomeSuccess {
			slog.Info("ai provider succeeded", "provider", p.Name())
			return text, nil
		}

		lastErr = err
		slog.Warn("ai provider failed",
			"provider", p.Name(),
			"outcome", o.String(),
			"error", err,
		)

		if strict && o == outcomeFailure && !errors.Is(err, ErrNotConfigured) {
			break
		}
	}

	return "", &AllProvidersFailedError{Tried: tried, Last: lastErr}
}
