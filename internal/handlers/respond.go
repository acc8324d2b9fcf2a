// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers implements the JSON API of the Sitecraft server.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"sitecraft/internal/ai"
	"sitecraft/internal/generate"
	"sitecraft/internal/middleware"
	"sitecraft/internal/scrape"
)

// errorResponse is the body of every failed API call.
type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// decodeJSON reads the request body into dst. It writes the error response
// itself and reports whether decoding succeeded.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("Request body too large (max %d bytes).", tooLarge.Limit))
		return false
	}
	writeError(w, http.StatusBadRequest, "Invalid JSON body")
	return false
}

// statusFor maps a service error to an HTTP status.
func statusFor(err error) int {
	var all *ai.AllProvidersFailedError
	switch {
	case errors.As(err, &all):
		return http.StatusInternalServerError
	case errors.Is(err, generate.ErrInvalidRequest),
		errors.Is(err, ai.ErrNotConfigured),
		errors.Is(err, ai.ErrNoProvidersConfigured):
		return http.StatusBadRequest
	case errors.Is(err, scrape.ErrPageLoad):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError logs a failed operation and writes its error response.
// Unclassified errors are not echoed to the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, action string, err error) {
	status := statusFor(err)
	msg := err.Error()

	var all *ai.AllProvidersFailedError
	if status == http.StatusInternalServerError && !errors.As(err, &all) {
		msg = "internal error"
	}
	if status >= http.StatusInternalServerError {
		slog.Error(action+" failed", "request_id", middleware.RequestID(r.Context()), "status", status, "error", err)
	} else {
		slog.Warn(action+" rejected", "request_id", middleware.RequestID(r.Context()), "status", status, "error", err)
	}
	writeError(w, status, fmt.Sprintf("Failed to %s: %s", action, msg))
}
