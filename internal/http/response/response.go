// Package response writes envelope-style JSON for the plain net/http
// routes that bypass the OpenAPI layer.
package response

import (
	"encoding/json/v2"
	"log/slog"
	"net/http"
)

// Envelope is the JSON shape for plain-route responses.
type Envelope struct {
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Success bool   `json:"success"`
}

// JSON writes data wrapped in an Envelope with the given status code.
// Success is derived from the status.
func JSON(w http.ResponseWriter, status int, data any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	env := Envelope{Success: status < 400, Data: data}
	if err := json.MarshalWrite(w, env); err != nil && logger != nil {
		logger.Error("Failed to encode JSON response", "error", err)
	}
}

// Success writes a 200 response with data.
func Success(w http.ResponseWriter, data any, logger *slog.Logger) {
	JSON(w, http.StatusOK, data, logger)
}

// Error writes an error response carrying message.
func Error(w http.ResponseWriter, status int, message string, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	env := Envelope{Success: false, Error: message}
	if err := json.MarshalWrite(w, env); err != nil && logger != nil {
		logger.Error("Failed to encode error response", "error", err)
	}
}
