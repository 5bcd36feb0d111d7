package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// writeJSON writes v with status. API responses describe live gallery state
// and are never cached by intermediaries.
func writeJSON(w http.ResponseWriter, status int, v any) {
	h := w.Header()
	h.Set("Content-Type", "application/json; charset=utf-8")
	h.Set("X-Content-Type-Options", "nosniff")
	if h.Get("Cache-Control") == "" {
		h.Set("Cache-Control", "no-store")
	}
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error  string `json:"error" validate:"required"`
	Status int    `json:"status" example:"400" validate:"required"`
}

// writeError writes the error body for status with a client-facing message.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errResponse{Error: msg, Status: status})
}
