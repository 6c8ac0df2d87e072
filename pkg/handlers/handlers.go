// Package handlers provides JSON response helpers shared by HTTP handlers.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
)

// RespondJSON writes data as a JSON body with the given status code.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// RespondError logs err and writes it as {"error": "..."} with the given status.
func RespondError(w http.ResponseWriter, logger *slog.Logger, status int, err error) {
	RespondErrorDetail(w, logger, status, err, nil)
}

// RespondErrorDetail writes err like RespondError and merges detail into the
// response body. The "error" key always carries err's message.
func RespondErrorDetail(
	w http.ResponseWriter,
	logger *slog.Logger,
	status int,
	err error,
	detail map[string]any,
) {
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	logger.Log(context.Background(), level, "request failed", "status", status, "error", err)

	body := make(map[string]any, len(detail)+1)
	for k, v := range detail {
		body[k] = v
	}
	body["error"] = err.Error()

	RespondJSON(w, status, body)
}
