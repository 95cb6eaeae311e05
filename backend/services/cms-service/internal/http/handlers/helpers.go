package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"karocharge/backend/services/cms-service/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrAlreadyRunning), errors.Is(err, service.ErrNotRunning):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
