package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wonny/mdhealth/internal/health"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondNoRun maps a Latest() failure; before the first run there is nothing to show
func respondNoRun(w http.ResponseWriter, err error) {
	if errors.Is(err, health.ErrNoRun) {
		respondError(w, http.StatusServiceUnavailable, "No analysis run available yet")
		return
	}
	respondError(w, http.StatusInternalServerError, "Failed to retrieve analysis run")
}
