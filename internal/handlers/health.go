package handlers

import (
	"net/http"
	"time"
)

const version = "1.0.0"

func Health(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   version,
	}, "GET", "/health")
}
