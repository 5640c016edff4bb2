package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/nutrihealth/nutriwallet-gobackend/internal/models"
	"github.com/nutrihealth/nutriwallet-gobackend/internal/screening"
	"github.com/nutrihealth/nutriwallet-gobackend/internal/services"
)

type GrowthHandler struct {
	service *services.GrowthService
}

func NewGrowthHandler(service *services.GrowthService) *GrowthHandler {
	return &GrowthHandler{service: service}
}

func (h *GrowthHandler) RecordGrowth(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Weight float64 `json:"weight"`
		Height float64 `json:"height"`
		MUAC   float64 `json:"muac"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "POST", "/growth")
		return
	}
	if req.Weight == 0 || req.Height == 0 || req.MUAC == 0 {
		respondWithError(w, http.StatusBadRequest, "Weight, height, and MUAC are required", "POST", "/growth")
		return
	}
	if req.Weight <= 0 || req.Height <= 0 || req.MUAC <= 0 {
		respondWithError(w, http.StatusBadRequest, "All measurements must be positive numbers", "POST", "/growth")
		return
	}

	entry, err := h.service.Record(r.Context(), req.Weight, req.Height, req.MUAC)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to save measurements", "POST", "/growth")
		return
	}

	var alert interface{}
	if a := screening.Screen(req.Weight, req.Height, req.MUAC); a != "" {
		log.Printf("ALERT: %s", a)
		alert = a
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"entry": entry,
		"alert": alert,
	}, "POST", "/growth")
}

func (h *GrowthHandler) ListGrowth(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.Entries(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch measurements", "GET", "/growth")
		return
	}
	if entries == nil {
		entries = []models.GrowthEntry{}
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"entries": entries}, "GET", "/growth")
}
