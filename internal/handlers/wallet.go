package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nutrihealth/nutriwallet-gobackend/internal/ledger"
	"github.com/nutrihealth/nutriwallet-gobackend/internal/services"
)

type WalletHandler struct {
	service *services.WalletService
}

func NewWalletHandler(service *services.WalletService) *WalletHandler {
	return &WalletHandler{service: service}
}

func (h *WalletHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("GET", "/wallet"))
	defer timer.ObserveDuration()

	balance, err := h.service.Balance(r.Context())
	if err != nil {
		log.Printf("Failed to read balance: %v", err)
		respondWithError(w, http.StatusInternalServerError, "failed to read wallet", "GET", "/wallet")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]int64{"balance": balance}, "GET", "/wallet")
}

func (h *WalletHandler) TopUp(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("POST", "/wallet/topup"))
	defer timer.ObserveDuration()

	var req struct {
		Amount int64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Valid amount is required", "POST", "/wallet/topup")
		return
	}
	if req.Amount <= 0 {
		respondWithError(w, http.StatusBadRequest, "Valid amount is required", "POST", "/wallet/topup")
		return
	}

	balance, err := h.service.TopUp(r.Context(), req.Amount)
	if err != nil {
		if errors.Is(err, ledger.ErrInvalidAmount) {
			respondWithError(w, http.StatusBadRequest, "Valid amount is required", "POST", "/wallet/topup")
			return
		}
		log.Printf("Topup failed: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Topup failed", "POST", "/wallet/topup")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]int64{"balance": balance}, "POST", "/wallet/topup")
}

func (h *WalletHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("POST", "/wallet/redeem"))
	defer timer.ObserveDuration()

	balance, err := h.service.Redeem(r.Context())
	if err != nil {
		var insufficient *ledger.InsufficientFundsError
		if errors.As(err, &insufficient) {
			respondWithJSON(w, http.StatusBadRequest, map[string]interface{}{
				"error":    "insufficient_balance",
				"required": insufficient.Required,
				"current":  insufficient.Current,
			}, "POST", "/wallet/redeem")
			return
		}
		log.Printf("Redemption failed: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Redemption failed", "POST", "/wallet/redeem")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"balance":  balance,
		"redeemed": true,
		"message":  "NutriKit will be delivered to your PHC within 2-3 days",
	}, "POST", "/wallet/redeem")
}
