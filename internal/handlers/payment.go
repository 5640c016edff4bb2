package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nutrihealth/nutriwallet-gobackend/internal/ledger"
	"github.com/nutrihealth/nutriwallet-gobackend/internal/models"
	"github.com/nutrihealth/nutriwallet-gobackend/internal/services"
)

type PaymentHandler struct {
	gateway    *services.FlutterwaveService
	reconciler *services.Reconciler
	store      ledger.Store
}

func NewPaymentHandler(gateway *services.FlutterwaveService, reconciler *services.Reconciler, store ledger.Store) *PaymentHandler {
	return &PaymentHandler{gateway: gateway, reconciler: reconciler, store: store}
}

func (h *PaymentHandler) InitPayment(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("POST", "/payments/init"))
	defer timer.ObserveDuration()

	var req struct {
		Amount int64  `json:"amount"`
		Email  string `json:"email"`
		TxRef  string `json:"tx_ref"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "POST", "/payments/init")
		return
	}
	if req.Amount <= 0 {
		respondWithError(w, http.StatusBadRequest, "Valid amount is required", "POST", "/payments/init")
		return
	}

	session, err := h.gateway.CreateSession(r.Context(), req.Amount, req.Email, req.TxRef)
	if err != nil {
		log.Printf("Payment init failed: %v", err)
		respondWithError(w, http.StatusInternalServerError, "payment init failed", "POST", "/payments/init")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{
		"tx_ref":        session.TxRef,
		"redirect_link": session.RedirectLink,
	}, "POST", "/payments/init")
}

func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("POST", "/payments/webhook"))
	defer timer.ObserveDuration()

	rawBody, err := io.ReadAll(r.Body)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "unreadable body", "POST", "/payments/webhook")
		return
	}

	signature := r.Header.Get("verif-hash")
	if signature == "" {
		signature = r.Header.Get("x-flutterwave-signature")
	}

	_, err = h.reconciler.Handle(r.Context(), rawBody, signature)
	if err != nil {
		if errors.Is(err, services.ErrInvalidSignature) {
			webhookRejectedTotal.Inc()
			respondWithError(w, http.StatusBadRequest, "invalid signature", "POST", "/payments/webhook")
			return
		}
		// Storage failure: 5xx so the processor retries the delivery.
		log.Printf("Webhook processing failed: %v", err)
		respondWithError(w, http.StatusInternalServerError, "webhook processing failed", "POST", "/payments/webhook")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"received": true}, "POST", "/payments/webhook")
}

func (h *PaymentHandler) SendPayout(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("POST", "/payouts/send"))
	defer timer.ObserveDuration()

	var req struct {
		Destination string `json:"destination"`
		Amount      int64  `json:"amount"`
		Narration   string `json:"narration"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "POST", "/payouts/send")
		return
	}
	if req.Destination == "" {
		respondWithError(w, http.StatusBadRequest, "Destination is required", "POST", "/payouts/send")
		return
	}
	if req.Amount <= 0 {
		respondWithError(w, http.StatusBadRequest, "Valid amount is required", "POST", "/payouts/send")
		return
	}

	// Advisory check before money leaves; the authoritative debit happens
	// after the processor confirms.
	balance, err := h.store.Balance(r.Context())
	if err != nil {
		log.Printf("Failed to read balance before payout: %v", err)
		respondWithError(w, http.StatusInternalServerError, "payout failed", "POST", "/payouts/send")
		return
	}
	if balance < req.Amount {
		respondWithJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":    "insufficient_balance",
			"required": req.Amount,
			"current":  balance,
		}, "POST", "/payouts/send")
		return
	}

	receipt, err := h.gateway.SendPayout(r.Context(), req.Destination, req.Amount, req.Narration)
	if err != nil {
		log.Printf("Payout failed: %v", err)
		respondWithError(w, http.StatusInternalServerError, "payout failed", "POST", "/payouts/send")
		return
	}

	// The transfer is confirmed; record the debit, keyed by the payout
	// reference so a later webhook for the same transfer cannot double-debit.
	reserved, err := h.store.Reserve(r.Context(), receipt.Reference)
	if err != nil {
		log.Printf("RECONCILE: payout %s sent but reservation failed: %v", receipt.Reference, err)
	} else if reserved {
		if _, err := h.store.Apply(r.Context(), models.KindPayout, req.Amount, receipt.Reference); err != nil {
			// Money already left; flag for operator reconciliation.
			log.Printf("RECONCILE: payout %s sent but ledger debit failed: %v", receipt.Reference, err)
		}
	}

	respondWithJSON(w, http.StatusOK, receipt, "POST", "/payouts/send")
}
