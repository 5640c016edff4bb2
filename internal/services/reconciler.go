package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"math"

	"github.com/nutrihealth/nutriwallet-gobackend/internal/ledger"
	"github.com/nutrihealth/nutriwallet-gobackend/internal/models"
)

// ErrInvalidSignature marks a webhook whose signature does not match the
// raw payload. Nothing was mutated and the sender should not retry.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// Reconciler authenticates processor webhooks and applies confirmed
// payments to the ledger exactly once.
type Reconciler struct {
	store  ledger.Store
	secret []byte
}

func NewReconciler(store ledger.Store, webhookSecret string) *Reconciler {
	return &Reconciler{store: store, secret: []byte(webhookSecret)}
}

// WebhookResult reports what Handle did with an authenticated event.
type WebhookResult struct {
	Applied     bool
	Duplicate   bool
	TxRef       string
	Transaction *models.Transaction
}

type webhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		Status        string  `json:"status"`
		TxRef         string  `json:"tx_ref"`
		FlwRef        string  `json:"flw_ref"`
		Amount        float64 `json:"amount"`
		ChargedAmount float64 `json:"charged_amount"`
	} `json:"data"`
}

// VerifySignature checks the keyed hash of the raw, unparsed payload in
// constant time.
func (r *Reconciler) VerifySignature(rawBody []byte, signature string) bool {
	mac := hmac.New(sha256.New, r.secret)
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Handle authenticates and reconciles one webhook delivery. Duplicate
// deliveries are acknowledged as success; only storage failures return an
// error, and those roll the idempotency reservation back so the sender's
// retry can land.
func (r *Reconciler) Handle(ctx context.Context, rawBody []byte, signature string) (*WebhookResult, error) {
	if !r.VerifySignature(rawBody, signature) {
		log.Printf("SECURITY: webhook rejected, signature mismatch")
		return nil, ErrInvalidSignature
	}

	var event webhookEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		log.Printf("Webhook payload unparseable after valid signature: %v", err)
		return &WebhookResult{}, nil
	}

	if event.Data.Status != "successful" && event.Event != "charge.completed" {
		log.Printf("Webhook event %q status %q observed, not applied", event.Event, event.Data.Status)
		return &WebhookResult{}, nil
	}

	txRef := event.Data.TxRef
	if txRef == "" {
		txRef = event.Data.FlwRef
	}
	raw := event.Data.Amount
	if raw == 0 {
		raw = event.Data.ChargedAmount
	}
	// Processors report decimal amounts; round to the nearest minor unit.
	amount := int64(math.Round(raw))
	if txRef == "" || amount <= 0 {
		log.Printf("Webhook success event missing tx_ref or amount, not applied")
		return &WebhookResult{}, nil
	}

	reserved, err := r.store.Reserve(ctx, txRef)
	if err != nil {
		return nil, err
	}
	if !reserved {
		log.Printf("Duplicate webhook delivery for %s, already applied", txRef)
		return &WebhookResult{Duplicate: true, TxRef: txRef}, nil
	}

	tx, err := r.store.Apply(ctx, models.KindTopUpGateway, amount, txRef)
	if err != nil {
		// Release the reservation so the sender's retry is not a no-op.
		if releaseErr := r.store.Release(ctx, txRef); releaseErr != nil {
			log.Printf("Failed to release reservation %s after apply failure: %v", txRef, releaseErr)
		}
		return nil, err
	}
	log.Printf("Payment confirmed: tx_ref=%s amount=%d", txRef, amount)

	if _, err := r.store.CompleteSession(ctx, txRef); err != nil {
		// A missing or stuck session never blocks an applied credit.
		if errors.Is(err, ledger.ErrSessionNotFound) {
			log.Printf("No payment session for %s, credit applied anyway", txRef)
		} else {
			log.Printf("Failed to complete session %s: %v", txRef, err)
		}
	}

	return &WebhookResult{Applied: true, TxRef: txRef, Transaction: tx}, nil
}
