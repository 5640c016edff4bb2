package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/nutrihealth/nutriwallet-gobackend/internal/ledger"
	"github.com/nutrihealth/nutriwallet-gobackend/internal/models"
)

// ErrGatewayUnavailable marks processor/network failures. Safe to retry; no
// ledger state was touched.
var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

// FlutterwaveService initiates hosted payment sessions and outbound payouts.
// It never mutates the wallet balance: top-up credits happen only when the
// webhook confirms payment, and payout debits are recorded by the caller.
type FlutterwaveService struct {
	store       ledger.Store
	client      *http.Client
	baseURL     string
	secretKey   string
	redirectURL string
}

func NewFlutterwaveService(store ledger.Store, baseURL, secretKey, redirectURL string) *FlutterwaveService {
	return &FlutterwaveService{
		store:       store,
		client:      &http.Client{Timeout: 10 * time.Second},
		baseURL:     baseURL,
		secretKey:   secretKey,
		redirectURL: redirectURL,
	}
}

// PayoutReceipt is the processor's confirmation of an outbound transfer.
type PayoutReceipt struct {
	ID        int64  `json:"id"`
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Amount    int64  `json:"amount"`
}

// CreateSession records a payment session, requests a hosted payment link
// and returns the session with the redirect link attached. A fresh tx_ref
// is generated when none is supplied.
func (s *FlutterwaveService) CreateSession(ctx context.Context, amount int64, email, txRef string) (*models.PaymentSession, error) {
	if amount <= 0 {
		return nil, ledger.ErrInvalidAmount
	}
	if txRef == "" {
		txRef = "nh_" + uuid.NewString()
	}
	if email == "" {
		email = "user@example.com"
	}

	now := time.Now().UTC()
	session := &models.PaymentSession{
		TxRef:      txRef,
		Amount:     amount,
		Status:     models.SessionCreated,
		PayerEmail: email,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	payload := map[string]interface{}{
		"tx_ref":       txRef,
		"amount":       strconv.FormatInt(amount, 10),
		"currency":     "NGN",
		"redirect_url": s.redirectURL,
		"customer":     map[string]interface{}{"email": email, "phonenumber": "", "name": ""},
		"customizations": map[string]interface{}{
			"title":       "NutriHealth Wallet Top-up",
			"description": "Top up wallet for NutriKit redemption",
		},
	}

	body, err := s.post(ctx, "/v3/payments", payload, http.StatusOK)
	if err != nil {
		return nil, err
	}

	var paymentResp struct {
		Status string `json:"status"`
		Data   struct {
			Link string `json:"link"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &paymentResp); err != nil {
		log.Printf("Failed to decode payment response for %s: %v", txRef, err)
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	if paymentResp.Data.Link == "" {
		log.Printf("No payment link in processor response for %s", txRef)
		return nil, fmt.Errorf("%w: no payment link provided", ErrGatewayUnavailable)
	}

	session.Status = models.SessionAwaiting
	session.RedirectLink = paymentResp.Data.Link
	session.UpdatedAt = time.Now().UTC()
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	log.Printf("Payment session created: tx_ref=%s amount=%d", txRef, amount)
	return session, nil
}

// SendPayout requests an outbound transfer. No ledger effect here: the
// caller records the PAYOUT debit only after the processor confirms.
func (s *FlutterwaveService) SendPayout(ctx context.Context, destination string, amount int64, narration string) (*PayoutReceipt, error) {
	if amount <= 0 {
		return nil, ledger.ErrInvalidAmount
	}
	if narration == "" {
		narration = "NutriKit payout"
	}
	reference := "payout_" + uuid.NewString()

	payload := map[string]interface{}{
		"account_bank":   "044",
		"account_number": destination,
		"amount":         amount,
		"narration":      narration,
		"currency":       "NGN",
		"reference":      reference,
	}

	body, err := s.post(ctx, "/v3/transfers", payload, http.StatusOK)
	if err != nil {
		return nil, err
	}

	var transferResp struct {
		Status string `json:"status"`
		Data   struct {
			ID        int64  `json:"id"`
			Reference string `json:"reference"`
			Status    string `json:"status"`
			Amount    int64  `json:"amount"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &transferResp); err != nil {
		log.Printf("Failed to decode transfer response for %s: %v", reference, err)
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	if transferResp.Status != "success" {
		log.Printf("Transfer %s not accepted by processor: %s", reference, transferResp.Status)
		return nil, fmt.Errorf("%w: transfer status %s", ErrGatewayUnavailable, transferResp.Status)
	}

	receipt := &PayoutReceipt{
		ID:        transferResp.Data.ID,
		Reference: transferResp.Data.Reference,
		Status:    transferResp.Data.Status,
		Amount:    transferResp.Data.Amount,
	}
	if receipt.Reference == "" {
		receipt.Reference = reference
	}
	if receipt.Amount == 0 {
		receipt.Amount = amount
	}
	log.Printf("Payout accepted: reference=%s amount=%d status=%s", receipt.Reference, amount, receipt.Status)
	return receipt, nil
}

// post sends an authenticated request with up to three attempts.
func (s *FlutterwaveService) post(ctx context.Context, path string, payload map[string]interface{}, wantStatus int) ([]byte, error) {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %v", err)
	}

	var lastErr error
	for retries := 3; retries > 0; retries-- {
		req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+path, bytes.NewBuffer(reqBody))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %v", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+s.secretKey)

		resp, err := s.client.Do(req)
		if err != nil {
			lastErr = err
			log.Printf("Request to %s failed (attempt %d): %v", path, 4-retries, err)
		} else {
			body, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			if readErr != nil {
				lastErr = readErr
			} else if resp.StatusCode == wantStatus {
				return body, nil
			} else {
				lastErr = fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
				log.Printf("Request to %s failed with status %d (attempt %d): %s", path, resp.StatusCode, 4-retries, string(body))
			}
		}
		if ctx.Err() != nil {
			break
		}
		time.Sleep(time.Second * time.Duration(3-retries))
	}
	return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, lastErr)
}
