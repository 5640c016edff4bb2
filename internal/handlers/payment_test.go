package handlers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutrihealth/nutriwallet-gobackend/internal/ledger"
	"github.com/nutrihealth/nutriwallet-gobackend/internal/models"
	"github.com/nutrihealth/nutriwallet-gobackend/internal/services"
)

const webhookSecret = "whsec_test"

func signBody(body []byte) string {
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func newPaymentRouter(store ledger.Store, gatewayURL string) *mux.Router {
	gateway := services.NewFlutterwaveService(store, gatewayURL, "sk_test", "https://front/confirm")
	reconciler := services.NewReconciler(store, webhookSecret)
	handler := NewPaymentHandler(gateway, reconciler, store)

	router := mux.NewRouter()
	router.HandleFunc("/api/payments/init", handler.InitPayment).Methods("POST")
	router.HandleFunc("/api/payments/webhook", handler.Webhook).Methods("POST")
	router.HandleFunc("/api/payouts/send", handler.SendPayout).Methods("POST")
	return router
}

func postWebhook(router *mux.Router, body []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/api/payments/webhook", bytes.NewReader(body))
	req.Header.Set("verif-hash", signature)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestInitPayment(t *testing.T) {
	processor := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "success",
			"data":   map[string]string{"link": "https://checkout.flutterwave.com/pay/xyz"},
		})
	}))
	defer processor.Close()

	store := ledger.NewMemoryStore(0)
	router := newPaymentRouter(store, processor.URL)

	t.Run("returns tx_ref and redirect link", func(t *testing.T) {
		rr, body := doJSON(t, router, "POST", "/api/payments/init", `{"amount":1000,"email":"mama@example.com"}`)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.NotEmpty(t, body["tx_ref"])
		assert.Equal(t, "https://checkout.flutterwave.com/pay/xyz", body["redirect_link"])
		assert.Empty(t, store.Transactions())
	})

	t.Run("rejects bad amount", func(t *testing.T) {
		rr, _ := doJSON(t, router, "POST", "/api/payments/init", `{"amount":0}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestInitPaymentGatewayDown(t *testing.T) {
	processor := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer processor.Close()

	store := ledger.NewMemoryStore(0)
	router := newPaymentRouter(store, processor.URL)

	rr, body := doJSON(t, router, "POST", "/api/payments/init", `{"amount":1000}`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "payment init failed", body["error"])
	assert.Empty(t, store.Transactions())
}

func TestWebhookEndpoint(t *testing.T) {
	store := ledger.NewMemoryStore(0)
	router := newPaymentRouter(store, "http://unused")

	payload := []byte(`{"event":"charge.completed","data":{"status":"successful","tx_ref":"nh_1","amount":500}}`)

	t.Run("rejects bad signature", func(t *testing.T) {
		rr := postWebhook(router, payload, "deadbeef")
		assert.Equal(t, http.StatusBadRequest, rr.Code)

		balance, _ := store.Balance(context.Background())
		assert.Equal(t, int64(0), balance)
	})

	t.Run("applies credit with valid signature", func(t *testing.T) {
		rr := postWebhook(router, payload, signBody(payload))
		require.Equal(t, http.StatusOK, rr.Code)

		var body map[string]bool
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.True(t, body["received"])

		balance, _ := store.Balance(context.Background())
		assert.Equal(t, int64(500), balance)
	})

	t.Run("duplicate deliveries are acknowledged and harmless", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			rr := postWebhook(router, payload, signBody(payload))
			assert.Equal(t, http.StatusOK, rr.Code)
		}

		balance, _ := store.Balance(context.Background())
		assert.Equal(t, int64(500), balance)
		assert.Len(t, store.Transactions(), 1)
	})
}

func TestWebhookParallelDuplicates(t *testing.T) {
	store := ledger.NewMemoryStore(0)
	router := newPaymentRouter(store, "http://unused")

	payload := []byte(`{"event":"charge.completed","data":{"status":"successful","tx_ref":"nh_1","amount":500}}`)
	signature := signBody(payload)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			postWebhook(router, payload, signature)
		}()
	}
	wg.Wait()

	var gatewayTxs int
	for _, tx := range store.Transactions() {
		if tx.Kind == models.KindTopUpGateway {
			gatewayTxs++
			assert.Equal(t, int64(500), tx.Amount)
		}
	}
	assert.Equal(t, 1, gatewayTxs)
}

func TestSendPayoutEndpoint(t *testing.T) {
	processor := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]interface{}
		json.NewDecoder(r.Body).Decode(&req)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "success",
			"data": map[string]interface{}{
				"id":        7,
				"reference": req["reference"],
				"status":    "NEW",
				"amount":    req["amount"],
			},
		})
	}))
	defer processor.Close()

	t.Run("confirmed payout debits the ledger once", func(t *testing.T) {
		store := ledger.NewMemoryStore(2000)
		router := newPaymentRouter(store, processor.URL)

		rr, body := doJSON(t, router, "POST", "/api/payouts/send",
			`{"destination":"07018084869","amount":1500,"narration":"NutriKit payout"}`)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "NEW", body["status"])

		balance, _ := store.Balance(context.Background())
		assert.Equal(t, int64(500), balance)

		txs := store.Transactions()
		require.Len(t, txs, 1)
		assert.Equal(t, models.KindPayout, txs[0].Kind)
		assert.Equal(t, int64(1500), txs[0].Amount)
	})

	t.Run("rejects payout above balance", func(t *testing.T) {
		store := ledger.NewMemoryStore(100)
		router := newPaymentRouter(store, processor.URL)

		rr, body := doJSON(t, router, "POST", "/api/payouts/send",
			`{"destination":"07018084869","amount":1500}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "insufficient_balance", body["error"])
		assert.Empty(t, store.Transactions())
	})

	t.Run("gateway failure records nothing", func(t *testing.T) {
		down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "down", http.StatusBadGateway)
		}))
		defer down.Close()

		store := ledger.NewMemoryStore(2000)
		router := newPaymentRouter(store, down.URL)

		rr, _ := doJSON(t, router, "POST", "/api/payouts/send",
			fmt.Sprintf(`{"destination":"07018084869","amount":%d}`, 500))
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Empty(t, store.Transactions())

		balance, _ := store.Balance(context.Background())
		assert.Equal(t, int64(2000), balance)
	})
}
