package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nutrihealth/nutriwallet-gobackend/internal/config"
	"github.com/nutrihealth/nutriwallet-gobackend/internal/db"
	"github.com/nutrihealth/nutriwallet-gobackend/internal/handlers"
	"github.com/nutrihealth/nutriwallet-gobackend/internal/ledger"
	"github.com/nutrihealth/nutriwallet-gobackend/internal/services"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Error loading .env: %s", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	client, err := db.Connect(context.Background(), cfg.MongoURI)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := client.Disconnect(ctx); err != nil {
			log.Printf("Error disconnecting from MongoDB: %v", err)
		}
	}()

	database := client.Database(cfg.MongoDatabase)

	store, err := ledger.NewMongoStore(context.Background(), database, cfg.SeedBalance)
	if err != nil {
		log.Fatalf("Failed to initialize ledger store: %v", err)
	}

	// Services
	walletService := services.NewWalletService(store, cfg.RedeemCost)
	gateway := services.NewFlutterwaveService(store, cfg.FlutterwaveBaseURL, cfg.FlutterwaveSecretKey, cfg.FlutterwaveRedirectURL)
	reconciler := services.NewReconciler(store, cfg.FlutterwaveWebhookSecret)
	advisor := services.NewAdvisor(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)
	chatService := services.NewChatService(database)
	growthService := services.NewGrowthService(database)
	smsService := services.NewSMSService("https://api.twilio.com", cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber)

	// Handlers
	walletHandler := handlers.NewWalletHandler(walletService)
	paymentHandler := handlers.NewPaymentHandler(gateway, reconciler, store)
	chatHandler := handlers.NewChatHandler(advisor, chatService)
	growthHandler := handlers.NewGrowthHandler(growthService)
	smsHandler := handlers.NewSMSHandler(advisor, smsService)
	imageHandler := handlers.NewImageHandler()

	// Router
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.Handler())
	router.HandleFunc("/api/health", handlers.Health).Methods("GET")

	router.HandleFunc("/api/wallet", walletHandler.GetWallet).Methods("GET")
	router.HandleFunc("/api/wallet/topup", walletHandler.TopUp).Methods("POST")
	router.HandleFunc("/api/wallet/redeem", walletHandler.Redeem).Methods("POST")

	router.HandleFunc("/api/payments/init", paymentHandler.InitPayment).Methods("POST")
	router.HandleFunc("/api/payments/webhook", paymentHandler.Webhook).Methods("POST")
	router.HandleFunc("/api/payouts/send", paymentHandler.SendPayout).Methods("POST")

	router.HandleFunc("/api/chat", chatHandler.Chat).Methods("POST")
	router.HandleFunc("/api/growth", growthHandler.RecordGrowth).Methods("POST")
	router.HandleFunc("/api/growth", growthHandler.ListGrowth).Methods("GET")
	router.HandleFunc("/api/image", imageHandler.AnalyzeImage).Methods("POST")
	router.HandleFunc("/api/sms/webhook", smsHandler.InboundSMS).Methods("POST")
	router.HandleFunc("/api/sms/send", smsHandler.SendSMS).Methods("POST")

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	log.Printf("Server running on port %s", cfg.Port)
	log.Fatal(server.ListenAndServe())
}
