package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Port          string
	MongoURI      string
	MongoDatabase string

	FlutterwaveBaseURL       string
	FlutterwaveSecretKey     string
	FlutterwaveWebhookSecret string
	FlutterwaveRedirectURL   string

	OpenAIAPIKey  string
	OpenAIBaseURL string

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string

	RedeemCost  int64
	SeedBalance int64
}

func Load() (*Config, error) {
	uri := os.Getenv("MONGOURI")
	if uri == "" {
		return nil, fmt.Errorf("MONGOURI environment variable is required")
	}

	cfg := &Config{
		Port:                     envOr("PORT", "4000"),
		MongoURI:                 uri,
		MongoDatabase:            envOr("MONGO_DATABASE", "nutriwalletdb"),
		FlutterwaveBaseURL:       envOr("FLW_BASE_URL", "https://api.flutterwave.com"),
		FlutterwaveSecretKey:     os.Getenv("FLW_SECRET_KEY"),
		FlutterwaveWebhookSecret: os.Getenv("FLW_WEBHOOK_SECRET"),
		FlutterwaveRedirectURL:   envOr("FLW_REDIRECT_URL", "https://your-frontend.com/payments/confirm"),
		OpenAIAPIKey:             os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:            envOr("OPENAI_BASE_URL", "https://api.openai.com"),
		TwilioAccountSID:         os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:          os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFromNumber:         os.Getenv("TWILIO_PHONE_NUMBER"),
	}

	var err error
	if cfg.RedeemCost, err = envInt64("REDEEM_COST", 1000); err != nil {
		return nil, err
	}
	if cfg.SeedBalance, err = envInt64("WALLET_SEED_BALANCE", 2500); err != nil {
		return nil, err
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt64(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", key, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return n, nil
}
