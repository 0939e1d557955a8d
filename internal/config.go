package internal

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	Port     int
	LogLevel string

	// Record store
	MongoURI      string
	MongoDatabase string

	// Application base URL (for links in order emails)
	BaseURL string

	// Storage Configuration
	StorageProvider string // "local" or "r2"

	// Local Storage (development)
	LocalStoragePath string // Base directory for local file storage
	LocalStorageURL  string // Base URL for accessing local files

	// R2 Storage (production)
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicURL       string // Optional custom domain URL

	// Prediction provider configuration
	PredictionProvider string // "fashn" or "mock"
	FashnBaseURL       string
	FashnAPIKey        string

	// Try-on orchestration
	TryOnPollInterval    time.Duration
	TryOnMaxPollDuration time.Duration

	// Brand watermark stamped onto generated results
	LogoPath string

	// Identity provider token verification
	AuthTokenSecret string

	// Order notifications
	SendGridAPIKey string
	OrderFromName  string
	OrderFromEmail string
	AdminEmail     string
	ChatWebhookURL string // Optional ops-channel webhook for order alerts

	// Back-office API key. Empty disables admin endpoints.
	AdminAPIKey string

	// Metrics endpoint authentication
	// If both are empty, the /metrics endpoint will be unprotected (not recommended)
	MetricsUsername string
	MetricsPassword string
}

func NewConfig() (*Config, error) {
	// Load .env file if it exists (ignored in production)
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		MongoDatabase: getEnv("MONGO_DATABASE", "modessa"),

		// Base URL defaults to localhost for development
		BaseURL: getEnv("BASE_URL", "http://localhost:8080"),

		// Storage defaults to local filesystem for development
		StorageProvider:  getEnv("STORAGE_PROVIDER", "local"),
		LocalStoragePath: getEnv("LOCAL_STORAGE_PATH", "./storage"),
		LocalStorageURL:  getEnv("LOCAL_STORAGE_URL", "http://localhost:8080/files"),

		// R2 configuration (production only)
		R2AccountID:       getEnv("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
		R2SecretAccessKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2BucketName:      getEnv("R2_BUCKET_NAME", ""),
		R2PublicURL:       getEnv("R2_PUBLIC_URL", ""),

		// Prediction provider defaults to the mock so development works
		// without burning real generation credits
		PredictionProvider: getEnv("PREDICTION_PROVIDER", "mock"),
		FashnBaseURL:       getEnv("FASHN_BASE_URL", "https://api.fashn.ai/v1"),
		FashnAPIKey:        getEnv("FASHN_API_KEY", ""),

		TryOnPollInterval:    getEnvDuration("TRYON_POLL_INTERVAL", 3*time.Second),
		TryOnMaxPollDuration: getEnvDuration("TRYON_MAX_POLL_DURATION", 2*time.Minute),

		LogoPath: getEnv("LOGO_PATH", ""),

		AuthTokenSecret: getEnv("AUTH_TOKEN_SECRET", ""),

		// Order notifications
		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
		OrderFromName:  getEnv("ORDER_FROM_NAME", "Modessa"),
		OrderFromEmail: getEnv("ORDER_FROM_EMAIL", "orders@modessa.shop"),
		AdminEmail:     getEnv("ADMIN_EMAIL", ""),
		ChatWebhookURL: getEnv("CHAT_WEBHOOK_URL", ""),

		AdminAPIKey: getEnv("ADMIN_API_KEY", ""),

		// Metrics authentication
		MetricsUsername: getEnv("METRICS_USERNAME", ""),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),
	}

	// Required
	cfg.MongoURI = os.Getenv("MONGO_URI")
	if cfg.MongoURI == "" {
		return nil, fmt.Errorf("MONGO_URI is required")
	}

	// Validate storage configuration
	if cfg.StorageProvider == "r2" {
		if cfg.R2AccountID == "" {
			return nil, fmt.Errorf("R2_ACCOUNT_ID is required when STORAGE_PROVIDER is 'r2'")
		}
		if cfg.R2AccessKeyID == "" {
			return nil, fmt.Errorf("R2_ACCESS_KEY_ID is required when STORAGE_PROVIDER is 'r2'")
		}
		if cfg.R2SecretAccessKey == "" {
			return nil, fmt.Errorf("R2_SECRET_ACCESS_KEY is required when STORAGE_PROVIDER is 'r2'")
		}
		if cfg.R2BucketName == "" {
			return nil, fmt.Errorf("R2_BUCKET_NAME is required when STORAGE_PROVIDER is 'r2'")
		}
	} else if cfg.StorageProvider != "local" {
		return nil, fmt.Errorf("STORAGE_PROVIDER must be either 'local' or 'r2', got: %s", cfg.StorageProvider)
	}

	// Validate prediction provider configuration
	if cfg.PredictionProvider == "fashn" {
		if cfg.FashnAPIKey == "" {
			return nil, fmt.Errorf("FASHN_API_KEY is required when PREDICTION_PROVIDER is 'fashn'")
		}
	} else if cfg.PredictionProvider != "mock" {
		return nil, fmt.Errorf("PREDICTION_PROVIDER must be either 'fashn' or 'mock', got: %s", cfg.PredictionProvider)
	}

	if cfg.AuthTokenSecret == "" {
		return nil, fmt.Errorf("AUTH_TOKEN_SECRET is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
