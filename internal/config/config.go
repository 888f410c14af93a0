package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Entitlement store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreSupabase = "supabase"
)

type Config struct {
	// Stripe
	StripeSecretKey     string
	StripeWebhookSecret string
	StripePriceMonthly  string
	StripePriceLifetime string

	// Site URL used to build checkout redirect targets. Falls back to the request host when empty.
	SiteURL string

	// Entitlements
	EntitlementStore   string
	DatabaseURL        string
	SupabaseURL        string
	SupabaseServiceKey string
	SupabaseJWTSecret  string

	// Slack
	SlackBotToken  string
	SlackChannelID string

	// Editor
	ExportSettleDelay time.Duration
	SessionTTL        time.Duration
	MaxUploadBytes    int64
	MaxUploadPixels   int64
	MaxRenders        int64

	// Server
	Port        string
	Environment string
	LogLevel    string
}

// Load reads configuration from the environment, after loading an optional .env file.
func Load() (*Config, error) {
	// Missing .env is the normal case in deployed environments.
	_ = godotenv.Load()

	settle, err := getDuration("EXPORT_SETTLE_DELAY", 100*time.Millisecond)
	if err != nil {
		return nil, err
	}
	ttl, err := getDuration("SESSION_TTL", 2*time.Hour)
	if err != nil {
		return nil, err
	}
	maxUpload, err := getInt64("MAX_UPLOAD_BYTES", 20<<20)
	if err != nil {
		return nil, err
	}
	maxPixels, err := getInt64("MAX_UPLOAD_PIXELS", 50_000_000)
	if err != nil {
		return nil, err
	}
	maxRenders, err := getInt64("MAX_CONCURRENT_RENDERS", 2)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		StripePriceMonthly:  getEnv("STRIPE_PRICE_MONTHLY", "price_xxxxxxxxxxxx"),
		StripePriceLifetime: getEnv("STRIPE_PRICE_LIFETIME", "price_yyyyyyyyyyyy"),

		SiteURL: getEnv("SITE_URL", ""),

		EntitlementStore:   getEnv("ENTITLEMENT_STORE", StoreMemory),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		SupabaseURL:        getEnv("SUPABASE_URL", ""),
		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_KEY", ""),
		SupabaseJWTSecret:  getEnv("SUPABASE_JWT_SECRET", ""),

		SlackBotToken:  getEnv("SLACK_BOT_TOKEN", ""),
		SlackChannelID: getEnv("SLACK_CHANNEL_ID", ""),

		ExportSettleDelay: settle,
		SessionTTL:        ttl,
		MaxUploadBytes:    maxUpload,
		MaxUploadPixels:   maxPixels,
		MaxRenders:        maxRenders,

		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.StripeSecretKey == "" {
		return fmt.Errorf("STRIPE_SECRET_KEY is required")
	}
	if c.StripeWebhookSecret == "" {
		return fmt.Errorf("STRIPE_WEBHOOK_SECRET is required")
	}
	switch c.EntitlementStore {
	case StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when ENTITLEMENT_STORE=postgres")
		}
	case StoreSupabase:
		if c.SupabaseURL == "" || c.SupabaseServiceKey == "" {
			return fmt.Errorf("SUPABASE_URL and SUPABASE_SERVICE_KEY are required when ENTITLEMENT_STORE=supabase")
		}
	default:
		return fmt.Errorf("unknown ENTITLEMENT_STORE %q", c.EntitlementStore)
	}
	if c.SlackBotToken != "" && c.SlackChannelID == "" {
		return fmt.Errorf("SLACK_CHANNEL_ID is required when SLACK_BOT_TOKEN is set")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	if c.MaxUploadPixels <= 0 {
		return fmt.Errorf("MAX_UPLOAD_PIXELS must be positive")
	}
	if c.MaxRenders <= 0 {
		return fmt.Errorf("MAX_CONCURRENT_RENDERS must be positive")
	}
	return nil
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getInt64(key string, defaultValue int64) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
