package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	RedisURL           string
	CORSAllowedOrigins []string

	StripeSecretKey      string
	StripePublishableKey string
	StripeAPIVersion     string

	MerchantDisplayName string
	MerchantIdentifier  string
	CountryCode         string
	CurrencyCode        string

	APIBaseURL string

	IntentRequestTimeout time.Duration
	PresentTimeout       time.Duration
	ConfirmTimeout       time.Duration
	SessionGuardTTL      time.Duration
	IdempotencyTTL       time.Duration
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		RedisURL:           k.String("REDIS_URL"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		StripeSecretKey:      k.String("STRIPE_SECRET_KEY"),
		StripePublishableKey: k.String("STRIPE_PUBLISHABLE_KEY"),
		StripeAPIVersion:     valueOrDefault(k.String("STRIPE_API_VERSION"), "2020-08-27"),

		MerchantDisplayName: valueOrDefault(k.String("MERCHANT_DISPLAY_NAME"), "Technyks"),
		MerchantIdentifier:  valueOrDefault(k.String("MERCHANT_IDENTIFIER"), "merchant.com.getcapacitor.stripe"),
		CountryCode:         valueOrDefault(k.String("MERCHANT_COUNTRY_CODE"), "IN"),
		CurrencyCode:        valueOrDefault(k.String("MERCHANT_CURRENCY_CODE"), "INR"),

		APIBaseURL: valueOrDefault(k.String("API_BASE_URL"), "http://localhost:8080"),

		IntentRequestTimeout: parseDuration(k.String("INTENT_REQUEST_TIMEOUT"), "10s"),
		PresentTimeout:       parseDuration(k.String("PRESENT_TIMEOUT"), "5m"),
		ConfirmTimeout:       parseDuration(k.String("CONFIRM_TIMEOUT"), "2m"),
		SessionGuardTTL:      parseDuration(k.String("SESSION_GUARD_TTL"), "2m"),
		IdempotencyTTL:       parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
	}

	return cfg, nil
}

// RequireProcessor validates the settings only the API server needs. Client
// binaries never talk to the processor directly and skip this check.
func (c *Config) RequireProcessor() error {
	if c.StripeSecretKey == "" {
		return errors.New("STRIPE_SECRET_KEY is required")
	}
	return nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
