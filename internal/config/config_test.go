package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/technyks/checkout/internal/config"
)

func TestLoadWithoutSecretKey(t *testing.T) {
	// Client binaries load configuration without processor credentials;
	// only the API server enforces them.
	cfg, err := config.LoadForTests(map[string]string{
		"STRIPE_SECRET_KEY": "",
	})
	require.NoError(t, err)

	err = cfg.RequireProcessor()
	require.Error(t, err)
	require.Contains(t, err.Error(), "STRIPE_SECRET_KEY")
}

func TestRequireProcessorWithKey(t *testing.T) {
	cfg, err := config.LoadForTests(map[string]string{
		"STRIPE_SECRET_KEY": "sk_test_123",
	})
	require.NoError(t, err)
	require.NoError(t, cfg.RequireProcessor())
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.LoadForTests(map[string]string{
		"STRIPE_SECRET_KEY": "sk_test_123",
		"PORT":              "",
		"STRIPE_API_VERSION": "",
	})
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, "2020-08-27", cfg.StripeAPIVersion)
	require.Equal(t, "Technyks", cfg.MerchantDisplayName)
	require.Equal(t, 10*time.Second, cfg.IntentRequestTimeout)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := config.LoadForTests(map[string]string{
		"STRIPE_SECRET_KEY":     "sk_test_123",
		"PORT":                  "9090",
		"MERCHANT_COUNTRY_CODE": "US",
		"SESSION_GUARD_TTL":     "30s",
		"CORS_ALLOWED_ORIGINS":  "https://a.example, https://b.example",
	})
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddr())
	require.Equal(t, "US", cfg.CountryCode)
	require.Equal(t, 30*time.Second, cfg.SessionGuardTTL)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
}
