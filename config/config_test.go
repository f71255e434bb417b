package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("PROFILES_TABLE", "profiles")
	t.Setenv("CART_ITEMS_TABLE", "cart")
	t.Setenv("FITS_TABLE", "fits")
	t.Setenv("ASSETS_BUCKET", "assets")
	t.Setenv("COGNITO_DOMAIN", "auth.example.com")
	t.Setenv("COGNITO_CLIENT_ID", "client-123")
	t.Setenv("JWT_SECRET", "secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, ":9090", cfg.MetricsAddr)
	assert.Equal(t, DriverDynamoDB, cfg.StoreDriver)
	assert.Equal(t, "UserFitsByDate-Index", cfg.FitsUserIndex)
	assert.Equal(t, "fitly", cfg.DBName)
	assert.Equal(t, int32(50), cfg.CartPageLimit)
	assert.Equal(t, 10*time.Second, cfg.TokenTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "9000")
	t.Setenv("STORE_DRIVER", "MONGO")
	t.Setenv("LOG_LEVEL", "warning")
	t.Setenv("CART_PAGE_LIMIT", "5")
	t.Setenv("TOKEN_TIMEOUT", "3s")
	t.Setenv("LOG_PRETTY", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, DriverMongo, cfg.StoreDriver)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, int32(5), cfg.CartPageLimit)
	assert.Equal(t, 3*time.Second, cfg.TokenTimeout)
	assert.True(t, cfg.LogPretty)
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("STORE_DRIVER", "dynamodb")
	t.Setenv("PROFILES_TABLE", "")
	t.Setenv("CART_ITEMS_TABLE", "")
	t.Setenv("FITS_TABLE", "")
	t.Setenv("ASSETS_BUCKET", "")
	t.Setenv("COGNITO_DOMAIN", "")
	t.Setenv("COGNITO_CLIENT_ID", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("AUTH_JWKS_URL", "")

	_, err := Load()
	require.Error(t, err)
	for _, want := range []string{"PROFILES_TABLE", "CART_ITEMS_TABLE", "FITS_TABLE", "ASSETS_BUCKET", "COGNITO_DOMAIN", "COGNITO_CLIENT_ID", "JWT_SECRET"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestLoad_MemoryDriverSkipsTables(t *testing.T) {
	setRequired(t)
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("PROFILES_TABLE", "")
	t.Setenv("CART_ITEMS_TABLE", "")
	t.Setenv("FITS_TABLE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
}

func TestLoad_UnknownDriver(t *testing.T) {
	setRequired(t)
	t.Setenv("STORE_DRIVER", "sqlite")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORE_DRIVER")
}

func TestTokenURL(t *testing.T) {
	cases := map[string]string{
		"auth.example.com":         "https://auth.example.com/oauth2/token",
		"auth.example.com/":        "https://auth.example.com/oauth2/token",
		"http://127.0.0.1:4000":    "http://127.0.0.1:4000/oauth2/token",
		"https://auth.example.com": "https://auth.example.com/oauth2/token",
	}
	for domain, want := range cases {
		assert.Equal(t, want, Config{CognitoDomain: domain}.TokenURL(), domain)
	}
}
