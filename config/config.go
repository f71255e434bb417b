package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers understood by store.Open.
const (
	DriverDynamoDB = "dynamodb"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

// Config holds every setting the service reads at process start.
type Config struct {
	// Server
	Port              string
	MetricsAddr       string
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration

	// Logging
	LogLevel  string
	LogPretty bool

	// Record store
	StoreDriver    string
	ProfilesTable  string
	CartItemsTable string
	FitsTable      string
	FitsUserIndex  string
	DynamoEndpoint string
	MongoURI       string
	DBName         string
	CartPageLimit  int32

	// Object storage
	AWSRegion    string
	AssetsBucket string

	// OAuth provider
	CognitoDomain   string
	CognitoClientID string
	TokenTimeout    time.Duration

	// Identity verification
	JWTSecret string
	JWKSURL   string
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads an optional .env file, then environment variables, applies
// defaults and validates the result.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := Config{
		Port:              getenv("PORT", "8080"),
		MetricsAddr:       getenv("METRICS_ADDR", ":9090"),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		ShutdownTimeout:   getdur("SHUTDOWN_TIMEOUT", 15*time.Second),

		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty: getbool("LOG_PRETTY", false),

		StoreDriver:    strings.ToLower(getenv("STORE_DRIVER", DriverDynamoDB)),
		ProfilesTable:  os.Getenv("PROFILES_TABLE"),
		CartItemsTable: os.Getenv("CART_ITEMS_TABLE"),
		FitsTable:      os.Getenv("FITS_TABLE"),
		FitsUserIndex:  getenv("FITS_USER_INDEX", "UserFitsByDate-Index"),
		DynamoEndpoint: os.Getenv("DYNAMODB_ENDPOINT"),
		MongoURI:       getenv("MONGO_URI", "mongodb://localhost:27017/"),
		DBName:         getenv("DB_NAME", "fitly"),
		CartPageLimit:  int32(getint("CART_PAGE_LIMIT", 50)),

		AWSRegion:    getenv("AWS_REGION", "us-east-1"),
		AssetsBucket: os.Getenv("ASSETS_BUCKET"),

		CognitoDomain:   os.Getenv("COGNITO_DOMAIN"),
		CognitoClientID: os.Getenv("COGNITO_CLIENT_ID"),
		TokenTimeout:    getdur("TOKEN_TIMEOUT", 10*time.Second),

		JWTSecret: os.Getenv("JWT_SECRET"),
		JWKSURL:   os.Getenv("AUTH_JWKS_URL"),
	}

	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}

	return cfg, cfg.Validate()
}

// Validate reports every missing or out-of-range setting at once.
func (c Config) Validate() error {
	var errs []error

	switch c.StoreDriver {
	case DriverDynamoDB, DriverMongo:
		if c.ProfilesTable == "" {
			errs = append(errs, errors.New("PROFILES_TABLE is required"))
		}
		if c.CartItemsTable == "" {
			errs = append(errs, errors.New("CART_ITEMS_TABLE is required"))
		}
		if c.FitsTable == "" {
			errs = append(errs, errors.New("FITS_TABLE is required"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER %q is not one of dynamodb, mongo, memory", c.StoreDriver))
	}

	if c.FitsUserIndex == "" {
		errs = append(errs, errors.New("FITS_USER_INDEX must not be empty"))
	}
	if c.AssetsBucket == "" {
		errs = append(errs, errors.New("ASSETS_BUCKET is required"))
	}
	if c.CognitoDomain == "" {
		errs = append(errs, errors.New("COGNITO_DOMAIN is required"))
	}
	if c.CognitoClientID == "" {
		errs = append(errs, errors.New("COGNITO_CLIENT_ID is required"))
	}
	if c.JWTSecret == "" && c.JWKSURL == "" {
		errs = append(errs, errors.New("one of JWT_SECRET or AUTH_JWKS_URL is required"))
	}
	if c.CartPageLimit < 1 {
		errs = append(errs, errors.New("CART_PAGE_LIMIT must be >= 1"))
	}
	if c.TokenTimeout <= 0 {
		errs = append(errs, errors.New("TOKEN_TIMEOUT must be > 0"))
	}

	return errors.Join(errs...)
}

// TokenURL is the OAuth token endpoint of the configured provider domain.
func (c Config) TokenURL() string {
	domain := strings.TrimSuffix(c.CognitoDomain, "/")
	if strings.HasPrefix(domain, "http://") || strings.HasPrefix(domain, "https://") {
		return domain + "/oauth2/token"
	}
	return "https://" + domain + "/oauth2/token"
}

// Addr is the listen address of the API server.
func (c Config) Addr() string {
	return ":" + c.Port
}

func getenv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func getint(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getdur(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
