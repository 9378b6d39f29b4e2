package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	productionBaseURL = "https://api.safaricom.co.ke"
	sandboxBaseURL    = "https://sandbox.safaricom.co.ke"

	authPath    = "/oauth/v1/generate?grant_type=client_credentials"
	stkPushPath = "/mpesa/stkpush/v1/processrequest"
)

type Config struct {
	AppPort string

	ConsumerKey    string
	ConsumerSecret string
	Passkey        string
	Shortcode      string
	AccountNumber  string
	Environment    string
	CallbackURL    string

	// BaseURL overrides the environment-derived gateway host. Tests use it
	// to point the client at a local server.
	BaseURL string

	RelayURL string

	SQLiteDSN string

	HTTPTimeoutSeconds int
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// Load reads configuration from the environment. A .env file is applied
// first when present; real deployments set variables directly.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppPort:            getenv("APP_PORT", "8080"),
		ConsumerKey:        os.Getenv("MPESA_CONSUMER_KEY"),
		ConsumerSecret:     os.Getenv("MPESA_CONSUMER_SECRET"),
		Passkey:            os.Getenv("MPESA_PASSKEY"),
		Shortcode:          getenv("MPESA_SHORTCODE", "500005"),
		AccountNumber:      getenv("MPESA_ACCOUNT_NUMBER", "BA0619032"),
		Environment:        getenv("MPESA_ENV", "production"),
		CallbackURL:        os.Getenv("CALLBACK_URL"),
		BaseURL:            os.Getenv("MPESA_BASE_URL"),
		RelayURL:           os.Getenv("RELAY_URL"),
		SQLiteDSN:          getenv("SQLITE_DSN", "./mpesa.db"),
		HTTPTimeoutSeconds: getInt("HTTP_TIMEOUT_SECONDS", 30),
	}
}

func (c Config) gatewayBase() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	if c.Environment == "production" {
		return productionBaseURL
	}
	return sandboxBaseURL
}

// AuthURL returns the OAuth token endpoint for the configured environment.
func (c Config) AuthURL() string {
	return c.gatewayBase() + authPath
}

// STKPushURL returns the payment initiation endpoint for the configured
// environment.
func (c Config) STKPushURL() string {
	return c.gatewayBase() + stkPushPath
}
