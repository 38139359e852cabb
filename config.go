package isbclient

import (
	"fmt"
	"net/http"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	// DefaultTimeout applies to every outbound ISB API request.
	DefaultTimeout = 5 * time.Second

	// DefaultMaxPages caps FetchAllAccounts.
	DefaultMaxPages = 100
)

// Config for isb-client
type Config struct {
	// ServiceIdentity is embedded in every JWT as the "user" claim.
	// Each consumer has a different principal.
	ServiceIdentity ServiceIdentity

	// APIBaseURL is the ISB API Gateway base URL (e.g., "https://abc.execute-api.eu-west-2.amazonaws.com/prod")
	// If empty, resolved from ISB_API_BASE_URL on every call
	APIBaseURL string

	// JWTSecretPath is the Secrets Manager id of the JWT signing secret
	// If empty, resolved from ISB_JWT_SECRET_PATH on every call
	JWTSecretPath string

	// Timeout is the per-request timeout (default: 5s)
	Timeout time.Duration

	// Logger receives leveled, structured log lines (default: zerolog JSON on stderr)
	Logger Logger

	// HTTPClient sends ISB API requests (default: a plain http.Client; timeouts come from the request context)
	HTTPClient *http.Client

	// SecretFetcher loads the signing secret (default: AWS Secrets Manager with the default credential chain)
	SecretFetcher SecretFetcher

	// Settings supplies fallback values for APIBaseURL and JWTSecretPath (default: EnvironmentSettings)
	Settings SettingsProvider

	// MetricsRegisterer, if set, receives the client's Prometheus collectors
	MetricsRegisterer prometheus.Registerer
}

// Settings are the environment-sourced fallbacks for Config.
type Settings struct {
	APIBaseURL    string `envconfig:"ISB_API_BASE_URL"`
	JWTSecretPath string `envconfig:"ISB_JWT_SECRET_PATH"`
}

// SettingsProvider returns the current fallback settings. It is called on
// every operation, so changes to its source take effect without a new client.
type SettingsProvider func() (Settings, error)

// EnvironmentSettings reads ISB_API_BASE_URL and ISB_JWT_SECRET_PATH.
func EnvironmentSettings() (Settings, error) {
	var s Settings
	if err := envconfig.Process("", &s); err != nil {
		return Settings{}, fmt.Errorf("isb-client: failed to read environment: %w", err)
	}
	return s, nil
}

// Validate checks that all required config fields are set
func (c *Config) Validate() error {
	if c.ServiceIdentity.Email == "" {
		return fmt.Errorf("isb-client: ServiceIdentity.Email is required")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("isb-client: Timeout must not be negative")
	}
	return nil
}

// GetTimeout returns the request timeout (with default)
func (c *Config) GetTimeout() time.Duration {
	if c.Timeout == 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

// GetSettingsProvider returns the fallback provider (with default)
func (c *Config) GetSettingsProvider() SettingsProvider {
	if c.Settings == nil {
		return EnvironmentSettings
	}
	return c.Settings
}

// endpointConfig is the effective configuration for one call.
type endpointConfig struct {
	apiBaseURL    string
	jwtSecretPath string
	timeout       time.Duration
}

// resolve merges explicit config with the fallback provider. It reports false
// when either the base URL or the secret path is still missing.
func (c *Config) resolve() (endpointConfig, bool) {
	resolved := endpointConfig{
		apiBaseURL:    c.APIBaseURL,
		jwtSecretPath: c.JWTSecretPath,
		timeout:       c.GetTimeout(),
	}

	if resolved.apiBaseURL == "" || resolved.jwtSecretPath == "" {
		// A broken environment is the same as an empty one
		fallback, _ := c.GetSettingsProvider()()
		if resolved.apiBaseURL == "" {
			resolved.apiBaseURL = fallback.APIBaseURL
		}
		if resolved.jwtSecretPath == "" {
			resolved.jwtSecretPath = fallback.JWTSecretPath
		}
	}

	return resolved, resolved.apiBaseURL != "" && resolved.jwtSecretPath != ""
}
