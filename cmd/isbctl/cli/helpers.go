package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"

	isbclient "github.com/eu-native-platform/libraries/go/isb-client"
)

// errNoRecord is returned by read commands. The client log on stderr says why.
var errNoRecord = errors.New("no record returned; see the client log for the reason")

type globalFlags struct {
	baseURL       string
	secretPath    string
	email         string
	roles         []string
	correlationID string
	logLevel      string
	timeout       time.Duration
}

var globals globalFlags

// identitySettings fills in the service identity when --email is not given.
type identitySettings struct {
	Email string   `envconfig:"ISB_SERVICE_EMAIL"`
	Roles []string `envconfig:"ISB_SERVICE_ROLES"`
}

// newSecretFetcher builds the secret store used to sign tokens.
var newSecretFetcher = func(ctx context.Context) (isbclient.SecretFetcher, error) {
	return isbclient.NewSecretsManagerFetcher(ctx)
}

// RegisterGlobalFlags adds the flags shared by every API command.
func RegisterGlobalFlags(root *cobra.Command) {
	f := root.PersistentFlags()
	f.StringVar(&globals.baseURL, "base-url", "", "ISB API base URL (default: $ISB_API_BASE_URL)")
	f.StringVar(&globals.secretPath, "secret-path", "", "Secrets Manager id of the JWT signing secret (default: $ISB_JWT_SECRET_PATH)")
	f.StringVar(&globals.email, "email", "", "service identity email (default: $ISB_SERVICE_EMAIL)")
	f.StringSliceVar(&globals.roles, "roles", nil, "service identity roles (default: $ISB_SERVICE_ROLES or Admin)")
	f.StringVar(&globals.correlationID, "correlation-id", "", "X-Correlation-Id for the request (default: random UUID)")
	f.StringVar(&globals.logLevel, "log-level", "warn", "client log level: debug, warn or error")
	f.DurationVar(&globals.timeout, "timeout", isbclient.DefaultTimeout, "per-request timeout")
}

func serviceIdentity() (isbclient.ServiceIdentity, error) {
	var env identitySettings
	if err := envconfig.Process("", &env); err != nil {
		return isbclient.ServiceIdentity{}, fmt.Errorf("reading environment: %w", err)
	}

	identity := isbclient.ServiceIdentity{Email: globals.email, Roles: globals.roles}
	if identity.Email == "" {
		identity.Email = env.Email
	}
	if len(identity.Roles) == 0 {
		identity.Roles = env.Roles
	}
	if len(identity.Roles) == 0 {
		identity.Roles = []string{"Admin"}
	}
	if identity.Email == "" {
		return isbclient.ServiceIdentity{}, fmt.Errorf("no service identity; pass --email or set ISB_SERVICE_EMAIL")
	}
	return identity, nil
}

// newClient builds an ISB client from the global flags.
func newClient(cmd *cobra.Command) (*isbclient.Client, error) {
	identity, err := serviceIdentity()
	if err != nil {
		return nil, err
	}
	if globals.timeout <= 0 {
		return nil, fmt.Errorf("--timeout must be positive")
	}

	fetcher, err := newSecretFetcher(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("setting up secret store: %w", err)
	}

	client, err := isbclient.New(isbclient.Config{
		ServiceIdentity: identity,
		APIBaseURL:      globals.baseURL,
		JWTSecretPath:   globals.secretPath,
		Timeout:         globals.timeout,
		Logger:          isbclient.NewJSONLogger(cmd.ErrOrStderr(), globals.logLevel),
		SecretFetcher:   fetcher,
	})
	if err != nil {
		return nil, fmt.Errorf("creating client: %w", err)
	}
	return client, nil
}

func correlationID() string {
	if globals.correlationID != "" {
		return globals.correlationID
	}
	return uuid.NewString()
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

// printRecord prints a read result, or fails when the client returned nothing.
func printRecord[T any](cmd *cobra.Command, record *T) error {
	if record == nil {
		return errNoRecord
	}
	return printJSON(cmd, record)
}

// writeOutput is the printed form of a write result.
type writeOutput struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"statusCode"`
	Error      string `json:"error,omitempty"`
	Data       any    `json:"data,omitempty"`
}

// printResult prints a write result and turns a failure into a non-zero exit.
func printResult[T any](cmd *cobra.Command, result isbclient.Result[T]) error {
	out := writeOutput{Success: result.Success, StatusCode: result.StatusCode, Error: result.Error}
	if result.Success {
		out.Data = result.Data
	}
	if err := printJSON(cmd, out); err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("request failed: %s", result.Error)
	}
	return nil
}
