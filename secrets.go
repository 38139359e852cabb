package isbclient

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// ErrSecretUnavailable is returned when the signing secret cannot be loaded
// or is empty.
var ErrSecretUnavailable = errors.New("isb-client: JWT secret unavailable")

// SecretFetcher loads the JWT signing secret stored at path.
type SecretFetcher interface {
	FetchSecret(ctx context.Context, path string) (string, error)
}

// SecretFetcherFunc adapts a function to SecretFetcher.
type SecretFetcherFunc func(ctx context.Context, path string) (string, error)

// FetchSecret calls f.
func (f SecretFetcherFunc) FetchSecret(ctx context.Context, path string) (string, error) {
	return f(ctx, path)
}

// SecretsManagerAPI is the subset of the Secrets Manager client used here.
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretsManagerFetcher reads the signing secret from AWS Secrets Manager.
type SecretsManagerFetcher struct {
	api SecretsManagerAPI
}

// NewSecretsManagerFetcher builds a fetcher from the default AWS credential
// chain. optFns are passed to config.LoadDefaultConfig.
func NewSecretsManagerFetcher(ctx context.Context, optFns ...func(*config.LoadOptions) error) (*SecretsManagerFetcher, error) {
	cfg, err := config.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("isb-client: failed to load AWS config: %w", err)
	}
	return NewSecretsManagerFetcherFromAPI(secretsmanager.NewFromConfig(cfg)), nil
}

// NewSecretsManagerFetcherFromAPI wraps an existing Secrets Manager client.
func NewSecretsManagerFetcherFromAPI(api SecretsManagerAPI) *SecretsManagerFetcher {
	return &SecretsManagerFetcher{api: api}
}

// FetchSecret returns the SecretString stored at path.
func (f *SecretsManagerFetcher) FetchSecret(ctx context.Context, path string) (string, error) {
	out, err := f.api.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: aws.String(path)})
	if err != nil {
		return "", fmt.Errorf("%w: GetSecretValue(%s): %w", ErrSecretUnavailable, path, err)
	}
	if aws.ToString(out.SecretString) == "" {
		return "", fmt.Errorf("%w: JWT secret is empty", ErrSecretUnavailable)
	}
	return *out.SecretString, nil
}
