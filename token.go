package isbclient

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

const (
	// tokenRenewalBuffer: a cached token is re-signed once it has less than this left.
	tokenRenewalBuffer = 60 * time.Second
)

// TokenManager owns the cached signing secret and the cached bearer token.
// Lazy renewal: the token is re-signed only when it is missing or within
// the renewal buffer of expiry. Safe for concurrent use.
//
// Concurrent callers racing on a cold or expiring cache may each fetch the
// secret or sign a token; the last writer wins.
type TokenManager struct {
	identity ServiceIdentity
	fetcher  SecretFetcher
	now      func() time.Time
	metrics  *clientMetrics

	mu     sync.Mutex
	secret string
	token  string
	expiry int64 // epoch seconds
}

// NewTokenManager creates an empty token cache for identity.
func NewTokenManager(identity ServiceIdentity, fetcher SecretFetcher) *TokenManager {
	if identity.Roles == nil {
		identity.Roles = []string{}
	}
	return &TokenManager{
		identity: identity,
		fetcher:  fetcher,
		now:      time.Now,
	}
}

// Token returns a bearer token with at least a minute of validity left.
// The secret store is contacted only when no secret is cached.
func (m *TokenManager) Token(ctx context.Context, secretPath string) (string, error) {
	m.mu.Lock()
	secret := m.secret
	m.mu.Unlock()

	if secret == "" {
		fetched, err := m.fetcher.FetchSecret(ctx, secretPath)
		if err == nil && fetched == "" {
			err = fmt.Errorf("%w: JWT secret is empty", ErrSecretUnavailable)
		}
		m.metrics.observeSecretFetch(err)
		if err != nil {
			if !errors.Is(err, ErrSecretUnavailable) {
				err = fmt.Errorf("%w: %w", ErrSecretUnavailable, err)
			}
			return "", err
		}

		m.mu.Lock()
		m.secret = fetched
		m.mu.Unlock()
		secret = fetched
	}

	now := m.now().Unix()

	m.mu.Lock()
	token, expiry := m.token, m.expiry
	m.mu.Unlock()

	if token != "" && now < expiry-int64(tokenRenewalBuffer/time.Second) {
		return token, nil
	}

	signed, err := signJWTAt(map[string]any{"user": m.identity}, secret, DefaultTokenTTL, time.Unix(now, 0))
	if err != nil {
		return "", err
	}

	// Cache only if the secret we signed with is still the cached one;
	// an Invalidate in between must not leave a token without a secret.
	m.mu.Lock()
	if m.secret == secret {
		m.token = signed
		m.expiry = now + int64(DefaultTokenTTL/time.Second)
	}
	m.mu.Unlock()

	return signed, nil
}

// Invalidate clears the secret, the token and its expiry.
// Call this after receiving a 401 or 403 so the next call re-fetches the secret.
func (m *TokenManager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secret = ""
	m.token = ""
	m.expiry = 0
	m.metrics.observeInvalidation()
}

// Expiry returns the expiry time of the cached token.
// Returns zero time if no token is cached.
func (m *TokenManager) Expiry() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == "" {
		return time.Time{}
	}
	return time.Unix(m.expiry, 0)
}

// HasValidToken returns true if a cached token has not expired yet.
func (m *TokenManager) HasValidToken() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token != "" && m.now().Unix() < m.expiry
}
