// Package isbclient provides an authenticated client for the Innovation
// Sandbox (ISB) API.
//
// Reads (leases, accounts, templates) degrade to nil on any failure so callers
// can treat them as optional enrichment. Writes (lease review, account
// registration) return a Result carrying the HTTP status code. No call ever
// returns an error or panics past the client boundary.
//
// Example usage:
//
//	client, err := isbclient.New(isbclient.Config{
//	    ServiceIdentity: isbclient.ServiceIdentity{
//	        Email: "notifications@example.gov.uk",
//	        Roles: []string{"Admin"},
//	    },
//	    APIBaseURL:    "https://abc123.execute-api.eu-west-2.amazonaws.com/prod",
//	    JWTSecretPath: "/InnovationSandbox/ndx/Auth/JwtSecret",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	lease := client.FetchLeaseByKey(ctx, "user@example.gov.uk", leaseUUID, eventID)
//	if lease != nil {
//	    // enrich
//	}
package isbclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNotConfigured is the failure reported when the base URL or secret path
// cannot be resolved.
var ErrNotConfigured = errors.New("ISB API not configured")

const unexpectedResponseMessage = "Unexpected response from ISB API"

// Client calls the ISB API on behalf of one service identity.
// Thread-safe for concurrent use.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     Logger
	tokens     *TokenManager
	metrics    *clientMetrics
}

// New creates a new ISB API client.
// Returns an error if config is invalid or the default secret store cannot be set up.
func New(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	metrics, err := newClientMetrics(config.MetricsRegisterer)
	if err != nil {
		return nil, fmt.Errorf("isb-client: failed to register metrics: %w", err)
	}

	fetcher := config.SecretFetcher
	if fetcher == nil {
		sm, err := NewSecretsManagerFetcher(context.Background())
		if err != nil {
			return nil, err
		}
		fetcher = sm
	}

	logger := config.Logger
	if logger == nil {
		logger = defaultLogger()
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	tokens := NewTokenManager(config.ServiceIdentity, fetcher)
	tokens.metrics = metrics

	return &Client{
		config:     config,
		httpClient: httpClient,
		logger:     logger,
		tokens:     tokens,
		metrics:    metrics,
	}, nil
}

// ResetTokenCache clears the cached secret and token, exactly as a 401/403 does.
func (c *Client) ResetTokenCache() {
	c.tokens.Invalidate()
}

// TokenExpiry returns the expiry time of the cached token.
// Returns zero time if no token is cached.
func (c *Client) TokenExpiry() time.Time {
	return c.tokens.Expiry()
}

// HasValidToken returns true if a valid (non-expired) token is cached.
func (c *Client) HasValidToken() bool {
	return c.tokens.HasValidToken()
}

// resolveConfig returns the effective endpoint config for this call, or false
// (after logging) when the client is not configured.
func (c *Client) resolveConfig(correlationID string) (endpointConfig, bool) {
	resolved, ok := c.config.resolve()
	if !ok {
		c.logger.Warn("ISB API not configured - skipping enrichment", map[string]any{
			"correlationId":    correlationID,
			"hasApiBaseUrl":    resolved.apiBaseURL != "",
			"hasJwtSecretPath": resolved.jwtSecretPath != "",
		})
	}
	return resolved, ok
}

// apiResponse is a completed ISB API exchange.
type apiResponse struct {
	statusCode int
	body       []byte
}

// jsend decodes the body as a JSend envelope.
func (r *apiResponse) jsend() (JSendResponse, error) {
	var env JSendResponse
	if err := json.Unmarshal(r.body, &env); err != nil {
		return JSendResponse{}, err
	}
	return env, nil
}

// errorMessage picks the message for a failed write: the JSend message when
// there is one, otherwise fallback.
func (r *apiResponse) errorMessage(fallback string) string {
	if env, err := r.jsend(); err == nil && env.Message != "" {
		return env.Message
	}
	return fallback
}

// send issues one authenticated request. A 401 or 403 clears the token cache
// before the response is returned; the response itself is not retried.
func (c *Client) send(ctx context.Context, resolved endpointConfig, method, target, correlationID string, payload any) (*apiResponse, error) {
	token, err := c.tokens.Token(ctx, resolved.jwtSecretPath)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("isb-client: failed to marshal request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	ctx, cancel := context.WithTimeout(ctx, resolved.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("isb-client: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Correlation-Id", correlationID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("isb-client: request failed: %w", err)
	}
	defer resp.Body.Close()

	// Invalidate cached secret on auth failures (handles secret rotation)
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		c.tokens.Invalidate()
		c.logger.Warn("ISB API rejected credentials - token cache cleared", map[string]any{
			"correlationId": correlationID,
			"statusCode":    resp.StatusCode,
		})
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("isb-client: failed to read response: %w", err)
	}

	return &apiResponse{statusCode: resp.StatusCode, body: respBody}, nil
}

// read performs a GET and applies the read classification policy. It returns
// the JSend data on success and false for every other outcome.
func (c *Client) read(ctx context.Context, resolved endpointConfig, route, target, correlationID string, logCtx map[string]any) (json.RawMessage, bool) {
	start := time.Now()
	c.logger.Debug("Calling ISB "+route+" API", withFields(logCtx, map[string]any{
		"correlationId": correlationID,
	}))

	resp, err := c.send(ctx, resolved, http.MethodGet, target, correlationID, nil)
	latency := time.Since(start)
	fields := map[string]any{
		"correlationId": correlationID,
		"latencyMs":     latency.Milliseconds(),
	}

	if err != nil {
		outcome := failureOutcome(err)
		c.metrics.observeRequest(route, outcome, latency)
		fields["errorMessage"] = transportMessage(err)
		if outcome == outcomeSecretError {
			c.logger.Error("ISB JWT secret unavailable - proceeding without enrichment", fields)
			return nil, false
		}
		fields["errorType"] = errorType(err)
		c.logger.Warn("ISB "+route+" API request error - proceeding without enrichment", fields)
		return nil, false
	}

	fields["statusCode"] = resp.statusCode

	switch {
	case resp.statusCode == http.StatusNotFound:
		c.metrics.observeRequest(route, outcomeNotFound, latency)
		c.logger.Debug("Resource not found in ISB "+route+" API", fields)
		return nil, false
	case resp.statusCode >= 500:
		c.metrics.observeRequest(route, outcomeServerError, latency)
		c.logger.Warn("ISB "+route+" API returned server error - proceeding without enrichment", fields)
		return nil, false
	case resp.statusCode >= 400:
		c.metrics.observeRequest(route, outcomeClientError, latency)
		c.logger.Warn("ISB "+route+" API returned client error - proceeding without enrichment", fields)
		return nil, false
	case resp.statusCode < 200 || resp.statusCode >= 300:
		c.metrics.observeRequest(route, outcomeInvalidBody, latency)
		c.logger.Warn("ISB "+route+" API returned unexpected status - proceeding without enrichment", fields)
		return nil, false
	}

	env, err := resp.jsend()
	if err != nil {
		c.metrics.observeRequest(route, outcomeInvalidBody, latency)
		fields["errorMessage"] = err.Error()
		c.logger.Warn("ISB "+route+" API returned malformed response", fields)
		return nil, false
	}
	if env.Status != JSendSuccess || !env.HasData() {
		c.metrics.observeRequest(route, outcomeInvalidBody, latency)
		fields["jsendStatus"] = env.Status
		fields["message"] = env.Message
		c.logger.Warn("ISB "+route+" API returned non-success JSend response", fields)
		return nil, false
	}

	c.metrics.observeRequest(route, outcomeSuccess, latency)
	c.logger.Debug("Resource fetched successfully from ISB "+route+" API", withFields(logCtx, fields))
	return env.Data, true
}

// fetchRecord reads one resource and decodes its JSend data into T.
func fetchRecord[T any](ctx context.Context, c *Client, route, endpoint, resourceID, correlationID string, logCtx map[string]any) *T {
	resolved, ok := c.resolveConfig(correlationID)
	if !ok {
		return nil
	}

	target := resolved.apiBaseURL + endpoint + "/" + escapePathParam(resourceID)
	data, ok := c.read(ctx, resolved, route, target, correlationID, logCtx)
	if !ok {
		return nil
	}

	var record T
	if err := json.Unmarshal(data, &record); err != nil {
		c.logger.Warn("ISB "+route+" API returned data of unexpected shape", map[string]any{
			"correlationId": correlationID,
			"errorMessage":  err.Error(),
		})
		return nil
	}
	return &record
}

// write performs a POST and applies the write classification policy.
func write[T any](ctx context.Context, c *Client, resolved endpointConfig, route, target string, payload any, correlationID string) Result[T] {
	start := time.Now()
	c.logger.Debug("Calling ISB "+route+" API", map[string]any{
		"correlationId": correlationID,
	})

	resp, err := c.send(ctx, resolved, http.MethodPost, target, correlationID, payload)
	latency := time.Since(start)
	fields := map[string]any{
		"correlationId": correlationID,
		"latencyMs":     latency.Milliseconds(),
	}

	if err != nil {
		outcome := failureOutcome(err)
		c.metrics.observeRequest(route, outcome, latency)
		msg := transportMessage(err)
		fields["errorMessage"] = msg
		if outcome == outcomeSecretError {
			c.logger.Error("ISB JWT secret unavailable", fields)
		} else {
			fields["errorType"] = errorType(err)
			c.logger.Warn("ISB "+route+" API request error", fields)
		}
		return failed[T](msg, 0)
	}

	fields["statusCode"] = resp.statusCode

	if resp.statusCode < 200 || resp.statusCode >= 300 {
		outcome := outcomeClientError
		switch {
		case resp.statusCode == http.StatusNotFound:
			outcome = outcomeNotFound
		case resp.statusCode >= 500:
			outcome = outcomeServerError
		case resp.statusCode < 400:
			outcome = outcomeInvalidBody
		}
		msg := resp.errorMessage(fmt.Sprintf("HTTP %d", resp.statusCode))
		c.metrics.observeRequest(route, outcome, latency)
		fields["message"] = msg
		c.logger.Warn("ISB "+route+" API returned error status", fields)
		return failed[T](msg, resp.statusCode)
	}

	env, err := resp.jsend()
	if err != nil || env.Status != JSendSuccess || !env.HasData() {
		msg := unexpectedResponseMessage
		if err == nil && env.Message != "" {
			msg = env.Message
		}
		c.metrics.observeRequest(route, outcomeInvalidBody, latency)
		fields["jsendStatus"] = env.Status
		fields["message"] = msg
		c.logger.Warn("ISB "+route+" API returned non-success JSend response", fields)
		return failed[T](msg, resp.statusCode)
	}

	var data T
	if err := json.Unmarshal(env.Data, &data); err != nil {
		c.metrics.observeRequest(route, outcomeInvalidBody, latency)
		fields["errorMessage"] = err.Error()
		c.logger.Warn("ISB "+route+" API returned data of unexpected shape", fields)
		return failed[T](unexpectedResponseMessage, resp.statusCode)
	}

	c.metrics.observeRequest(route, outcomeSuccess, latency)
	c.logger.Debug("ISB "+route+" API call succeeded", fields)
	return succeeded(data, resp.statusCode)
}

// escapePathParam percent-encodes a path segment the way the ISB API expects:
// base64 "/", "+" and "=" are escaped as well.
func escapePathParam(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func failureOutcome(err error) string {
	if errors.Is(err, ErrSecretUnavailable) {
		return outcomeSecretError
	}
	return outcomeTransportError
}

// transportMessage returns the innermost message of a transport failure,
// without the method and URL that net/http prepends.
func transportMessage(err error) string {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err.Error()
	}
	return err.Error()
}

func errorType(err error) string {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return "Timeout"
	case errors.Is(err, context.Canceled):
		return "Canceled"
	default:
		return "NetworkError"
	}
}

// withFields merges extra into a copy of base.
func withFields(base, extra map[string]any) map[string]any {
	merged := make(map[string]any, len(base)+len(extra))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}
