package isbclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

const (
	testJWTSecret     = "test-jwt-secret-key-for-signing"
	testSecretPath    = "/InnovationSandbox/ndx/Auth/JwtSecret"
	testCorrelationID = "test-event-123"
	testUserEmail     = "user@example.gov.uk"
	testUUID          = "550e8400-e29b-41d4-a716-446655440000"
)

var testIdentity = ServiceIdentity{Email: "test@example.com", Roles: []string{"Admin"}}

// countingSecrets is a SecretFetcher that records how often it was called.
type countingSecrets struct {
	mu     sync.Mutex
	calls  int
	paths  []string
	secret string
	err    error
}

func newCountingSecrets() *countingSecrets {
	return &countingSecrets{secret: testJWTSecret}
}

func (s *countingSecrets) FetchSecret(_ context.Context, path string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.paths = append(s.paths, path)
	return s.secret, s.err
}

func (s *countingSecrets) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// stubResponse is one canned ISB API reply.
type stubResponse struct {
	status int
	body   any    // JSON-encoded when raw is empty
	raw    string // sent verbatim
}

func jsendSuccess(data any) stubResponse {
	return stubResponse{status: http.StatusOK, body: map[string]any{"status": "success", "data": data}}
}

func jsendStatus(status int, jsendStatus, message string) stubResponse {
	return stubResponse{status: status, body: map[string]any{"status": jsendStatus, "message": message}}
}

// recordedRequest is what the fake API saw.
type recordedRequest struct {
	Method   string
	Path     string // escaped form, as sent on the wire
	RawQuery string
	RouteID  string // the {id} route parameter, still escaped
	Header   http.Header
	Body     []byte
}

func (r recordedRequest) decodeBody(t *testing.T) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(r.Body, &body))
	return body
}

// fakeISB serves the ISB API routes from a queue of canned responses.
// The last response repeats once the queue is drained.
type fakeISB struct {
	server *httptest.Server

	mu        sync.Mutex
	requests  []recordedRequest
	responses []stubResponse
	block     bool
}

func newFakeISB(t *testing.T, responses ...stubResponse) *fakeISB {
	t.Helper()
	f := &fakeISB{responses: responses}

	r := chi.NewRouter()
	r.Get("/leases/{id}", f.handle)
	r.Post("/leases/{id}/review", f.handle)
	r.Get("/accounts", f.handle)
	r.Post("/accounts", f.handle)
	r.Get("/accounts/{id}", f.handle)
	r.Get("/leaseTemplates/{id}", f.handle)

	f.server = httptest.NewServer(r)
	t.Cleanup(f.server.Close)
	return f
}

// blockUntilCancelled makes every handler wait for the client to give up.
func (f *fakeISB) blockUntilCancelled() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.block = true
}

func (f *fakeISB) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		Method:   r.Method,
		Path:     r.URL.EscapedPath(),
		RawQuery: r.URL.RawQuery,
		RouteID:  chi.URLParam(r, "id"),
		Header:   r.Header.Clone(),
		Body:     body,
	})
	var resp stubResponse
	if len(f.responses) > 0 {
		resp = f.responses[0]
		if len(f.responses) > 1 {
			f.responses = f.responses[1:]
		}
	} else {
		resp = stubResponse{status: http.StatusInternalServerError, raw: "no stub configured"}
	}
	block := f.block
	f.mu.Unlock()

	if block {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.status)
	if resp.raw != "" {
		_, _ = io.WriteString(w, resp.raw)
		return
	}
	if resp.body != nil {
		_ = json.NewEncoder(w).Encode(resp.body)
	}
}

func (f *fakeISB) URL() string {
	return f.server.URL
}

func (f *fakeISB) Requests() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func (f *fakeISB) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// logEntry is one line captured by recordingLogger.
type logEntry struct {
	Level  string
	Msg    string
	Fields map[string]any
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) add(level, msg string, fields map[string]any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{Level: level, Msg: msg, Fields: fields})
}

func (l *recordingLogger) Debug(msg string, fields map[string]any) { l.add("debug", msg, fields) }
func (l *recordingLogger) Warn(msg string, fields map[string]any)  { l.add("warn", msg, fields) }
func (l *recordingLogger) Error(msg string, fields map[string]any) { l.add("error", msg, fields) }

func (l *recordingLogger) Entries() []logEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]logEntry(nil), l.entries...)
}

// roundTripFunc fails or answers requests without a server.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// failingHTTPClient counts calls and fails each with msg.
func failingHTTPClient(msg string, calls *int) *http.Client {
	return &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		*calls++
		return nil, errors.New(msg)
	})}
}

// noEnv is a SettingsProvider with no fallbacks.
func noEnv() (Settings, error) {
	return Settings{}, nil
}

type clientOption func(*Config)

func withHTTPClient(hc *http.Client) clientOption {
	return func(c *Config) { c.HTTPClient = hc }
}

func withTimeout(d time.Duration) clientOption {
	return func(c *Config) { c.Timeout = d }
}

// newTestClient builds a configured client against baseURL.
func newTestClient(t *testing.T, baseURL string, secrets SecretFetcher, opts ...clientOption) (*Client, *recordingLogger) {
	t.Helper()
	logger := &recordingLogger{}
	cfg := Config{
		ServiceIdentity: testIdentity,
		APIBaseURL:      baseURL,
		JWTSecretPath:   testSecretPath,
		Logger:          logger,
		SecretFetcher:   secrets,
		Settings:        noEnv,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	client, err := New(cfg)
	require.NoError(t, err)
	return client, logger
}
