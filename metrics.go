package isbclient

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Request outcomes, used as the "outcome" label and in log lines.
const (
	outcomeSuccess        = "success"
	outcomeNotFound       = "not_found"
	outcomeClientError    = "client_error"
	outcomeServerError    = "server_error"
	outcomeInvalidBody    = "invalid_response"
	outcomeTransportError = "transport_error"
	outcomeSecretError    = "secret_error"
)

// clientMetrics is nil-safe: a client built without a registerer records nothing.
type clientMetrics struct {
	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	invalidations prometheus.Counter
	secretFetches *prometheus.CounterVec
}

func newClientMetrics(reg prometheus.Registerer) (*clientMetrics, error) {
	if reg == nil {
		return nil, nil
	}

	m := &clientMetrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "isb_client_requests_total",
				Help: "Number of ISB API calls by endpoint and classified outcome.",
			},
			[]string{"endpoint", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "isb_client_request_duration_seconds",
				Help:    "Latency of ISB API calls, including token acquisition.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		invalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "isb_client_token_cache_invalidations_total",
			Help: "Number of times the JWT cache was cleared after a 401/403 or an explicit reset.",
		}),
		secretFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "isb_client_secret_fetches_total",
				Help: "Number of JWT secret fetches from the secret store by result.",
			},
			[]string{"result"},
		),
	}

	for _, c := range []prometheus.Collector{m.requests, m.duration, m.invalidations, m.secretFetches} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *clientMetrics) observeRequest(endpoint, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(endpoint, outcome).Inc()
	m.duration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

func (m *clientMetrics) observeInvalidation() {
	if m == nil {
		return
	}
	m.invalidations.Inc()
}

func (m *clientMetrics) observeSecretFetch(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.secretFetches.WithLabelValues(result).Inc()
}
