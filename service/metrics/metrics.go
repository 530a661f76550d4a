package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the application.
// Following the explicit dependency injection pattern, this struct
// is passed to all components that need to record metrics.
type Metrics struct {
	// Solana RPC Metrics
	solanaRPCCallsTotal   *prometheus.CounterVec
	solanaRPCCallDuration *prometheus.HistogramVec

	// Wallet provider Metrics
	providerCallsTotal   *prometheus.CounterVec
	providerCallDuration *prometheus.HistogramVec

	// Transfer Metrics
	transfersTotal          *prometheus.CounterVec
	transferValidationFails *prometheus.CounterVec
	confirmationDuration    *prometheus.HistogramVec

	// Balance Metrics
	balanceRefreshesTotal *prometheus.CounterVec
	balanceStaleDiscards  *prometheus.CounterVec

	// HTTP Metrics
	httpRequestDuration *prometheus.HistogramVec
	httpRequestsTotal   *prometheus.CounterVec

	// NATS Metrics
	natsMessagesPublished *prometheus.CounterVec
	natsPublishDuration   *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance and registers all collectors.
// If registry is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		// Solana RPC Metrics
		solanaRPCCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "solana_rpc_calls_total",
				Help: "Total number of Solana RPC calls by method and status",
			},
			[]string{"method", "status", "endpoint"},
		),
		solanaRPCCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "solana_rpc_call_duration_seconds",
				Help:    "Duration of Solana RPC calls in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"method", "endpoint"},
		),

		// Wallet provider Metrics
		providerCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wallet_provider_calls_total",
				Help: "Total number of wallet provider calls by operation and status",
			},
			[]string{"operation", "status"},
		),
		providerCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wallet_provider_call_duration_seconds",
				Help:    "Duration of wallet provider calls in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
			},
			[]string{"operation"},
		),

		// Transfer Metrics
		transfersTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transfers_total",
				Help: "Total number of transfer submissions by asset and status",
			},
			[]string{"asset", "status"},
		),
		transferValidationFails: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transfer_validation_failures_total",
				Help: "Total number of transfer requests rejected before submission",
			},
			[]string{"reason"},
		),
		confirmationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "transfer_confirmation_duration_seconds",
				Help:    "Time from submission until the signature reached confirmed status",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60},
			},
			[]string{"asset"},
		),

		// Balance Metrics
		balanceRefreshesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "balance_refreshes_total",
				Help: "Total number of balance refreshes by status",
			},
			[]string{"status"},
		),
		balanceStaleDiscards: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "balance_stale_discards_total",
				Help: "Total number of in-flight balance fetches discarded as superseded",
			},
			[]string{},
		),

		// HTTP Metrics
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
			},
			[]string{"handler", "method", "status"},
		),
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"handler", "method", "status"},
		),

		// NATS Metrics
		natsMessagesPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nats_messages_published_total",
				Help: "Total number of NATS messages published",
			},
			[]string{"subject", "status"},
		),
		natsPublishDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nats_publish_duration_seconds",
				Help:    "Duration of NATS publish operations in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
			[]string{"subject"},
		),
	}
}

// Solana RPC metric helpers

// RecordRPCCall records a Solana RPC call with duration.
func (m *Metrics) RecordRPCCall(method, status, endpoint string, duration float64) {
	m.solanaRPCCallsTotal.WithLabelValues(method, status, endpoint).Inc()
	m.solanaRPCCallDuration.WithLabelValues(method, endpoint).Observe(duration)
}

// Wallet provider metric helpers

// RecordProviderCall records a wallet provider call with duration.
func (m *Metrics) RecordProviderCall(operation, status string, duration float64) {
	m.providerCallsTotal.WithLabelValues(operation, status).Inc()
	m.providerCallDuration.WithLabelValues(operation).Observe(duration)
}

// Transfer metric helpers

// RecordTransfer records a transfer submission outcome.
func (m *Metrics) RecordTransfer(asset, status string) {
	m.transfersTotal.WithLabelValues(asset, status).Inc()
}

// RecordValidationFailure records a transfer rejected before any provider call.
func (m *Metrics) RecordValidationFailure(reason string) {
	m.transferValidationFails.WithLabelValues(reason).Inc()
}

// RecordConfirmation records how long a submitted transfer took to confirm.
func (m *Metrics) RecordConfirmation(asset string, duration float64) {
	m.confirmationDuration.WithLabelValues(asset).Observe(duration)
}

// Balance metric helpers

// RecordBalanceRefresh records a balance refresh attempt.
func (m *Metrics) RecordBalanceRefresh(status string) {
	m.balanceRefreshesTotal.WithLabelValues(status).Inc()
}

// RecordStaleDiscard records an in-flight fetch result discarded as superseded.
func (m *Metrics) RecordStaleDiscard() {
	m.balanceStaleDiscards.WithLabelValues().Inc()
}

// HTTP metric helpers

// RecordHTTPRequest records an HTTP request with duration.
func (m *Metrics) RecordHTTPRequest(handler, method string, statusCode int, duration float64) {
	status := statusCodeToString(statusCode)
	m.httpRequestDuration.WithLabelValues(handler, method, status).Observe(duration)
	m.httpRequestsTotal.WithLabelValues(handler, method, status).Inc()
}

// NATS metric helpers

// RecordNATSPublish records a NATS publish operation.
func (m *Metrics) RecordNATSPublish(subject, status string, duration float64) {
	m.natsMessagesPublished.WithLabelValues(subject, status).Inc()
	m.natsPublishDuration.WithLabelValues(subject).Observe(duration)
}

// Helper functions

func statusCodeToString(code int) string {
	// Group status codes by class
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500 && code < 600:
		return "5xx"
	default:
		return "unknown"
	}
}
