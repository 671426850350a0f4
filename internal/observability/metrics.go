package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the scholar gateway.
// Metrics are organized by subsystem: HTTP requests, scholar proxy calls, and
// document extraction. All counters and histograms are registered via promauto
// for automatic registration with the default Prometheus registry.
type Metrics struct {
	// RequestsTotal counts HTTP requests served, labeled by endpoint and status code.
	RequestsTotal *prometheus.CounterVec

	// RequestDuration observes HTTP request duration in seconds, labeled by endpoint.
	RequestDuration *prometheus.HistogramVec

	// SearchesStarted counts scholar searches initiated, labeled by endpoint.
	SearchesStarted *prometheus.CounterVec

	// SearchesCompleted counts successful scholar searches, labeled by endpoint.
	SearchesCompleted *prometheus.CounterVec

	// SearchesFailed counts failed scholar searches, labeled by endpoint.
	SearchesFailed *prometheus.CounterVec

	// SearchDuration observes scholar search duration in seconds, labeled by endpoint.
	SearchDuration *prometheus.HistogramVec

	// ResultsPerSearch observes the number of publications returned per search.
	ResultsPerSearch *prometheus.HistogramVec

	// ProxyRequestsTotal counts requests to the scholarly proxy, labeled by operation.
	ProxyRequestsTotal *prometheus.CounterVec

	// ProxyRequestsFailed counts failed proxy requests, labeled by operation and error type.
	ProxyRequestsFailed *prometheus.CounterVec

	// ProxyRequestDuration observes proxy request duration in seconds, labeled by operation.
	ProxyRequestDuration *prometheus.HistogramVec

	// ProxyRateLimited counts rate limit responses from the proxy.
	ProxyRateLimited prometheus.Counter

	// ExtractionsStarted counts extraction requests initiated, labeled by source kind.
	ExtractionsStarted *prometheus.CounterVec

	// ExtractionsCompleted counts extraction requests that returned recognized text.
	ExtractionsCompleted *prometheus.CounterVec

	// ExtractionsFailed counts extraction requests that failed outright.
	ExtractionsFailed *prometheus.CounterVec

	// ExtractionsFallback counts extraction requests that returned the client-side fallback.
	ExtractionsFallback *prometheus.CounterVec

	// ExtractionDuration observes extraction duration in seconds, labeled by source kind.
	ExtractionDuration *prometheus.HistogramVec

	// ExtractionBlocks observes the number of text blocks produced per extraction.
	ExtractionBlocks prometheus.Histogram
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		// HTTP
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests served",
		}, []string{"endpoint", "status"}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"endpoint"}),

		// Searches
		SearchesStarted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_started_total",
			Help:      "Total number of scholar searches started by endpoint",
		}, []string{"endpoint"}),
		SearchesCompleted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_completed_total",
			Help:      "Total number of scholar searches completed by endpoint",
		}, []string{"endpoint"}),
		SearchesFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_failed_total",
			Help:      "Total number of scholar searches that failed by endpoint",
		}, []string{"endpoint"}),
		SearchDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Duration of scholar searches in seconds by endpoint",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"endpoint"}),
		ResultsPerSearch: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "results_per_search",
			Help:      "Number of publications returned per search by endpoint",
			Buckets:   []float64{0, 1, 5, 10, 20, 50, 100},
		}, []string{"endpoint"}),

		// Scholarly proxy
		ProxyRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "proxy_requests_total",
			Help:      "Total number of requests to the scholarly proxy",
		}, []string{"operation"}),
		ProxyRequestsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "proxy_requests_failed_total",
			Help:      "Total number of failed requests to the scholarly proxy",
		}, []string{"operation", "error_type"}),
		ProxyRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "proxy_request_duration_seconds",
			Help:      "Duration of requests to the scholarly proxy in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"operation"}),
		ProxyRateLimited: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "proxy_rate_limited_total",
			Help:      "Total number of rate limit responses from the scholarly proxy",
		}),

		// Extraction
		ExtractionsStarted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extractions_started_total",
			Help:      "Total number of document extractions started by source kind",
		}, []string{"source_kind"}),
		ExtractionsCompleted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extractions_completed_total",
			Help:      "Total number of document extractions completed by source kind",
		}, []string{"source_kind"}),
		ExtractionsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extractions_failed_total",
			Help:      "Total number of document extractions that failed by source kind",
		}, []string{"source_kind"}),
		ExtractionsFallback: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extractions_fallback_total",
			Help:      "Total number of document extractions that fell back to client-side processing",
		}, []string{"source_kind"}),
		ExtractionDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "extraction_duration_seconds",
			Help:      "Duration of document extractions in seconds by source kind",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"source_kind"}),
		ExtractionBlocks: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "extraction_text_blocks",
			Help:      "Number of text blocks produced per extraction",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
		}),
	}
}

// RecordRequest records a served HTTP request.
func (m *Metrics) RecordRequest(endpoint, status string, durationSeconds float64) {
	m.RequestsTotal.WithLabelValues(endpoint, status).Inc()
	m.RequestDuration.WithLabelValues(endpoint).Observe(durationSeconds)
}

// RecordSearchStarted records that a search has started.
func (m *Metrics) RecordSearchStarted(endpoint string) {
	m.SearchesStarted.WithLabelValues(endpoint).Inc()
}

// RecordSearchCompleted records that a search has completed.
func (m *Metrics) RecordSearchCompleted(endpoint string, resultCount int, durationSeconds float64) {
	m.SearchesCompleted.WithLabelValues(endpoint).Inc()
	m.SearchDuration.WithLabelValues(endpoint).Observe(durationSeconds)
	m.ResultsPerSearch.WithLabelValues(endpoint).Observe(float64(resultCount))
}

// RecordSearchFailed records that a search has failed.
func (m *Metrics) RecordSearchFailed(endpoint string, durationSeconds float64) {
	m.SearchesFailed.WithLabelValues(endpoint).Inc()
	m.SearchDuration.WithLabelValues(endpoint).Observe(durationSeconds)
}

// RecordProxyRequest records a request to the scholarly proxy.
func (m *Metrics) RecordProxyRequest(operation string, durationSeconds float64) {
	m.ProxyRequestsTotal.WithLabelValues(operation).Inc()
	m.ProxyRequestDuration.WithLabelValues(operation).Observe(durationSeconds)
}

// RecordProxyRequestFailed records a failed request to the scholarly proxy.
func (m *Metrics) RecordProxyRequestFailed(operation, errorType string) {
	m.ProxyRequestsFailed.WithLabelValues(operation, errorType).Inc()
}

// RecordProxyRateLimited records a rate limit response from the proxy.
func (m *Metrics) RecordProxyRateLimited() {
	m.ProxyRateLimited.Inc()
}

// RecordExtractionStarted records that a document extraction has started.
func (m *Metrics) RecordExtractionStarted(sourceKind string) {
	m.ExtractionsStarted.WithLabelValues(sourceKind).Inc()
}

// RecordExtractionCompleted records a successful extraction.
func (m *Metrics) RecordExtractionCompleted(sourceKind string, blockCount int, durationSeconds float64) {
	m.ExtractionsCompleted.WithLabelValues(sourceKind).Inc()
	m.ExtractionDuration.WithLabelValues(sourceKind).Observe(durationSeconds)
	m.ExtractionBlocks.Observe(float64(blockCount))
}

// RecordExtractionFailed records an extraction that failed outright.
func (m *Metrics) RecordExtractionFailed(sourceKind string, durationSeconds float64) {
	m.ExtractionsFailed.WithLabelValues(sourceKind).Inc()
	m.ExtractionDuration.WithLabelValues(sourceKind).Observe(durationSeconds)
}

// RecordExtractionFallback records an extraction that returned the fallback payload.
func (m *Metrics) RecordExtractionFallback(sourceKind string, durationSeconds float64) {
	m.ExtractionsFallback.WithLabelValues(sourceKind).Inc()
	m.ExtractionDuration.WithLabelValues(sourceKind).Observe(durationSeconds)
}
