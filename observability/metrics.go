package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "defi_assistant"

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// Chat metrics
	ChatTurnsTotal  *prometheus.CounterVec
	ChatDuration    *prometheus.HistogramVec
	ChatErrorsTotal *prometheus.CounterVec
	ActiveSessions  prometheus.Gauge

	// Enrichment metrics
	IntentsDetected   *prometheus.CounterVec
	SentimentScores   *prometheus.HistogramVec
	NewsAnalyses      *prometheus.CounterVec
	MarketLookups     *prometheus.CounterVec
	CacheRequestTotal *prometheus.CounterVec

	// External API metrics
	ExternalAPIRequestsTotal *prometheus.CounterVec
	ExternalAPIErrorsTotal   *prometheus.CounterVec
	ExternalAPIDuration      *prometheus.HistogramVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryTotal    *prometheus.CounterVec
	DBErrorsTotal   *prometheus.CounterVec
	FeedbackTotal   *prometheus.CounterVec

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Circuit breaker metrics
	CircuitBreakerState *prometheus.GaugeVec
	CircuitBreakerTrips *prometheus.CounterVec
}

// defaultBuckets are the default histogram buckets for duration metrics (in seconds)
var defaultBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30}

// sentimentBuckets cover the usual range of a recency-weighted lexicon score
var sentimentBuckets = []float64{-5, -3, -2, -1, -0.2, 0.2, 1, 2, 3, 5}

// globalMetrics is the global metrics instance
var (
	globalMetrics *Metrics
	metricsMu     sync.RWMutex
)

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)

	m := &Metrics{
		// Chat metrics
		ChatTurnsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "chat",
				Name:      "turns_total",
				Help:      "Total number of chat turns by outcome",
			},
			[]string{"status"},
		),
		ChatDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "chat",
				Name:      "duration_seconds",
				Help:      "Duration of a chat turn including enrichment and the LLM call",
				Buckets:   defaultBuckets,
			},
			[]string{"status"},
		),
		ChatErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "chat",
				Name:      "errors_total",
				Help:      "Total number of failed chat turns",
			},
			[]string{"error_type"},
		),
		ActiveSessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "chat",
				Name:      "active_sessions",
				Help:      "Number of conversations currently held in memory",
			},
		),

		// Enrichment metrics
		IntentsDetected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "intent",
				Name:      "detected_total",
				Help:      "Total number of intents detected in user messages",
			},
			[]string{"intent"},
		),
		SentimentScores: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "sentiment",
				Name:      "aggregate_score",
				Help:      "Distribution of aggregated news sentiment scores",
				Buckets:   sentimentBuckets,
			},
			[]string{"sentiment"},
		),
		NewsAnalyses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "news",
				Name:      "analyses_total",
				Help:      "Total number of news analyses by outcome",
			},
			[]string{"outcome"},
		),
		MarketLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "market",
				Name:      "lookups_total",
				Help:      "Total number of market data lookups by outcome",
			},
			[]string{"outcome"},
		),
		CacheRequestTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "requests_total",
				Help:      "Total number of cache lookups by result",
			},
			[]string{"cache", "result"},
		),

		// External API metrics
		ExternalAPIRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "external_api",
				Name:      "requests_total",
				Help:      "Total number of external API requests",
			},
			[]string{"service", "operation"},
		),
		ExternalAPIErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "external_api",
				Name:      "errors_total",
				Help:      "Total number of external API errors",
			},
			[]string{"service", "operation", "error_type"},
		),
		ExternalAPIDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "external_api",
				Name:      "duration_seconds",
				Help:      "Duration of external API calls in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"service", "operation"},
		),

		// Database metrics
		DBQueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "database",
				Name:      "query_duration_seconds",
				Help:      "Duration of database queries in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"operation", "table"},
		),
		DBQueryTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "database",
				Name:      "queries_total",
				Help:      "Total number of database queries",
			},
			[]string{"operation", "table"},
		),
		DBErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "database",
				Name:      "errors_total",
				Help:      "Total number of database errors",
			},
			[]string{"operation", "table"},
		),
		FeedbackTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "feedback",
				Name:      "submissions_total",
				Help:      "Total number of feedback submissions",
			},
			[]string{"feedback"},
		),

		// HTTP metrics
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "response_size_bytes",
				Help:      "Size of HTTP responses in bytes",
				Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
			},
			[]string{"method", "path"},
		),

		// Circuit breaker metrics
		CircuitBreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "circuit_breaker",
				Name:      "state",
				Help:      "Current state of circuit breakers (0=closed, 1=half-open, 2=open)",
			},
			[]string{"service"},
		),
		CircuitBreakerTrips: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "circuit_breaker",
				Name:      "trips_total",
				Help:      "Total number of circuit breaker trips",
			},
			[]string{"service"},
		),
	}

	return m
}

// InitMetrics initializes the global metrics instance against the default registry.
// Repeated calls return the same instance.
func InitMetrics() *Metrics {
	metricsMu.Lock()
	defer metricsMu.Unlock()
	if globalMetrics == nil {
		globalMetrics = NewMetrics(nil)
	}
	return globalMetrics
}

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	metricsMu.RLock()
	m := globalMetrics
	metricsMu.RUnlock()
	if m != nil {
		return m
	}
	return InitMetrics()
}

// RecordChatTurn records a completed chat turn and its duration
func (m *Metrics) RecordChatTurn(status string, duration time.Duration) {
	m.ChatTurnsTotal.WithLabelValues(status).Inc()
	m.ChatDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordChatError records a failed chat turn
func (m *Metrics) RecordChatError(errorType string) {
	m.ChatErrorsTotal.WithLabelValues(errorType).Inc()
}

// SetActiveSessions sets the number of in-memory conversations
func (m *Metrics) SetActiveSessions(n int) {
	m.ActiveSessions.Set(float64(n))
}

// RecordIntent records a detected intent
func (m *Metrics) RecordIntent(intent string) {
	m.IntentsDetected.WithLabelValues(intent).Inc()
}

// RecordSentiment records an aggregated sentiment score
func (m *Metrics) RecordSentiment(sentiment string, score float64) {
	m.SentimentScores.WithLabelValues(sentiment).Observe(score)
}

// RecordNewsAnalysis records the outcome of a news analysis
func (m *Metrics) RecordNewsAnalysis(outcome string) {
	m.NewsAnalyses.WithLabelValues(outcome).Inc()
}

// RecordMarketLookup records the outcome of a market data lookup
func (m *Metrics) RecordMarketLookup(outcome string) {
	m.MarketLookups.WithLabelValues(outcome).Inc()
}

// RecordCacheHit records a cache hit
func (m *Metrics) RecordCacheHit(cache string) {
	m.CacheRequestTotal.WithLabelValues(cache, "hit").Inc()
}

// RecordCacheMiss records a cache miss
func (m *Metrics) RecordCacheMiss(cache string) {
	m.CacheRequestTotal.WithLabelValues(cache, "miss").Inc()
}

// RecordExternalAPIRequest records an external API request
func (m *Metrics) RecordExternalAPIRequest(service, operation string) {
	m.ExternalAPIRequestsTotal.WithLabelValues(service, operation).Inc()
}

// RecordExternalAPIError records an external API error
func (m *Metrics) RecordExternalAPIError(service, operation, errorType string) {
	m.ExternalAPIErrorsTotal.WithLabelValues(service, operation, errorType).Inc()
}

// RecordExternalAPIDuration records the duration of an external API call
func (m *Metrics) RecordExternalAPIDuration(service, operation string, duration time.Duration) {
	m.ExternalAPIDuration.WithLabelValues(service, operation).Observe(duration.Seconds())
}

// RecordDBQuery records a database query
func (m *Metrics) RecordDBQuery(operation, table string, duration time.Duration) {
	m.DBQueryTotal.WithLabelValues(operation, table).Inc()
	m.DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

// RecordDBError records a database error
func (m *Metrics) RecordDBError(operation, table string) {
	m.DBErrorsTotal.WithLabelValues(operation, table).Inc()
}

// RecordFeedback records a feedback submission
func (m *Metrics) RecordFeedback(feedback string) {
	m.FeedbackTotal.WithLabelValues(feedback).Inc()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, statusCode string, duration time.Duration, responseSize int) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.HTTPResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
}

// SetCircuitBreakerState sets the current state of a circuit breaker
func (m *Metrics) SetCircuitBreakerState(service string, state int) {
	m.CircuitBreakerState.WithLabelValues(service).Set(float64(state))
}

// RecordCircuitBreakerTrip records a circuit breaker trip
func (m *Metrics) RecordCircuitBreakerTrip(service string) {
	m.CircuitBreakerTrips.WithLabelValues(service).Inc()
}

// Timer is a helper for timing operations
type Timer struct {
	start   time.Time
	metrics *Metrics
}

// NewTimer creates a new timer
func (m *Metrics) NewTimer() *Timer {
	return &Timer{
		start:   time.Now(),
		metrics: m,
	}
}

// ObserveChat records the chat turn duration and status
func (t *Timer) ObserveChat(status string) {
	t.metrics.RecordChatTurn(status, time.Since(t.start))
}

// ObserveExternalAPI records the external API duration
func (t *Timer) ObserveExternalAPI(service, operation string) {
	t.metrics.RecordExternalAPIDuration(service, operation, time.Since(t.start))
}

// ObserveDB records the database query duration
func (t *Timer) ObserveDB(operation, table string) {
	t.metrics.RecordDBQuery(operation, table, time.Since(t.start))
}

// Duration returns the elapsed time
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
