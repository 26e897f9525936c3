package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/OldStager01/crop-advisor/internal/logger"
)

const namespace = "cropadvisor"

type Metrics struct {
	httpRequests        *prometheus.CounterVec
	httpDuration        *prometheus.HistogramVec
	recommendations     *prometheus.CounterVec
	forecastLookups     *prometheus.CounterVec
	forecastTraining    *prometheus.HistogramVec
	refreshRuns         *prometheus.CounterVec
	lastRefreshSuccess  prometheus.Gauge
	circuitBreakerState *prometheus.GaugeVec
	websocketClients    prometheus.Gauge
	eventsDropped       prometheus.CounterFunc
	registerer          prometheus.Registerer
	registry            *prometheus.Registry
}

var (
	instance *Metrics
	once     sync.Once
)

// Get returns the process-wide metrics, registered on the default registry.
func Get() *Metrics {
	once.Do(func() {
		instance = newMetrics(prometheus.DefaultRegisterer)
	})
	return instance
}

// NewWithRegistry builds an isolated set of metrics, for tests.
func NewWithRegistry(reg *prometheus.Registry) *Metrics {
	m := newMetrics(reg)
	m.registry = reg
	return m
}

func newMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		registerer: reg,
		httpRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		recommendations: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "recommendations_total",
				Help:      "Recommendations served by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		forecastLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "forecast_lookups_total",
				Help:      "Forecast lookup table reads by kind and result (hit, miss, error)",
			},
			[]string{"kind", "result"},
		),
		forecastTraining: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "forecast_training_duration_seconds",
				Help:      "Time spent fitting one forecast model",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"kind"},
		),
		refreshRuns: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "forecast_refresh_runs_total",
				Help:      "Forecast refresh runs by final status",
			},
			[]string{"status"},
		),
		lastRefreshSuccess: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "forecast_refresh_last_success_timestamp_seconds",
				Help:      "Unix time of the last completed forecast refresh",
			},
		),
		circuitBreakerState: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "circuit_breaker_state",
				Help:      "Circuit breaker state (0=closed, 1=open, 2=half-open)",
			},
			[]string{"name"},
		),
		websocketClients: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "websocket_clients",
				Help:      "Connected websocket clients",
			},
		),
	}
}

func (m *Metrics) ObserveHTTPRequest(method, path string, status int, d time.Duration) {
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

func (m *Metrics) IncRecommendation(kind, outcome string) {
	m.recommendations.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) IncForecastLookup(kind, result string) {
	m.forecastLookups.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) ObserveForecastTraining(kind string, d time.Duration) {
	m.forecastTraining.WithLabelValues(kind).Observe(d.Seconds())
}

func (m *Metrics) IncRefreshRun(status string) {
	m.refreshRuns.WithLabelValues(status).Inc()
}

func (m *Metrics) SetLastRefreshSuccess(t time.Time) {
	m.lastRefreshSuccess.Set(float64(t.Unix()))
}

func (m *Metrics) SetCircuitBreakerState(name string, state int) {
	m.circuitBreakerState.WithLabelValues(name).Set(float64(state))
}

func (m *Metrics) SetWebSocketClients(n int) {
	m.websocketClients.Set(float64(n))
}

// WatchEventDrops exports dropped, read on every scrape, as the count of
// event deliveries skipped because a subscriber was full. Only the first
// call per registry takes effect.
func (m *Metrics) WatchEventDrops(dropped func() int64) {
	c := prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Event deliveries dropped because a subscriber was full",
		},
		func() float64 { return float64(dropped()) },
	)
	if err := m.registerer.Register(c); err != nil {
		logger.Warnf("Event drop counter not registered: %v", err)
		return
	}
	m.eventsDropped = c
}

// Handler serves the registry these metrics were registered on.
func (m *Metrics) Handler() http.Handler {
	if m.registry != nil {
		return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	}
	return promhttp.Handler()
}

// StartServer serves /metrics on its own port and returns the server so
// the caller can shut it down.
func StartServer(port int) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Get().Handler())

	addr := ":" + strconv.Itoa(port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Infof("Prometheus metrics server listening on %s", addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("Prometheus server error: %v", err)
		}
	}()
	return srv
}
