package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kjstillabower/watchface-status/internal/delivery"
)

var (
	registry *prometheus.Registry

	// HTTP request rate on the platform binding.
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight.
	HTTPRequestsInFlight prometheus.Gauge

	// Platform events dispatched by the engine, by type. Watch for: ticks stopping (clock source dead).
	EventsTotal *prometheus.CounterVec

	// Events dropped because the engine inbox was full.
	EventsDroppedTotal prometheus.Counter

	// Weather refresh requests emitted on refresh ticks.
	WeatherRefreshRequestsTotal prometheus.Counter

	// Inbound weather messages by result (accepted, partial). Watch for: partial share rising.
	WeatherMessagesTotal *prometheus.CounterVec

	// Transport failures by direction (outbox, inbox). Logged only; never retried.
	TransportFailuresTotal *prometheus.CounterVec

	BatteryPercent prometheus.Gauge
	LinkConnected  prometheus.Gauge
	StepsCount     prometheus.Gauge
	StepsGoal      prometheus.Gauge

	// Companion OpenWeather calls by status.
	WeatherAPICallsTotal *prometheus.CounterVec

	// Companion OpenWeather latency. Watch for: p95 > 2s.
	WeatherAPIDuration *prometheus.HistogramVec

	// Retry attempts for companion weather calls. Zero when retry_attempts is 1.
	WeatherAPIRetriesTotal prometheus.Counter

	// Companion cache hits.
	CacheHitsTotal *prometheus.CounterVec

	// Companion cache errors by operation (get, set).
	CacheErrorsTotal *prometheus.CounterVec

	// Circuit breaker transitions by component, from and to.
	CircuitBreakerTransitionsTotal *prometheus.CounterVec

	// Circuit breaker state: 0 closed, 1 open, 2 half-open.
	CircuitBreakerState *prometheus.GaugeVec

	// Rate limit denials on the platform binding.
	RateLimitDeniedTotal prometheus.Counter

	deliveryGaugesOnce  sync.Once
	weatherAgeGaugeOnce sync.Once
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	EventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engineEventsTotal",
			Help: "Platform events dispatched by the engine",
		},
		[]string{"type"},
	)
	EventsDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "engineEventsDroppedTotal",
			Help: "Events dropped because the engine inbox was full",
		},
	)
	WeatherRefreshRequestsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "weatherRefreshRequestsTotal",
			Help: "Weather refresh requests sent to the companion",
		},
	)
	WeatherMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherMessagesTotal",
			Help: "Inbound weather messages by result",
		},
		[]string{"result"},
	)
	TransportFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transportFailuresTotal",
			Help: "Companion transport failures by direction",
		},
		[]string{"direction"},
	)
	BatteryPercent = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "batteryPercent",
		Help: "Last reported battery charge percent",
	})
	LinkConnected = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "linkConnected",
		Help: "1 when the companion link is connected",
	})
	StepsCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "stepsCount",
		Help: "Today's step count",
	})
	StepsGoal = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "stepsGoal",
		Help: "Today's step goal (0 = unknown)",
	})
	WeatherAPICallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherApiCallsTotal",
			Help: "Total number of OpenWeatherMap API calls",
		},
		[]string{"status"},
	)
	WeatherAPIDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weatherApiDurationSeconds",
			Help:    "OpenWeatherMap API latency in seconds (per request)",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"status"},
	)
	WeatherAPIRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "weatherApiRetriesTotal",
			Help: "Total number of retry attempts for weather API calls",
		},
	)
	CacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cacheHitsTotal",
			Help: "Total number of companion cache hits",
		},
		[]string{"cacheType"},
	)
	CacheErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cacheErrorsTotal",
			Help: "Companion cache errors by operation",
		},
		[]string{"operation"},
	)
	CircuitBreakerTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuitBreakerTransitionsTotal",
			Help: "Circuit breaker state transitions",
		},
		[]string{"component", "from", "to"},
	)
	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuitBreakerState",
			Help: "Circuit breaker state (0 closed, 1 open, 2 half-open)",
		},
		[]string{"component"},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of requests denied by rate limiter (429)",
		},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		EventsTotal, EventsDroppedTotal,
		WeatherRefreshRequestsTotal, WeatherMessagesTotal, TransportFailuresTotal,
		BatteryPercent, LinkConnected, StepsCount, StepsGoal,
		WeatherAPICallsTotal, WeatherAPIDuration, WeatherAPIRetriesTotal,
		CacheHitsTotal, CacheErrorsTotal,
		CircuitBreakerTransitionsTotal, CircuitBreakerState,
		RateLimitDeniedTotal,
	)
}

// RegisterDeliveryGauges registers sliding-window gauges for companion delivery outcomes.
// Call from main after config load with cfg.DeliveryWindow.
func RegisterDeliveryGauges(window time.Duration) {
	deliveryGaugesOnce.Do(func() {
		registry.MustRegister(
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "deliveryRefreshesInWindow",
					Help: "Refresh requests sent in the sliding window",
				},
				func() float64 { return float64(delivery.SentCount(window)) },
			),
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "deliveryFailuresInWindow",
					Help: "Outbox failures and inbox drops in the sliding window",
				},
				func() float64 {
					failed, _ := delivery.FailureRate(window)
					return float64(failed)
				},
			),
		)
	})
}

// RegisterWeatherAgeGauge registers a gauge reporting the age of the displayed
// weather sample in seconds. age returns a negative value while no sample exists.
func RegisterWeatherAgeGauge(age func() float64) {
	weatherAgeGaugeOnce.Do(func() {
		registry.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "weatherSampleAgeSeconds",
				Help: "Age of the displayed weather sample; -1 when none has been accepted",
			},
			age,
		))
	})
}

// CircuitBreakerStateValue maps a breaker state ordinal to the gauge value.
func CircuitBreakerStateValue(state int) float64 {
	return float64(state)
}

// RecordCircuitBreakerTransition counts a breaker transition.
func RecordCircuitBreakerTransition(component, from, to string) {
	CircuitBreakerTransitionsTotal.WithLabelValues(component, from, to).Inc()
}

// SetCircuitBreakerStateGauge sets the breaker state gauge.
func SetCircuitBreakerStateGauge(component string, v float64) {
	CircuitBreakerState.WithLabelValues(component).Set(v)
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
