package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "paraglide"

// Metrics holds the Prometheus collectors for the advisor.
type Metrics struct {
	Runs        *prometheus.CounterVec // labels: outcome={success,partial,failure}
	RunDuration prometheus.Histogram

	// Upstream metrics.
	UpstreamRequests *prometheus.CounterVec   // labels: endpoint={forecast,elevation}, outcome
	UpstreamDuration *prometheus.HistogramVec // labels: endpoint
	ForecastCache    *prometheus.CounterVec   // labels: result={hit,miss}

	// Assessment metrics.
	HoursScored       *prometheus.CounterVec // labels: score
	DayLights         *prometheus.CounterVec // labels: light
	QuickWeatherItems *prometheus.CounterVec // labels: status={ok,cached,error}
	AdvisoriesSent    prometheus.Counter
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)
	prometheus.MustRegister(
		m.Runs,
		m.RunDuration,
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.ForecastCache,
		m.HoursScored,
		m.DayLights,
		m.QuickWeatherItems,
		m.AdvisoriesSent,
	)
	return m
}

// NewMetricsForTesting creates unregistered metrics so tests can build as
// many as they need.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}

func newMetrics(withHelp bool) *Metrics {
	help := func(s string) string {
		if withHelp {
			return s
		}
		return ""
	}
	return &Metrics{
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      help("Advisor runs by outcome."),
		}, []string{"outcome"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      help("Duration of a complete advisor run."),
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      help("Open-Meteo requests by endpoint and outcome."),
		}, []string{"endpoint", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_duration_seconds",
			Help:      help("Open-Meteo request duration in seconds, retries included."),
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"endpoint"}),
		ForecastCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forecast_cache_total",
			Help:      help("Forecast cache lookups by result."),
		}, []string{"result"}),
		HoursScored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hours_scored_total",
			Help:      help("Forecast hours scored, by score."),
		}, []string{"score"}),
		DayLights: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "day_traffic_lights_total",
			Help:      help("Assessed days by traffic light."),
		}, []string{"light"}),
		QuickWeatherItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quick_weather_items_total",
			Help:      help("Favorite locations fetched in quick-weather batches, by status."),
		}, []string{"status"}),
		AdvisoriesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "advisories_sent_total",
			Help:      help("Advisory emails sent."),
		}),
	}
}
