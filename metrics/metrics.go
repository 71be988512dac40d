// Package metrics provides the Prometheus registry for the simulation engine.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	SimulationRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sim_engine",
		Name:      "simulation_runs_total",
		Help:      "Total number of simulation runs by final status",
	}, []string{"status"})
	TrialsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sim_engine",
		Name:      "trials_total",
		Help:      "Total number of simulated games",
	})
	SafetyCapHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sim_engine",
		Name:      "safety_cap_hits_total",
		Help:      "Half-innings ended by the plate appearance safety cap",
	}, []string{"side"})
	GameTypesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sim_engine",
		Name:      "game_types_total",
		Help:      "Simulated games by classification",
	}, []string{"game_type"})
	WeatherCacheLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sim_engine",
		Name:      "weather_cache_lookups_total",
		Help:      "Weather forecast cache lookups by result",
	}, []string{"result"})
)

// Gauge metrics
var (
	ActiveRuns = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "sim_engine",
		Name:      "active_runs",
		Help:      "Number of simulation runs in progress",
	})
)

// Histogram metrics
var (
	RunDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "sim_engine",
		Name:      "run_duration_seconds",
		Help:      "Duration of simulation runs in seconds",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 300},
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(SimulationRunsTotal)
		registry.MustRegister(TrialsTotal)
		registry.MustRegister(SafetyCapHitsTotal)
		registry.MustRegister(GameTypesTotal)
		registry.MustRegister(WeatherCacheLookupsTotal)

		registry.MustRegister(ActiveRuns)

		registry.MustRegister(RunDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	return InitRegistry()
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordRunStarted marks a simulation run as in progress.
func RecordRunStarted() {
	ActiveRuns.Inc()
}

// RecordRunFinished records the outcome and duration of a simulation run.
func RecordRunFinished(status string, durationSeconds float64) {
	ActiveRuns.Dec()
	SimulationRunsTotal.WithLabelValues(status).Inc()
	RunDuration.Observe(durationSeconds)
}

// RecordTrials adds simulated games to the trial counter.
func RecordTrials(n int) {
	TrialsTotal.Add(float64(n))
}

// RecordSafetyCapHit records a half-inning cut short by the safety cap.
func RecordSafetyCapHit(side string) {
	SafetyCapHitsTotal.WithLabelValues(side).Inc()
}

// RecordGameTypes adds n games of the given classification.
func RecordGameTypes(gameType string, n int) {
	GameTypesTotal.WithLabelValues(gameType).Add(float64(n))
}

// RecordWeatherCacheLookup records a forecast cache hit or miss.
func RecordWeatherCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	WeatherCacheLookupsTotal.WithLabelValues(result).Inc()
}
