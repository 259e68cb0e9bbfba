// Package metrics provides Prometheus metrics for the feature engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager holds the Prometheus metrics for one engine instance.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Build metrics
	vectorsBuilt        prometheus.Counter
	buildErrors         prometheus.Counter
	matchupBuildSeconds prometheus.Histogram

	// Bulk dataset metrics
	rowsBuilt           prometheus.Counter
	rowsFailed          prometheus.Counter
	datasetBuildSeconds prometheus.Histogram
	datasetWorkers      prometheus.Gauge

	// Event log metrics
	eventLogGames  prometheus.Gauge
	eventLogTeams  prometheus.Gauge
	duplicateGames prometheus.Counter

	// Verifier metrics
	verifierMismatches prometheus.Counter
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "featurecast",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.vectorsBuilt = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "vectors_built_total",
		Help:      "Total number of feature vectors built",
	})
	m.buildErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "build_errors_total",
		Help:      "Total number of matchup builds aborted by an error",
	})
	m.matchupBuildSeconds = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "matchup_build_seconds",
		Help:      "Latency of single matchup feature builds",
		Buckets:   m.histogramBuckets,
	})

	m.rowsBuilt = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "dataset_rows_built_total",
		Help:      "Total number of bulk dataset rows built",
	})
	m.rowsFailed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "dataset_rows_failed_total",
		Help:      "Total number of bulk dataset rows that failed to build",
	})
	m.datasetBuildSeconds = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "dataset_build_seconds",
		Help:      "Latency of full bulk dataset builds",
		Buckets:   []float64{.1, .5, 1, 5, 15, 30, 60, 120, 300},
	})
	m.datasetWorkers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "dataset_workers",
		Help:      "Number of active bulk build workers",
	})

	m.eventLogGames = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "eventlog_games",
		Help:      "Games in the frozen event log snapshot",
	})
	m.eventLogTeams = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "eventlog_teams",
		Help:      "Teams with at least one game in the snapshot",
	})
	m.duplicateGames = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "duplicate_games_total",
		Help:      "Duplicate game IDs skipped during ingestion (data quality signal)",
	})

	m.verifierMismatches = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "verifier_mismatches_total",
		Help:      "Feature mismatches found by the consistency verifier",
	})
}

// Package-level helpers against the global manager.

// RecordVectorBuilt increments the built-vector counter.
func RecordVectorBuilt() { globalManager.vectorsBuilt.Inc() }

// RecordBuildError increments the aborted-build counter.
func RecordBuildError() { globalManager.buildErrors.Inc() }

// ObserveMatchupBuildSeconds records one matchup build latency.
func ObserveMatchupBuildSeconds(seconds float64) {
	globalManager.matchupBuildSeconds.Observe(seconds)
}

// RecordRowBuilt increments the dataset row counter.
func RecordRowBuilt() { globalManager.rowsBuilt.Inc() }

// RecordRowFailed increments the failed dataset row counter.
func RecordRowFailed() { globalManager.rowsFailed.Inc() }

// ObserveDatasetBuildSeconds records one bulk build latency.
func ObserveDatasetBuildSeconds(seconds float64) {
	globalManager.datasetBuildSeconds.Observe(seconds)
}

// UpdateDatasetWorkers sets the active worker gauge.
func UpdateDatasetWorkers(count int) { globalManager.datasetWorkers.Set(float64(count)) }

// UpdateEventLogGames sets the snapshot game count gauge.
func UpdateEventLogGames(count int) { globalManager.eventLogGames.Set(float64(count)) }

// UpdateEventLogTeams sets the snapshot team count gauge.
func UpdateEventLogTeams(count int) { globalManager.eventLogTeams.Set(float64(count)) }

// RecordDuplicateGame increments the skipped-duplicate counter.
func RecordDuplicateGame() { globalManager.duplicateGames.Inc() }

// RecordVerifierMismatch increments the verifier mismatch counter.
func RecordVerifierMismatch() { globalManager.verifierMismatches.Inc() }

// GetRegistry returns the custom registry for the metrics endpoint.
func GetRegistry() *prometheus.Registry { return customRegistry }
