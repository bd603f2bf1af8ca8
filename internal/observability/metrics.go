package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "arctic_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for profile loading.
type Metrics struct {
	FilesDiscovered *prometheus.CounterVec // labels: source
	Profiles        *prometheus.CounterVec // labels: source, status={accepted,skipped,failed}
	ProfilesSkipped *prometheus.CounterVec // labels: reason
	RowsLoaded      prometheus.Counter
	LoadRunning     prometheus.Gauge

	// Per-load metrics.
	TableRows    prometheus.Gauge
	LoadDuration prometheus.Histogram
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FilesDiscovered,
		m.Profiles,
		m.ProfilesSkipped,
		m.RowsLoaded,
		m.LoadRunning,
		m.TableRows,
		m.LoadDuration,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FilesDiscovered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_discovered_total",
			Help:      "Candidate profile files found in source directories.",
		}, []string{"source"}),
		Profiles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "profiles_total",
			Help:      "Profile files processed, by source and outcome.",
		}, []string{"source", "status"}),
		ProfilesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "profiles_skipped_total",
			Help:      "Profiles excluded on purpose, by reason.",
		}, []string{"reason"}),
		RowsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_loaded_total",
			Help:      "Measurement rows placed in tables.",
		}),
		LoadRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "load_running",
			Help:      "1 while a load is in progress, 0 otherwise.",
		}),
		TableRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "table_rows",
			Help:      "Rows in the most recently assembled table.",
		}),
		LoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "load_duration_seconds",
			Help:      "Duration of one complete discover-parse-filter load.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
	}
}

// WriteTextfile writes every metric in the default registry to path in the
// Prometheus text exposition format, for the node_exporter textfile collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
