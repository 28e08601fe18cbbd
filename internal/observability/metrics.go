package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for simulation runs.
type Metrics struct {
	RunsTotal          *prometheus.CounterVec // labels: outcome={success,alignment_error,error}
	SamplesGenerated   *prometheus.CounterVec // labels: series={wind,storm,burst}
	EventPoints        *prometheus.CounterVec // labels: series={storm,burst}
	EventWindows       *prometheus.CounterVec // labels: series={storm,burst}
	SimulationDuration prometheus.Histogram
	LastPeakSpeed      prometheus.Gauge

	// Sink metrics.
	SinkWrites   *prometheus.CounterVec   // labels: sink, outcome={success,retry,error}
	SinkDuration *prometheus.HistogramVec // labels: sink
}

// NewMetrics creates and registers all simulation metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RunsTotal,
		m.SamplesGenerated,
		m.EventPoints,
		m.EventWindows,
		m.SimulationDuration,
		m.LastPeakSpeed,
		m.SinkWrites,
		m.SinkDuration,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "windsim",
			Name:      "runs_total",
			Help:      "Simulation runs by outcome.",
		}, []string{"outcome"}),
		SamplesGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "windsim",
			Name:      "samples_generated_total",
			Help:      "Grid samples generated per series.",
		}, []string{"series"}),
		EventPoints: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "windsim",
			Name:      "event_points_total",
			Help:      "Grid points inside storm or burst windows.",
		}, []string{"series"}),
		EventWindows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "windsim",
			Name:      "event_windows_total",
			Help:      "Contiguous storm or burst windows generated.",
		}, []string{"series"}),
		SimulationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "windsim",
			Name:      "simulation_duration_seconds",
			Help:      "Time to generate and merge all series of a run.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		}),
		LastPeakSpeed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "windsim",
			Name:      "last_run_peak_speed",
			Help:      "Peak combined wind speed of the most recent run.",
		}),
		SinkWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "windsim",
			Name:      "sink_writes_total",
			Help:      "Run deliveries to output sinks by outcome.",
		}, []string{"sink", "outcome"}),
		SinkDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "windsim",
			Name:      "sink_write_duration_seconds",
			Help:      "Duration of a single sink delivery attempt.",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		}, []string{"sink"}),
	}
}
