// Package observability holds the Prometheus metrics of the dashboard
// service.
//
// Metrics live on a private registry so several instances (one per test, for
// example) never collide on the default registerer.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "clinicdash"

// Pipeline stages observed by StageDuration.
const (
	StageFilter    = "filter"
	StageSummarize = "summarize"
	StageRender    = "render"
	StageExport    = "export"
)

// Metrics bundles every collector the service exports.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	StageDuration   *prometheus.HistogramVec
	FilteredRows    prometheus.Histogram
	DatasetRows     prometheus.Gauge
	MissingColumns  prometheus.Gauge
	SourceChanges   prometheus.Counter
	ExportsTotal    prometheus.Counter
}

// NewMetrics registers all collectors on a fresh registry, including the
// Go runtime and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status code",
		}, []string{"route", "method", "status"}),

		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"route"}),

		StageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Time spent in each pipeline stage",
			Buckets:   []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1},
		}, []string{"stage"}),

		FilteredRows: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "filtered_rows",
			Help:      "Rows left after filtering",
			Buckets:   []float64{0, 1, 10, 100, 1000, 10000, 100000},
		}),

		DatasetRows: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "dataset",
			Name:      "rows",
			Help:      "Rows in the loaded dataset",
		}),

		MissingColumns: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "dataset",
			Name:      "missing_role_columns",
			Help:      "Configured role columns absent from the dataset",
		}),

		SourceChanges: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dataset",
			Name:      "source_changes_total",
			Help:      "Changes to the CSV source seen since startup",
		}),

		ExportsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "export",
			Name:      "total",
			Help:      "Filtered CSV exports served",
		}),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.RequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// ObserveStage records the duration of a pipeline stage started at start.
func (m *Metrics) ObserveStage(stage string, start time.Time) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// ObserveFiltered records the row count of a filtered view.
func (m *Metrics) ObserveFiltered(rows int) {
	if m == nil {
		return
	}
	m.FilteredRows.Observe(float64(rows))
}

// SetDataset records the size and role coverage of the loaded dataset.
func (m *Metrics) SetDataset(rows, missingColumns int) {
	if m == nil {
		return
	}
	m.DatasetRows.Set(float64(rows))
	m.MissingColumns.Set(float64(missingColumns))
}

// IncSourceChanges counts one change to the CSV source on disk.
func (m *Metrics) IncSourceChanges() {
	if m == nil {
		return
	}
	m.SourceChanges.Inc()
}

// IncExports counts one served export.
func (m *Metrics) IncExports() {
	if m == nil {
		return
	}
	m.ExportsTotal.Inc()
}
