package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for a crawl run.
type Metrics struct {
	registry *prometheus.Registry

	FetchedTotal  *prometheus.CounterVec
	ErrorsTotal   *prometheus.CounterVec
	SkippedTotal  prometheus.Counter
	RetriesTotal  prometheus.Counter
	BytesWritten  prometheus.Counter
	FrontierDepth prometheus.Gauge
	InFlight      prometheus.Gauge
}

// NewMetrics builds a fresh registry so several crawl runs in one
// process never trip duplicate registration.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		FetchedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "crawler_resources_fetched_total",
			Help: "Resources fetched and written, by content kind",
		}, []string{"kind"}),
		ErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "crawler_errors_total",
			Help: "Errors encountered, by type",
		}, []string{"type"}), // 'transport', 'http', 'write', 'malformed_url'
		SkippedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "crawler_resources_skipped_total",
			Help: "Resources skipped (cached, off-origin redirects)",
		}),
		RetriesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "crawler_fetch_retries_total",
			Help: "Fetch attempts beyond the first, across all resources",
		}),
		BytesWritten: factory.NewCounter(prometheus.CounterOpts{
			Name: "crawler_bytes_written_total",
			Help: "Bytes written into the mirror tree",
		}),
		FrontierDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "crawler_frontier_depth",
			Help: "URLs discovered but not yet claimed by a worker",
		}),
		InFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "crawler_inflight_fetches",
			Help: "URLs currently claimed by workers",
		}),
	}
}

// Registry exposes the run's registry for the metrics endpoint.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) IncFetched(kind string) {
	m.FetchedTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncError(errorType string) {
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}
