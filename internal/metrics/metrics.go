// Package metrics records how calculations are evaluated.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "aicalc"

// Path labels.
const (
	PathLocal = "local"
	PathAI    = "ai"
)

// Recorder holds the evaluation metrics registered on one registry.
type Recorder struct {
	gatherer prometheus.Gatherer

	// evaluations counts completed evaluations.
	// Labels: path (local, ai), kind (number, text, error)
	evaluations *prometheus.CounterVec

	// aiLatency measures the time spent waiting for the AI service.
	// Labels: kind
	aiLatency *prometheus.HistogramVec

	// rejections counts inputs ignored while a calculation was in flight.
	rejections prometheus.Counter
}

// NewRecorder registers the metrics on registry.
func NewRecorder(registry *prometheus.Registry) *Recorder {
	factory := promauto.With(registry)
	return &Recorder{
		gatherer: registry,
		evaluations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "calculator",
			Name:      "evaluations_total",
			Help:      "Total completed evaluations by path and result kind",
		}, []string{"path", "kind"}),
		aiLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "calculator",
			Name:      "ai_latency_seconds",
			Help:      "AI evaluation latency in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"kind"}),
		rejections: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "calculator",
			Name:      "busy_rejections_total",
			Help:      "Total inputs ignored because a calculation was in flight",
		}),
	}
}

// NewProcessRegistry returns a registry that also exposes Go runtime and process metrics.
func NewProcessRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry
}

// NewNopRecorder returns a recorder on a private registry that nothing exposes.
func NewNopRecorder() *Recorder {
	return NewRecorder(prometheus.NewRegistry())
}

func (r *Recorder) RecordEvaluation(path, kind string) {
	r.evaluations.WithLabelValues(path, kind).Inc()
}

func (r *Recorder) RecordAILatency(kind string, duration time.Duration) {
	r.aiLatency.WithLabelValues(kind).Observe(duration.Seconds())
}

func (r *Recorder) RecordBusyRejection() {
	r.rejections.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}
