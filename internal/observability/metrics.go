package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	ActiveDrafts     prometheus.Gauge
	WorkflowEvents   *prometheus.CounterVec
	FinalizeOutcomes *prometheus.CounterVec
	WorkflowErrors   *prometheus.CounterVec
	PromptsSent      *prometheus.CounterVec
	RemoteLatency    *prometheus.HistogramVec
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ActiveDrafts: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_drafts",
			Help:      "Number of task drafts currently in progress.",
		}),
		WorkflowEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_events_total",
			Help:      "Inbound workflow events by kind.",
		}, []string{"kind"}),
		FinalizeOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "finalize_outcomes_total",
			Help:      "Finalize sequence outcomes.",
		}, []string{"outcome"}),
		WorkflowErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_errors_total",
			Help:      "Workflow errors by classification.",
		}, []string{"kind"}),
		PromptsSent: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prompts_sent_total",
			Help:      "Outbound prompts by delivery result.",
		}, []string{"result"}),
		RemoteLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "remote_request_seconds",
			Help:      "Remote task service request latency in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"op"}),
	}
}

func (m *Metrics) ObserveRemoteLatency(op string, d time.Duration) {
	m.RemoteLatency.WithLabelValues(op).Observe(d.Seconds())
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
