package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the relay.
type Metrics struct {
	RunsTotal       *prometheus.CounterVec
	RunDuration     prometheus.Histogram
	RunTokens       prometheus.Histogram
	ImagesTotal     *prometheus.CounterVec
	ImageDuration   prometheus.Histogram
	InFlight        prometheus.Gauge
	RetriesTotal    *prometheus.CounterVec
	LLMStreamsTotal *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "designrelay",
			Name:      "runs_total",
			Help:      "Processing runs by terminal outcome.",
		}, []string{"outcome"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "designrelay",
			Name:      "run_duration_seconds",
			Help:      "Wall time of a processing run.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
		}),
		RunTokens: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "designrelay",
			Name:      "run_tokens",
			Help:      "Tokens consumed per run.",
			Buckets:   prometheus.ExponentialBuckets(8, 2, 10),
		}),
		ImagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "designrelay",
			Name:      "images_total",
			Help:      "Image side effects by final status.",
		}, []string{"status"}),
		ImageDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "designrelay",
			Name:      "image_duration_seconds",
			Help:      "Generation plus upload time.",
			Buckets:   []float64{1, 5, 10, 20, 40, 60, 120, 240},
		}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "designrelay",
			Name:      "runs_in_flight",
			Help:      "Runs currently streaming.",
		}),
		RetriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "designrelay",
			Name:      "retries_total",
			Help:      "Adapter retries by component.",
		}, []string{"component"}),
		LLMStreamsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "designrelay",
			Name:      "llm_streams_total",
			Help:      "Provider streams opened.",
		}, []string{"provider", "model"}),
	}
	reg.MustRegister(m.RunsTotal, m.RunDuration, m.RunTokens, m.ImagesTotal, m.ImageDuration, m.InFlight, m.RetriesTotal, m.LLMStreamsTotal)
	return m
}

// Hooks returns callbacks that feed the collectors.
func (m *Metrics) Hooks() *Hooks {
	return &Hooks{
		OnLLMRequest: func(ctx context.Context, provider string, model string, meta map[string]any) {
			m.LLMStreamsTotal.WithLabelValues(provider, model).Inc()
		},
		OnRunStart: func(ctx context.Context, runID string) {
			m.InFlight.Inc()
		},
		OnRunFinish: func(ctx context.Context, runID string, outcome string, tokens int, latency time.Duration) {
			m.InFlight.Dec()
			m.RunsTotal.WithLabelValues(outcome).Inc()
			m.RunDuration.Observe(latency.Seconds())
			m.RunTokens.Observe(float64(tokens))
		},
		OnImage: func(ctx context.Context, status string, latency time.Duration) {
			m.ImagesTotal.WithLabelValues(status).Inc()
			m.ImageDuration.Observe(latency.Seconds())
		},
		OnRetry: func(ctx context.Context, component string, attempt int, err error) {
			m.RetriesTotal.WithLabelValues(component).Inc()
		},
	}
}
