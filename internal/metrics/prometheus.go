package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusRecorder implements the Recorder interface using Prometheus metrics.
type PrometheusRecorder struct {
	stageTotal    *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	tokensTotal   *prometheus.CounterVec
}

// NewPrometheusRecorder creates a recorder whose collectors are registered on reg.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	factory := promauto.With(reg)
	return &PrometheusRecorder{
		stageTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipeline_stage_total",
				Help: "Total number of pipeline stage executions by stage and status",
			},
			[]string{"stage", "status"},
		),
		stageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pipeline_stage_duration_seconds",
				Help:    "Duration of pipeline stages in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 80},
			},
			[]string{"stage"},
		),
		tokensTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_tokens_total",
				Help: "Total number of tokens used in LLM requests",
			},
			[]string{"agent", "type"},
		),
	}
}

// ObserveStage records the outcome and duration of one stage.
func (p *PrometheusRecorder) ObserveStage(stage, status string, duration time.Duration) {
	p.stageTotal.WithLabelValues(stage, status).Inc()
	p.stageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// ObserveTokens records prompt and completion token counts for an agent.
func (p *PrometheusRecorder) ObserveTokens(agent string, promptTokens, completionTokens int) {
	p.tokensTotal.WithLabelValues(agent, "prompt").Add(float64(promptTokens))
	p.tokensTotal.WithLabelValues(agent, "completion").Add(float64(completionTokens))
}
