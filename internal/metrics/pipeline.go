package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Language model and recommendation pipeline metrics.
var (
	LLMRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Total number of language model calls",
		},
		[]string{"provider", "model", "status"},
	)

	LLMRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "Language model call duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"provider", "model"},
	)

	LLMTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_tokens_total",
			Help:      "Total language model tokens consumed",
		},
		[]string{"provider", "model", "type"}, // type: prompt / completion
	)

	RecommendationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommendations_total",
			Help:      "Recommendation requests by outcome",
		},
		[]string{"outcome"}, // ok / degraded / error
	)

	RecommendationCandidates = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recommendation_candidates",
			Help:      "Number of candidate grades considered per recommendation",
			Buckets:   []float64{0, 1, 2, 3, 5, 10, 20, 50},
		},
	)

	TicketIndexSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ticket_index_documents",
			Help:      "Documents held by the ticket similarity index",
		},
	)

	TicketIndexBuildsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticket_index_builds_total",
			Help:      "Ticket index build attempts",
		},
		[]string{"status"},
	)
)

var registerPipelineOnce sync.Once

// RegisterPipelineMetrics registers language model, recommendation and index metrics.
func RegisterPipelineMetrics() {
	registerPipelineOnce.Do(func() {
		prometheus.MustRegister(
			LLMRequestsTotal,
			LLMRequestDuration,
			LLMTokensTotal,
			RecommendationsTotal,
			RecommendationCandidates,
			TicketIndexSize,
			TicketIndexBuildsTotal,
		)
	})
}

// RegisterMetrics registers every service metric except the HTTP middleware set,
// which registers itself on package init.
func RegisterMetrics() {
	RegisterEmbeddingMetrics()
	RegisterPipelineMetrics()
}
