package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_agent_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "chat_agent_request_duration_seconds",
			Help: "HTTP request duration in seconds",
		},
		[]string{"method", "endpoint"},
	)

	ProviderLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "chat_agent_provider_latency_seconds",
			Help: "Generative model call latency in seconds",
		},
		[]string{"model"},
	)

	CascadeFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_agent_cascade_fallbacks_total",
			Help: "Model tier fallbacks taken due to provider overload",
		},
		[]string{"from", "to"},
	)

	ToolCycleRounds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chat_agent_tool_cycle_rounds",
			Help:    "Function-calling rounds per conversation turn",
			Buckets: []float64{0, 1, 2, 3, 4, 5},
		},
	)

	RecoveryOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_agent_recovery_outcomes_total",
			Help: "Structured output recovery outcomes",
		},
		[]string{"outcome"},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_agent_active_sessions",
			Help: "Number of active chat sessions",
		},
	)

	ReportTasks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_agent_report_tasks_total",
			Help: "Report generation tasks by terminal state",
		},
		[]string{"state"},
	)
)
