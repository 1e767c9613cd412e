package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Engine labels.
const (
	EngineSTT = "stt"
	EngineLLM = "llm"
	EngineTTS = "tts"
)

// Chat outcome labels.
const (
	OutcomeOK       = "ok"
	OutcomeEmpty    = "empty"
	OutcomeDegraded = "degraded"
	OutcomeFailed   = "failed"
)

// Metrics contains all Prometheus metrics for the chat relay
type Metrics struct {
	// Engine call metrics
	EngineCalls    *prometheus.CounterVec
	EngineDuration *prometheus.HistogramVec

	// Orchestrator metrics
	ChatOutcomes    *prometheus.CounterVec
	SessionsStarted prometheus.Counter
	SessionsEnded   *prometheus.CounterVec

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates the metrics and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		EngineCalls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "voicechat_engine_calls_total",
			Help: "Total number of external engine calls by engine and result",
		}, []string{"engine", "result"}),
		EngineDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "voicechat_engine_call_duration_seconds",
			Help:    "Duration of external engine calls",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		}, []string{"engine"}),

		ChatOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "voicechat_chat_outcomes_total",
			Help: "Total number of chat requests by terminal outcome",
		}, []string{"outcome"}),
		SessionsStarted: f.NewCounter(prometheus.CounterOpts{
			Name: "voicechat_sessions_started_total",
			Help: "Total number of sessions started",
		}),
		SessionsEnded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "voicechat_sessions_ended_total",
			Help: "Total number of sessions ended, by reason (explicit|idle)",
		}, []string{"reason"}),

		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "voicechat_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "voicechat_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
	}
}

// RecordEngineCall records one external engine call
func (m *Metrics) RecordEngineCall(engine string, err error, durationSeconds float64) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.EngineCalls.WithLabelValues(engine, result).Inc()
	m.EngineDuration.WithLabelValues(engine).Observe(durationSeconds)
}

func (m *Metrics) RecordChatOutcome(outcome string) {
	if m == nil {
		return
	}
	m.ChatOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.SessionsStarted.Inc()
}

// SessionsEndedBy adds n ended sessions under reason.
func (m *Metrics) SessionsEndedBy(reason string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.SessionsEnded.WithLabelValues(reason).Add(float64(n))
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}
