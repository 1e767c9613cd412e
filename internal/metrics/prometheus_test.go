package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordEngineCall(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordEngineCall(EngineSTT, nil, 0.2)
	m.RecordEngineCall(EngineSTT, errors.New("quota"), 0.1)
	m.RecordEngineCall(EngineTTS, nil, 0.3)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.EngineCalls.WithLabelValues(EngineSTT, "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EngineCalls.WithLabelValues(EngineSTT, "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EngineCalls.WithLabelValues(EngineTTS, "success")))
}

func TestSessionCounters(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.SessionStarted()
	m.SessionStarted()
	m.SessionsEndedBy("idle", 2)
	m.SessionsEndedBy("explicit", 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SessionsStarted))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SessionsEnded.WithLabelValues("idle")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.SessionsEnded))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordEngineCall(EngineLLM, nil, 1)
		m.RecordChatOutcome(OutcomeOK)
		m.SessionStarted()
		m.SessionsEndedBy("explicit", 1)
		m.RecordHTTPRequest("GET", "/ping", "200", 0.01)
	})
}
