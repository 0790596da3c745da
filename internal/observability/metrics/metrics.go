package metrics

import "github.com/prometheus/client_golang/prometheus"

// ToolMetrics exposes counters/histograms for tool-call dispatch.
type ToolMetrics struct {
	callsTotal   *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
}

func NewToolMetrics(reg prometheus.Registerer) *ToolMetrics {
	m := &ToolMetrics{
		callsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "juvonno",
			Subsystem: "tools",
			Name:      "calls_total",
			Help:      "Total tool calls by tool name and outcome",
		}, []string{"tool", "status"}),
		callDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "juvonno",
			Subsystem: "tools",
			Name:      "call_duration_seconds",
			Help:      "Latency of tool-call dispatch including upstream time",
			Buckets:   prometheus.DefBuckets,
		}, []string{"tool"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.callsTotal, m.callDuration)
	return m
}

// ObserveCall records one dispatched tool call. status is "success" or the
// failure kind tag.
func (m *ToolMetrics) ObserveCall(tool, status string, seconds float64) {
	if m == nil {
		return
	}
	m.callsTotal.WithLabelValues(tool, status).Inc()
	m.callDuration.WithLabelValues(tool).Observe(seconds)
}
