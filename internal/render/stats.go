package render

import (
	"time"

	"github.com/overhuman/overlay/internal/observability"
)

// RenderStats summarises recent renders. Times are in milliseconds and the
// aggregates cover the bounded sample buffer, oldest samples evicted first.
type RenderStats struct {
	LastRenderTime    float64 `json:"last_render_ms"`
	TotalRenders      int64   `json:"total_renders"`
	FailedRenders     int64   `json:"failed_renders"`
	AverageRenderTime float64 `json:"average_render_ms"`
	Samples           int     `json:"samples"`
	P50               float64 `json:"p50_ms"`
	P95               float64 `json:"p95_ms"`
	// PerTemplate is the mean render time of the buffered samples of each
	// template. Renders that failed before classification are not listed.
	PerTemplate map[string]float64 `json:"per_template_ms,omitempty"`
}

// record feeds one finished render into the metrics collector.
func (e *Engine) record(res *RenderResult) {
	m := e.deps.Metrics
	labels := observability.Labels{}
	if res.Template != nil {
		labels[observability.LabelTemplate] = res.Template.Type.String()
	}

	m.Increment(observability.CounterRenders)
	m.Record(observability.MetricRenderMs, ms(res.Performance.RenderTime), labels)
	if !res.Success {
		m.Increment(observability.CounterFailed)
		m.Record(observability.MetricErrors, 1, labels)
		return
	}
	m.Record(observability.MetricConfidence, res.Template.Confidence, labels)
	m.Record(observability.MetricCompliance, res.Validation.Score, labels)

	fixed := 0
	for _, r := range res.Repairs {
		if r.Fixed {
			fixed++
		}
	}
	if fixed > 0 {
		m.Record(observability.MetricRepairs, float64(fixed), labels)
		m.IncrementBy(observability.CounterRepairs, int64(fixed))
	}
}

// Stats returns the render statistics.
func (e *Engine) Stats() RenderStats {
	m := e.deps.Metrics
	sum := m.Summarize(observability.MetricRenderMs, time.Time{})
	st := RenderStats{
		TotalRenders:      m.Counter(observability.CounterRenders),
		FailedRenders:     m.Counter(observability.CounterFailed),
		AverageRenderTime: sum.Mean,
		Samples:           sum.Count,
		P50:               sum.P50,
		P95:               sum.P95,
	}
	if last, ok := m.Last(observability.MetricRenderMs); ok {
		st.LastRenderTime = last.Value
	}
	if by := m.SummarizeBy(observability.MetricRenderMs, observability.LabelTemplate); len(by) > 0 {
		st.PerTemplate = make(map[string]float64, len(by))
		for name, s := range by {
			st.PerTemplate[name] = s.Mean
		}
	}
	return st
}

// Metrics exposes the collector behind Stats.
func (e *Engine) Metrics() *observability.MetricsCollector {
	return e.deps.Metrics
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
