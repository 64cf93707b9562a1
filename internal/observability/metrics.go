package observability

import (
	"sort"
	"sync"
	"time"
)

// MetricType names a recorded series.
type MetricType string

const (
	MetricRenderMs   MetricType = "render_ms"
	MetricConfidence MetricType = "confidence"
	MetricCompliance MetricType = "compliance_score"
	MetricRepairs    MetricType = "repairs"
	MetricErrors     MetricType = "errors"
)

// Counter names used by the render engine.
const (
	CounterRenders = "renders"
	CounterFailed  = "renders_failed"
	CounterRepairs = "repairs_applied"
)

// LabelTemplate is the label key carrying the template name of a render.
const LabelTemplate = "template"

// MetricPoint is a single recorded sample.
type MetricPoint struct {
	Type      MetricType `json:"type"`
	Value     float64    `json:"value"`
	Labels    Labels     `json:"labels,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// Labels are key-value metadata on a sample.
type Labels map[string]string

// MetricsCollector keeps the most recent samples in a fixed-size ring plus a
// set of monotonically increasing counters. Once the ring is full each new
// sample overwrites the oldest one.
type MetricsCollector struct {
	mu       sync.RWMutex
	ring     []MetricPoint
	head     int // index of the oldest sample
	size     int
	counters map[string]int64
	now      func() time.Time
}

// NewMetricsCollector creates a collector holding at most capacity samples.
// A non-positive capacity means 100.
func NewMetricsCollector(capacity int) *MetricsCollector {
	if capacity <= 0 {
		capacity = 100
	}
	return &MetricsCollector{
		ring:     make([]MetricPoint, capacity),
		counters: make(map[string]int64),
		now:      time.Now,
	}
}

// SetClock replaces the timestamp source. Tests use it to pin sample times.
func (c *MetricsCollector) SetClock(now func() time.Time) {
	if now == nil {
		return
	}
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

func (c *MetricsCollector) Capacity() int { return len(c.ring) }

// Len returns the number of buffered samples.
func (c *MetricsCollector) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.size
}

// Record stores a sample stamped with the collector clock.
func (c *MetricsCollector) Record(mt MetricType, value float64, labels Labels) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := MetricPoint{Type: mt, Value: value, Labels: labels, Timestamp: c.now()}
	if c.size < len(c.ring) {
		c.ring[(c.head+c.size)%len(c.ring)] = p
		c.size++
		return
	}
	c.ring[c.head] = p
	c.head = (c.head + 1) % len(c.ring)
}

func (c *MetricsCollector) Increment(name string) { c.IncrementBy(name, 1) }

func (c *MetricsCollector) IncrementBy(name string, n int64) {
	c.mu.Lock()
	c.counters[name] += n
	c.mu.Unlock()
}

func (c *MetricsCollector) Counter(name string) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.counters[name]
}

// scan returns, oldest first, the samples for which keep is true.
// Callers must hold c.mu.
func (c *MetricsCollector) scan(keep func(MetricPoint) bool) []MetricPoint {
	var out []MetricPoint
	for i := 0; i < c.size; i++ {
		p := c.ring[(c.head+i)%len(c.ring)]
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

// Query returns samples of one type recorded at or after since, oldest first.
// A zero since returns every buffered sample of that type.
func (c *MetricsCollector) Query(mt MetricType, since time.Time) []MetricPoint {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.scan(func(p MetricPoint) bool {
		return p.Type == mt && (since.IsZero() || !p.Timestamp.Before(since))
	})
}

// QueryWithLabel returns samples of one type carrying key=value.
func (c *MetricsCollector) QueryWithLabel(mt MetricType, key, value string) []MetricPoint {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.scan(func(p MetricPoint) bool {
		return p.Type == mt && p.Labels[key] == value
	})
}

// Last returns the newest sample of a type.
func (c *MetricsCollector) Last(mt MetricType) (MetricPoint, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i := c.size - 1; i >= 0; i-- {
		if p := c.ring[(c.head+i)%len(c.ring)]; p.Type == mt {
			return p, true
		}
	}
	return MetricPoint{}, false
}

// Summary holds aggregate statistics for one series.
type Summary struct {
	Count int     `json:"count"`
	Sum   float64 `json:"sum"`
	Mean  float64 `json:"mean"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
	P99   float64 `json:"p99"`
}

// Summarize aggregates the buffered samples of a type recorded at or after
// since.
func (c *MetricsCollector) Summarize(mt MetricType, since time.Time) Summary {
	return summarize(c.Query(mt, since))
}

// SummarizeBy aggregates the samples of a type grouped by the value of one
// label. Samples without the label are left out.
func (c *MetricsCollector) SummarizeBy(mt MetricType, key string) map[string]Summary {
	c.mu.RLock()
	groups := make(map[string][]MetricPoint)
	for _, p := range c.scan(func(p MetricPoint) bool { return p.Type == mt }) {
		if v, ok := p.Labels[key]; ok {
			groups[v] = append(groups[v], p)
		}
	}
	c.mu.RUnlock()

	out := make(map[string]Summary, len(groups))
	for v, points := range groups {
		out[v] = summarize(points)
	}
	return out
}

func summarize(points []MetricPoint) Summary {
	if len(points) == 0 {
		return Summary{}
	}
	values := make([]float64, len(points))
	s := Summary{Count: len(points)}
	for i, p := range points {
		values[i] = p.Value
		s.Sum += p.Value
	}
	sort.Float64s(values)
	s.Mean = s.Sum / float64(s.Count)
	s.Min, s.Max = values[0], values[len(values)-1]
	s.P50 = percentile(values, 0.50)
	s.P95 = percentile(values, 0.95)
	s.P99 = percentile(values, 0.99)
	return s
}

// Reset drops all samples and counters.
func (c *MetricsCollector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.ring)
	c.head, c.size = 0, 0
	c.counters = make(map[string]int64)
}

// Snapshot returns a copy of the counters.
func (c *MetricsCollector) Snapshot() map[string]int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap := make(map[string]int64, len(c.counters))
	for k, v := range c.counters {
		snap[k] = v
	}
	return snap
}

// percentile linearly interpolates the p-th percentile of sorted values.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	rank := p * float64(n-1)
	i := int(rank)
	if i+1 >= n {
		return sorted[n-1]
	}
	return sorted[i] + (sorted[i+1]-sorted[i])*(rank-float64(i))
}
