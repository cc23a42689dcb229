// Package metrics provides lightweight in-process counters without pulling
// in the heavy prometheus/client_golang dependency. A stdio MCP server has
// no scrape endpoint (stdout belongs to the protocol), so counters are
// surfaced as a summary log line on shutdown.
package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Collector is the global metrics collector.
var Collector = NewMetricsCollector()

// MetricsCollector aggregates named counters.
type MetricsCollector struct {
	counters  sync.Map // name -> *Counter
	startTime time.Time
}

// NewMetricsCollector creates a new collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{startTime: time.Now()}
}

// Uptime returns how long the collector has been running.
func (c *MetricsCollector) Uptime() time.Duration {
	return time.Since(c.startTime)
}

// Counter returns the counter with the given name, creating it on first use.
func (c *MetricsCollector) Counter(name, help string) *Counter {
	if v, ok := c.counters.Load(name); ok {
		return v.(*Counter)
	}
	v, _ := c.counters.LoadOrStore(name, &Counter{name: name, help: help})
	return v.(*Counter)
}

// Snapshot returns all counter values, sorted by name.
func (c *MetricsCollector) Snapshot() []CounterValue {
	var out []CounterValue
	c.counters.Range(func(_, v any) bool {
		ctr := v.(*Counter)
		out = append(out, CounterValue{Name: ctr.name, Value: ctr.Value()})
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// CounterValue is a point-in-time counter reading.
type CounterValue struct {
	Name  string
	Value int64
}

// Counter is a monotonically increasing counter.
type Counter struct {
	name  string
	help  string
	value atomic.Int64
}

// Inc increments the counter by 1.
func (c *Counter) Inc() { c.value.Add(1) }

// Add increments the counter by n.
func (c *Counter) Add(n int64) { c.value.Add(n) }

// Value returns the current counter value.
func (c *Counter) Value() int64 { return c.value.Load() }
