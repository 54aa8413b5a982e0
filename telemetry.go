package docconv

import "sync"

// Telemetry event names emitted at pipeline milestones. Semantics are
// sink-defined; the pipeline only promises fire-and-forget emission
// that never blocks or fails the request path.
const (
	MetricRequestsReceived  = "requests_received"
	MetricInFlight          = "inflight_requests"
	MetricConversionSuccess = "conversion_success"
	MetricConversionFailure = "conversion_failure"
	MetricConversionSeconds = "conversion_duration_seconds"
	MetricRequestSeconds    = "request_duration_seconds"
	MetricProcessMemory     = "process_memory_bytes"
)

// Sink receives named telemetry events. Implementations must be safe
// for concurrent use and must swallow their own failures: a sink error
// never propagates into a request.
type Sink interface {
	// Count increments a counter.
	Count(name string, delta int64)
	// GaugeAdd adjusts a gauge by delta.
	GaugeAdd(name string, delta float64)
	// GaugeSet replaces a gauge value.
	GaugeSet(name string, value float64)
	// Observe records one histogram observation.
	Observe(name string, value float64)
}

// NopSink discards every event.
type NopSink struct{}

func (NopSink) Count(string, int64)      {}
func (NopSink) GaugeAdd(string, float64) {}
func (NopSink) GaugeSet(string, float64) {}
func (NopSink) Observe(string, float64)  {}

// MemorySink aggregates events in process memory for the metrics
// endpoint. Observations are kept as running sum and count.
type MemorySink struct {
	mu       sync.Mutex
	counters map[string]int64
	gauges   map[string]float64
	obsSum   map[string]float64
	obsCount map[string]int64
}

// NewMemorySink creates an empty in-memory aggregate.
func NewMemorySink() *MemorySink {
	return &MemorySink{
		counters: make(map[string]int64),
		gauges:   make(map[string]float64),
		obsSum:   make(map[string]float64),
		obsCount: make(map[string]int64),
	}
}

func (s *MemorySink) Count(name string, delta int64) {
	s.mu.Lock()
	s.counters[name] += delta
	s.mu.Unlock()
}

func (s *MemorySink) GaugeAdd(name string, delta float64) {
	s.mu.Lock()
	s.gauges[name] += delta
	s.mu.Unlock()
}

func (s *MemorySink) GaugeSet(name string, value float64) {
	s.mu.Lock()
	s.gauges[name] = value
	s.mu.Unlock()
}

func (s *MemorySink) Observe(name string, value float64) {
	s.mu.Lock()
	s.obsSum[name] += value
	s.obsCount[name]++
	s.mu.Unlock()
}

// Counter returns the current value of a counter.
func (s *MemorySink) Counter(name string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters[name]
}

// Snapshot flattens the aggregate for JSON export. Observations appear
// as name_sum / name_count pairs.
func (s *MemorySink) Snapshot() map[string]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]float64, len(s.counters)+len(s.gauges)+2*len(s.obsSum))
	for k, v := range s.counters {
		out[k] = float64(v)
	}
	for k, v := range s.gauges {
		out[k] = v
	}
	for k, v := range s.obsSum {
		out[k+"_sum"] = v
		out[k+"_count"] = float64(s.obsCount[k])
	}
	return out
}

// MultiSink fans events out to several sinks.
type MultiSink []Sink

func (m MultiSink) Count(name string, delta int64) {
	for _, s := range m {
		s.Count(name, delta)
	}
}

func (m MultiSink) GaugeAdd(name string, delta float64) {
	for _, s := range m {
		s.GaugeAdd(name, delta)
	}
}

func (m MultiSink) GaugeSet(name string, value float64) {
	for _, s := range m {
		s.GaugeSet(name, value)
	}
}

func (m MultiSink) Observe(name string, value float64) {
	for _, s := range m {
		s.Observe(name, value)
	}
}
