package docconv

import (
	"sync"
	"testing"
)

var (
	_ Sink = NopSink{}
	_ Sink = (*MemorySink)(nil)
	_ Sink = MultiSink{}
	_ Sink = (*RedisSink)(nil)
)

func TestMemorySinkCounters(t *testing.T) {
	t.Parallel()

	s := NewMemorySink()
	s.Count(MetricRequestsReceived, 1)
	s.Count(MetricRequestsReceived, 1)
	s.Count(MetricConversionFailure, 3)

	if got := s.Counter(MetricRequestsReceived); got != 2 {
		t.Errorf("Counter(requests) = %d, want 2", got)
	}
	if got := s.Counter(MetricConversionFailure); got != 3 {
		t.Errorf("Counter(failures) = %d, want 3", got)
	}
	if got := s.Counter("never_emitted"); got != 0 {
		t.Errorf("Counter(unknown) = %d, want 0", got)
	}
}

func TestMemorySinkSnapshot(t *testing.T) {
	t.Parallel()

	s := NewMemorySink()
	s.Count(MetricConversionSuccess, 5)
	s.GaugeAdd(MetricInFlight, 2)
	s.GaugeAdd(MetricInFlight, -1)
	s.GaugeSet(MetricProcessMemory, 1234)
	s.Observe(MetricConversionSeconds, 1.5)
	s.Observe(MetricConversionSeconds, 2.5)

	snap := s.Snapshot()

	if got := snap[MetricConversionSuccess]; got != 5 {
		t.Errorf("snapshot[success] = %v, want 5", got)
	}
	if got := snap[MetricInFlight]; got != 1 {
		t.Errorf("snapshot[inflight] = %v, want 1", got)
	}
	if got := snap[MetricProcessMemory]; got != 1234 {
		t.Errorf("snapshot[memory] = %v, want 1234", got)
	}
	if got := snap[MetricConversionSeconds+"_sum"]; got != 4 {
		t.Errorf("snapshot[duration_sum] = %v, want 4", got)
	}
	if got := snap[MetricConversionSeconds+"_count"]; got != 2 {
		t.Errorf("snapshot[duration_count] = %v, want 2", got)
	}
}

func TestMemorySinkConcurrent(t *testing.T) {
	t.Parallel()

	s := NewMemorySink()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Count(MetricRequestsReceived, 1)
			s.GaugeAdd(MetricInFlight, 1)
			s.Observe(MetricRequestSeconds, 0.1)
			s.GaugeAdd(MetricInFlight, -1)
		}()
	}
	wg.Wait()

	if got := s.Counter(MetricRequestsReceived); got != 50 {
		t.Errorf("Counter(requests) = %d, want 50", got)
	}
	snap := s.Snapshot()
	if got := snap[MetricInFlight]; got != 0 {
		t.Errorf("snapshot[inflight] = %v, want 0", got)
	}
	if got := snap[MetricRequestSeconds+"_count"]; got != 50 {
		t.Errorf("snapshot[duration_count] = %v, want 50", got)
	}
}

func TestMultiSinkFansOut(t *testing.T) {
	t.Parallel()

	a := NewMemorySink()
	b := NewMemorySink()
	m := MultiSink{a, b}

	m.Count(MetricRequestsReceived, 1)
	m.GaugeSet(MetricProcessMemory, 7)
	m.Observe(MetricRequestSeconds, 0.5)

	for i, s := range []*MemorySink{a, b} {
		if got := s.Counter(MetricRequestsReceived); got != 1 {
			t.Errorf("sink %d Counter = %d, want 1", i, got)
		}
		snap := s.Snapshot()
		if got := snap[MetricProcessMemory]; got != 7 {
			t.Errorf("sink %d gauge = %v, want 7", i, got)
		}
		if got := snap[MetricRequestSeconds+"_count"]; got != 1 {
			t.Errorf("sink %d obs count = %v, want 1", i, got)
		}
	}
}
