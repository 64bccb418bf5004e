package bench

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Metrics aggregates results across workers.
type Metrics struct {
	total   atomic.Int64
	success atomic.Int64
	errors  atomic.Int64

	// Latency histogram in microseconds, 1us to 60s, 3 significant digits.
	mu        sync.Mutex
	histogram *hdrhistogram.Histogram

	startTime time.Time
	endTime   time.Time
}

// NewMetrics creates an empty collector.
func NewMetrics() *Metrics {
	return &Metrics{
		histogram: hdrhistogram.New(1, 60_000_000, 3),
	}
}

// Start marks the beginning of the run.
func (m *Metrics) Start() { m.startTime = time.Now() }

// Stop marks the end of the run.
func (m *Metrics) Stop() { m.endTime = time.Now() }

// Record adds one request outcome.
func (m *Metrics) Record(duration time.Duration, err error) {
	m.total.Add(1)
	if err != nil {
		m.errors.Add(1)
	} else {
		m.success.Add(1)
	}

	us := duration.Microseconds()
	if us < 1 {
		us = 1
	}
	if us > 60_000_000 {
		us = 60_000_000
	}
	m.mu.Lock()
	m.histogram.RecordValue(us)
	m.mu.Unlock()
}

// Summary is the final aggregate of a run.
type Summary struct {
	Total    int64
	Success  int64
	Errors   int64
	Duration time.Duration
	RPS      float64
	P50      time.Duration
	P90      time.Duration
	P99      time.Duration
	Max      time.Duration
}

// Summarize freezes the collector into a Summary.
func (m *Metrics) Summarize() Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	elapsed := m.endTime.Sub(m.startTime)
	total := m.total.Load()
	rps := 0.0
	if elapsed > 0 {
		rps = float64(total) / elapsed.Seconds()
	}
	return Summary{
		Total:    total,
		Success:  m.success.Load(),
		Errors:   m.errors.Load(),
		Duration: elapsed,
		RPS:      rps,
		P50:      time.Duration(m.histogram.ValueAtQuantile(50)) * time.Microsecond,
		P90:      time.Duration(m.histogram.ValueAtQuantile(90)) * time.Microsecond,
		P99:      time.Duration(m.histogram.ValueAtQuantile(99)) * time.Microsecond,
		Max:      time.Duration(m.histogram.Max()) * time.Microsecond,
	}
}
