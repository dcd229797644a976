package dataflow

import (
	"sync"
	"time"

	"github.com/joeycumines/go-dataflow/internal/pquantile"
)

// Metrics is a snapshot of a Graph's scheduler step instrumentation,
// returned by Graph.Metrics. It is the zero value (all fields zero) when
// WithMetrics(true) was not supplied to NewGraph.
//
// A lock-protected struct of running statistics, snapshotted by value for
// safe concurrent reads, backed by a P-Square streaming-quantile estimator
// (internal/pquantile).
type Metrics struct {
	// Steps is the number of completed Graph.Step calls.
	Steps int64

	// StepLatency summarizes the wall-clock duration of each Graph.Step call.
	StepLatency LatencyMetrics
}

// LatencyMetrics reports streaming percentile estimates of a duration
// distribution.
type LatencyMetrics struct {
	P50  time.Duration
	P90  time.Duration
	P99  time.Duration
	Mean time.Duration
	Max  time.Duration
}

// GraphMetrics is the live, mutable instrumentation object held by a Graph
// when WithMetrics(true) is set. All methods tolerate a nil receiver so
// that Graph.Step and friends never need a "metrics enabled" branch of
// their own: metrics add minimal overhead and never change control flow in
// the hot path.
type GraphMetrics struct {
	mu    sync.Mutex
	steps int64
	lat   *pquantile.Estimator
}

func newGraphMetrics() *GraphMetrics {
	return &GraphMetrics{
		lat: pquantile.New(
			pquantile.Target{Label: "p50", Percentile: 0.50},
			pquantile.Target{Label: "p90", Percentile: 0.90},
			pquantile.Target{Label: "p99", Percentile: 0.99},
		),
	}
}

// startStep records the beginning of a Graph.Step call; the returned time
// is passed to endStep.
func (m *GraphMetrics) startStep() time.Time {
	if m == nil {
		return time.Time{}
	}
	return time.Now()
}

// endStep folds the elapsed time since start into the latency estimator.
func (m *GraphMetrics) endStep(start time.Time) {
	if m == nil {
		return
	}
	elapsed := time.Since(start)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps++
	m.lat.Update(float64(elapsed))
}

func (m *GraphMetrics) snapshot() Metrics {
	if m == nil {
		return Metrics{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return Metrics{
		Steps: m.steps,
		StepLatency: LatencyMetrics{
			P50:  time.Duration(m.lat.Value("p50")),
			P90:  time.Duration(m.lat.Value("p90")),
			P99:  time.Duration(m.lat.Value("p99")),
			Mean: time.Duration(m.lat.Mean()),
			Max:  time.Duration(m.lat.Max()),
		},
	}
}
