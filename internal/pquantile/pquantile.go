// Package pquantile estimates quantiles of an observation stream with the
// P² (piecewise-parabolic) method: five markers per target quantile track
// the running minimum, the target quantile, the maximum, and the two
// midpoints, nudging their heights toward ideal ranks as observations
// arrive. Memory and per-update cost are constant; the observation
// history is never stored. It backs the step-latency percentiles reported
// by GraphMetrics.
//
// Reference: Jain, R. and Chlamtac, I. (1985). "The P² Algorithm for
// Dynamic Calculation of Quantiles and Histograms Without Storing
// Observations". Communications of the ACM, 28(10), pp. 1076-1085.
package pquantile

import (
	"math"
	"sort"
)

// marker is one of the five tracked points of a single-quantile estimator:
// an observation height, the rank it currently occupies among all
// observations seen, the rank it ideally should occupy, and the per-update
// growth of that ideal rank.
type marker struct {
	height float64
	rank   float64
	want   float64
	rate   float64
}

// estimator tracks one target quantile.
type estimator struct {
	p    float64
	m    []marker  // nil until warm-up completes
	warm []float64 // first observations, before the markers exist
}

const warmupSize = 5

func newEstimator(p float64) *estimator {
	return &estimator{p: math.Min(math.Max(p, 0), 1)}
}

func (e *estimator) observe(x float64) {
	if e.m == nil {
		e.warm = append(e.warm, x)
		if len(e.warm) == warmupSize {
			e.start()
		}
		return
	}

	// Locate the bucket x falls in, stretching the extreme markers when x
	// is a new minimum or maximum.
	last := len(e.m) - 1
	k := last - 1
	switch {
	case x < e.m[0].height:
		e.m[0].height = x
		k = 0
	case x >= e.m[last].height:
		e.m[last].height = x
	default:
		for e.m[k].height > x {
			k--
		}
	}

	// Every marker above the bucket shifts up one rank; every ideal rank
	// grows by its rate.
	for i := range e.m {
		if i > k {
			e.m[i].rank++
		}
		e.m[i].want += e.m[i].rate
	}

	for i := 1; i < last; i++ {
		e.adjust(i)
	}
}

// start turns the sorted warm-up buffer into the initial markers.
func (e *estimator) start() {
	sort.Float64s(e.warm)
	e.m = make([]marker, warmupSize)
	for i, h := range e.warm {
		e.m[i] = marker{height: h, rank: float64(i)}
	}
	// Ideal-rank growth per observation: the extremes pin rank 0 and n-1,
	// the middle marker follows the target quantile, the midpoints track
	// half-way to each extreme.
	e.m[1].rate = e.p / 2
	e.m[2].rate = e.p
	e.m[3].rate = (1 + e.p) / 2
	e.m[4].rate = 1
	for i := range e.m {
		e.m[i].want = e.m[i].rate * float64(warmupSize-1)
	}
	e.warm = nil
}

// adjust nudges interior marker i toward its ideal rank when it lags or
// leads by a full position and the neighbor on that side leaves room.
func (e *estimator) adjust(i int) {
	var dir float64
	switch gap := e.m[i].want - e.m[i].rank; {
	case gap >= 1 && e.m[i+1].rank-e.m[i].rank > 1:
		dir = 1
	case gap <= -1 && e.m[i-1].rank-e.m[i].rank < -1:
		dir = -1
	default:
		return
	}

	h := e.piecewiseParabolic(i, dir)
	if h <= e.m[i-1].height || h >= e.m[i+1].height {
		h = e.linearStep(i, dir)
	}
	e.m[i].height = h
	e.m[i].rank += dir
}

// piecewiseParabolic fits a parabola through marker i and its two
// neighbors and evaluates it one rank away in direction dir.
func (e *estimator) piecewiseParabolic(i int, dir float64) float64 {
	lo, mid, hi := e.m[i-1], e.m[i], e.m[i+1]
	up := (mid.rank - lo.rank + dir) * (hi.height - mid.height) / (hi.rank - mid.rank)
	down := (hi.rank - mid.rank - dir) * (mid.height - lo.height) / (mid.rank - lo.rank)
	return mid.height + dir*(up+down)/(hi.rank-lo.rank)
}

// linearStep moves marker i one rank toward dir, interpolating against
// the neighbor on that side.
func (e *estimator) linearStep(i int, dir float64) float64 {
	j := i + int(dir)
	return e.m[i].height + dir*(e.m[j].height-e.m[i].height)/(e.m[j].rank-e.m[i].rank)
}

// estimate returns the current quantile estimate: the middle marker's
// height once warm, the nearest-rank pick from the warm-up buffer before
// that, and 0 with no observations at all.
func (e *estimator) estimate() float64 {
	if e.m != nil {
		return e.m[len(e.m)/2].height
	}
	if len(e.warm) == 0 {
		return 0
	}
	sorted := append([]float64(nil), e.warm...)
	sort.Float64s(sorted)
	return sorted[int(float64(len(sorted)-1)*e.p)]
}

// Estimator tracks several labeled target quantiles of a single
// observation stream, plus simple running count/mean/max statistics. Not
// safe for concurrent use; callers serialize access (see metrics.go's
// mutex).
type Estimator struct {
	targets map[string]*estimator
	sum     float64
	count   int
	max     float64
}

// Target names one tracked percentile, in [0,1].
type Target struct {
	Label      string
	Percentile float64
}

// New constructs an Estimator tracking one quantile per target, e.g.
// New(Target{"p50", 0.5}, Target{"p99", 0.99}).
func New(targets ...Target) *Estimator {
	e := &Estimator{targets: make(map[string]*estimator, len(targets))}
	for _, t := range targets {
		e.targets[t.Label] = newEstimator(t.Percentile)
	}
	return e
}

// Update folds a new observation into every tracked quantile.
func (e *Estimator) Update(x float64) {
	e.count++
	e.sum += x
	if e.count == 1 || x > e.max {
		e.max = x
	}
	for _, t := range e.targets {
		t.observe(x)
	}
}

// Value returns the current estimate for the named quantile, or 0 if
// label is unknown.
func (e *Estimator) Value(label string) float64 {
	t, ok := e.targets[label]
	if !ok {
		return 0
	}
	return t.estimate()
}

// Count returns the number of observations folded in so far.
func (e *Estimator) Count() int { return e.count }

// Mean returns the running arithmetic mean, or 0 with no observations.
func (e *Estimator) Mean() float64 {
	if e.count == 0 {
		return 0
	}
	return e.sum / float64(e.count)
}

// Max returns the maximum observed value, or 0 with no observations.
func (e *Estimator) Max() float64 {
	return e.max
}
