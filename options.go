package dataflow

import (
	"fmt"

	"github.com/joeycumines/logiface"
)

// graphOptions holds resolved Graph configuration: a private config struct
// populated by applying a slice of GraphOption values, each of which may
// fail.
type graphOptions struct {
	logger                 *logiface.Logger[logiface.Event]
	metricsEnabled         bool
	rootDimension          int
	iterationEmptyDebounce int
	debugMode              bool
}

// GraphOption configures a Graph at construction time, via NewGraph.
type GraphOption interface {
	applyGraph(*graphOptions) error
}

type graphOptionFunc func(*graphOptions) error

func (f graphOptionFunc) applyGraph(o *graphOptions) error { return f(o) }

// WithLogger attaches a structured logger (see package logging.go and
// cmd/example-zerolog) used by the Debug operator. No other part of the
// graph, including metrics collection, writes to it.
func WithLogger(l *logiface.Logger[logiface.Event]) GraphOption {
	return graphOptionFunc(func(o *graphOptions) error {
		o.logger = l
		return nil
	})
}

// WithMetrics enables per-step scheduler instrumentation (step count and
// step latency), retrievable via Graph.Metrics. Individual operators are not
// instrumented.
func WithMetrics(enabled bool) GraphOption {
	return graphOptionFunc(func(o *graphOptions) error {
		o.metricsEnabled = enabled
		return nil
	})
}

// WithRootDimension sets the dimension of Versions at the graph's root
// scope (1 or 2). Defaults to 1.
func WithRootDimension(dim int) GraphOption {
	return graphOptionFunc(func(o *graphOptions) error {
		if dim != 1 && dim != 2 {
			return fmt.Errorf("dataflow: WithRootDimension: dimension must be 1 or 2, got %d", dim)
		}
		o.rootDimension = dim
		return nil
	})
}

// WithIterationEmptyDebounce overrides the number of distinct empty
// frontier candidates per outer version the feedback operator (iterate.go)
// tolerates before concluding that outer version's iteration has
// terminated; the count is not reset when data flows again. Must be
// positive; defaults to 3. Smaller values risk premature termination when
// frontiers tick between batches.
func WithIterationEmptyDebounce(n int) GraphOption {
	return graphOptionFunc(func(o *graphOptions) error {
		if n < 1 {
			return fmt.Errorf("dataflow: WithIterationEmptyDebounce: must be >= 1, got %d", n)
		}
		o.iterationEmptyDebounce = n
		return nil
	})
}

// WithDebugMode enables extra structured-logging detail (full record
// dumps, not just counts) on the Debug operator.
func WithDebugMode(enabled bool) GraphOption {
	return graphOptionFunc(func(o *graphOptions) error {
		o.debugMode = enabled
		return nil
	})
}

// resolveGraphOptions applies opts in order, skipping nils, to a freshly
// defaulted graphOptions.
func resolveGraphOptions(opts []GraphOption) (*graphOptions, error) {
	cfg := &graphOptions{
		logger:                 defaultLogger(),
		rootDimension:          1,
		iterationEmptyDebounce: 3,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyGraph(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
