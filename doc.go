// Package dataflow implements the core of an incremental, change-propagating
// dataflow engine modeled on differential dataflow.
//
// # Architecture
//
// A [Graph] owns a set of [Edge] queues and a set of operators, built via
// the input/combinator functions spread across this package ([NewInput],
// [MapStream], [Filter], [Negate], [Concat], [Join], [Reduce], [Count],
// [Distinct], [Consolidate], [Debug], [Iterate]) and run to completion with
// [Graph.Finalize] followed by repeated calls to [Graph.Step].
//
// Collections evolve through logical [Version]s — finite tuples of
// non-negative integers under the product partial order. Inputs arrive as
// signed change batches ([MultiSet]); the engine propagates the exact delta
// stream that, summed, equals the result of applying the same operators to
// the cumulative input, without recomputing from scratch.
//
// The hard engineering lives in four places:
//
//   - [Index], the version-aware indexed arrangement storing per-key,
//     per-version multiplicity deltas, supporting reconstruction, append,
//     key-wise join, and frontier-directed compaction.
//   - the reduce/join operators, emitting only the minimal corrective
//     deltas as inputs change and frontiers advance.
//   - the partial-order algebra in version.go/antichain.go (product order,
//     antichains) driving progress tracking.
//   - the iteration (fixed-point) loop in iterate.go, via ingress/egress/
//     feedback with empty-notification termination.
//
// # Execution model
//
// Scheduling is single-threaded and cooperative: [Graph.Step] invokes every
// operator's run method once, in registration order. An operator drains its
// currently-enqueued messages and returns; there are no suspension points.
// External drivers loop [Graph.Step] until [ProbeFrontierLessThan] is
// satisfied on every output they care about, or for a fixed number of
// rounds. Operators are safe to re-invoke repeatedly but are not safe for
// concurrent use from multiple goroutines.
//
// # Logging and metrics
//
// The graph accepts an optional structured logger ([WithLogger]) built on
// [github.com/joeycumines/logiface], used by the [Debug] operator.
// [WithMetrics] separately enables step-count and step-latency metrics,
// read via [Graph.Metrics]. See
// cmd/example-zerolog for a complete wiring example using
// [github.com/joeycumines/izerolog] over [github.com/rs/zerolog].
//
// # Non-goals
//
// This package does not implement a query language, alternative
// persistence backends, a wire protocol, or a CLI; those are external
// collaborators consuming the stream/operator API exposed here.
package dataflow
