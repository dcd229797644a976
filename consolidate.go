package dataflow

import (
	"fmt"
	"strings"
)

// Consolidate buffers every Data message it sees, keyed by version, and
// only forwards a version's accumulated (and now-consolidated) multiset
// once the input frontier advances past that version — i.e. once no
// further Data can arrive for it.
type consolidateOperator[T comparable] struct {
	name        string
	in          *Reader[T]
	out         *Edge[T]
	pending     map[Version]MultiSet[T]
	inFrontier  Antichain
	outFrontier Antichain
}

func (op *consolidateOperator[T]) Run() {
	for _, msg := range op.in.Drain() {
		if msg.IsFrontier {
			if !op.inFrontier.LessEqual(msg.Frontier) {
				panicWith(&NonMonotonicFrontierError{Edge: op.name, Previous: op.inFrontier, Next: msg.Frontier})
			}
			op.inFrontier = msg.Frontier
			continue
		}
		op.pending[msg.Version] = op.pending[msg.Version].Concat(msg.Data)
	}

	for _, v := range sortVersions(pendingVersions(op.pending)) {
		if op.inFrontier.LessEqualVersion(v) {
			continue // still open: more data may still arrive at v
		}
		data := op.pending[v].Consolidate()
		delete(op.pending, v)
		if data.Len() == 0 {
			// a version whose batches cancel exactly produces no message;
			// iteration termination relies on this quiescence.
			continue
		}
		if err := op.out.SendData(v, data); err != nil {
			panicWith(err)
		}
	}

	if op.inFrontier.Less(op.outFrontier) {
		panicWith(&InvalidFrontierStateError{Operator: op.name, Detail: "output frontier would regress"})
	}
	if !op.inFrontier.Equal(op.outFrontier) {
		if err := op.out.SendFrontier(op.inFrontier); err != nil {
			panicWith(err)
		}
		op.outFrontier = op.inFrontier
	}
}

func pendingVersions[T any](m map[Version]T) []Version {
	out := make([]Version, 0, len(m))
	for v := range m {
		out = append(out, v)
	}
	return out
}

// Consolidate groups s's records by version, summing multiplicities and
// dropping zero sums, emitting one Data message per version once that
// version's frontier has closed.
func Consolidate[T comparable](s Stream[T]) Stream[T] {
	out := newEdge[T](s.graph)
	op := &consolidateOperator[T]{
		in:          s.NewReader(),
		out:         out,
		pending:     make(map[Version]MultiSet[T]),
		inFrontier:  s.graph.currentFrontier(),
		outFrontier: s.graph.currentFrontier(),
	}
	op.name = s.graph.register("consolidate", op)
	return Stream[T]{graph: s.graph, edge: out}
}

type debugOperator[T comparable] struct {
	name  string
	in    *Reader[T]
	out   *Edge[T]
	label string
	graph *Graph
}

func (op *debugOperator[T]) Run() {
	for _, msg := range op.in.Drain() {
		if msg.IsFrontier {
			op.graph.Logger().Info().
				Str("operator", op.name).
				Str("label", op.label).
				Str("frontier", msg.Frontier.String()).
				Log("frontier advanced")
			if err := op.out.SendFrontier(msg.Frontier); err != nil {
				panicWith(err)
			}
			continue
		}
		b := op.graph.Logger().Info().
			Str("operator", op.name).
			Str("label", op.label).
			Str("version", msg.Version.String()).
			Int("entries", msg.Data.Len())
		if op.graph.opts.debugMode {
			b = b.Str("records", fmt.Sprint(msg.Data.Entries()))
		}
		b.Log("data")
		if err := op.out.SendData(msg.Version, msg.Data); err != nil {
			panicWith(err)
		}
	}
}

// Debug forwards every message of s unchanged, logging a structured record
// (tagged with label) for each one via the owning Graph's logger. An
// optional indent level prefixes the label, for visually nesting taps
// placed inside iteration bodies. With WithDebugMode enabled the full
// record entries are logged, not just the entry count.
func Debug[T comparable](s Stream[T], label string, indent ...int) Stream[T] {
	if len(indent) > 0 && indent[0] > 0 {
		label = strings.Repeat("  ", indent[0]) + label
	}
	out := newEdge[T](s.graph)
	op := &debugOperator[T]{in: s.NewReader(), out: out, label: label, graph: s.graph}
	op.name = s.graph.register("debug", op)
	return Stream[T]{graph: s.graph, edge: out}
}
