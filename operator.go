package dataflow

// Linear (stateless) operators: map, filter, negate, concat. Each drains
// its input(s) in declaration order, forwarding a transformed (or
// unchanged, for concat) Data message per input Data message and
// validating/recording Frontier messages; then computes the new output
// frontier as the meet of input frontiers and, if it strictly advances,
// emits it.

type unaryLinearOperator[T, U comparable] struct {
	name        string
	in          *Reader[T]
	out         *Edge[U]
	transform   func(MultiSet[T]) MultiSet[U]
	inFrontier  Antichain
	outFrontier Antichain
}

func (op *unaryLinearOperator[T, U]) Run() {
	for _, msg := range op.in.Drain() {
		if msg.IsFrontier {
			if !op.inFrontier.LessEqual(msg.Frontier) {
				panicWith(&NonMonotonicFrontierError{Edge: op.name, Previous: op.inFrontier, Next: msg.Frontier})
			}
			op.inFrontier = msg.Frontier
			continue
		}
		if err := op.out.SendData(msg.Version, op.transform(msg.Data)); err != nil {
			panicWith(err)
		}
	}
	op.advanceOutput(op.inFrontier)
}

func (op *unaryLinearOperator[T, U]) advanceOutput(candidate Antichain) {
	if candidate.Less(op.outFrontier) {
		panicWith(&InvalidFrontierStateError{Operator: op.name, Detail: "output frontier would regress"})
	}
	if !candidate.Equal(op.outFrontier) {
		if err := op.out.SendFrontier(candidate); err != nil {
			panicWith(err)
		}
		op.outFrontier = candidate
	}
}

// MapStream applies f to every record of s, returning a new Stream of U.
func MapStream[T, U comparable](s Stream[T], f func(T) U) Stream[U] {
	out := newEdge[U](s.graph)
	op := &unaryLinearOperator[T, U]{
		in:          s.NewReader(),
		out:         out,
		transform:   func(m MultiSet[T]) MultiSet[U] { return Map(m, f) },
		inFrontier:  s.graph.currentFrontier(),
		outFrontier: s.graph.currentFrontier(),
	}
	op.name = s.graph.register("map", op)
	return Stream[U]{graph: s.graph, edge: out}
}

// Filter keeps only records of s for which p holds.
func Filter[T comparable](s Stream[T], p func(T) bool) Stream[T] {
	out := newEdge[T](s.graph)
	op := &unaryLinearOperator[T, T]{
		in:          s.NewReader(),
		out:         out,
		transform:   func(m MultiSet[T]) MultiSet[T] { return m.Filter(p) },
		inFrontier:  s.graph.currentFrontier(),
		outFrontier: s.graph.currentFrontier(),
	}
	op.name = s.graph.register("filter", op)
	return Stream[T]{graph: s.graph, edge: out}
}

// Negate flips the sign of every multiplicity in s.
func Negate[T comparable](s Stream[T]) Stream[T] {
	out := newEdge[T](s.graph)
	op := &unaryLinearOperator[T, T]{
		in:          s.NewReader(),
		out:         out,
		transform:   func(m MultiSet[T]) MultiSet[T] { return m.Negate() },
		inFrontier:  s.graph.currentFrontier(),
		outFrontier: s.graph.currentFrontier(),
	}
	op.name = s.graph.register("negate", op)
	return Stream[T]{graph: s.graph, edge: out}
}

type concatOperator[T comparable] struct {
	name        string
	a, b        *Reader[T]
	out         *Edge[T]
	frontierA   Antichain
	frontierB   Antichain
	outFrontier Antichain
}

func (op *concatOperator[T]) Run() {
	for _, msg := range op.a.Drain() {
		if msg.IsFrontier {
			if !op.frontierA.LessEqual(msg.Frontier) {
				panicWith(&NonMonotonicFrontierError{Edge: op.name + ".a", Previous: op.frontierA, Next: msg.Frontier})
			}
			op.frontierA = msg.Frontier
			continue
		}
		if err := op.out.SendData(msg.Version, msg.Data); err != nil {
			panicWith(err)
		}
	}
	for _, msg := range op.b.Drain() {
		if msg.IsFrontier {
			if !op.frontierB.LessEqual(msg.Frontier) {
				panicWith(&NonMonotonicFrontierError{Edge: op.name + ".b", Previous: op.frontierB, Next: msg.Frontier})
			}
			op.frontierB = msg.Frontier
			continue
		}
		if err := op.out.SendData(msg.Version, msg.Data); err != nil {
			panicWith(err)
		}
	}
	candidate := op.frontierA.Meet(op.frontierB)
	if candidate.Less(op.outFrontier) {
		panicWith(&InvalidFrontierStateError{Operator: op.name, Detail: "output frontier would regress"})
	}
	if !candidate.Equal(op.outFrontier) {
		if err := op.out.SendFrontier(candidate); err != nil {
			panicWith(err)
		}
		op.outFrontier = candidate
	}
}

// Concat forwards every Data message from both a and b unchanged, and
// advances its output frontier to the meet of both input frontiers. a and
// b must belong to the same Graph.
func Concat[T comparable](a, b Stream[T]) Stream[T] {
	requireSameGraph("Concat", a.graph.id, b.graph.id)
	out := newEdge[T](a.graph)
	op := &concatOperator[T]{
		a:           a.NewReader(),
		b:           b.NewReader(),
		out:         out,
		frontierA:   a.graph.currentFrontier(),
		frontierB:   a.graph.currentFrontier(),
		outFrontier: a.graph.currentFrontier(),
	}
	op.name = a.graph.register("concat", op)
	return Stream[T]{graph: a.graph, edge: out}
}
