package dataflow

// ingressOperator enters a nested iteration scope: each input record at
// version v is emitted twice in the extended (dim+1) scope, at v.Extend()
// and at v.Extend().ApplyStep(1) with its multiplicity negated, so that a
// single outer update becomes exactly one round's contribution inside the
// loop rather than persisting across every iteration.
type ingressOperator[T comparable] struct {
	name        string
	in          *Reader[T]
	out         *Edge[T]
	inFrontier  Antichain
	outFrontier Antichain
}

func (op *ingressOperator[T]) Run() {
	for _, msg := range op.in.Drain() {
		if msg.IsFrontier {
			if !op.inFrontier.LessEqual(msg.Frontier) {
				panicWith(&NonMonotonicFrontierError{Edge: op.name, Previous: op.inFrontier, Next: msg.Frontier})
			}
			op.inFrontier = msg.Frontier
			continue
		}
		inner := msg.Version.Extend()
		if err := op.out.SendData(inner, msg.Data); err != nil {
			panicWith(err)
		}
		if err := op.out.SendData(inner.ApplyStep(1), msg.Data.Negate()); err != nil {
			panicWith(err)
		}
	}
	candidate := op.inFrontier.Extend()
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

// egressOperator leaves a nested iteration scope: every record is forwarded
// with its version truncated back to the outer dimension.
type egressOperator[T comparable] struct {
	name        string
	in          *Reader[T]
	out         *Edge[T]
	inFrontier  Antichain
	outFrontier Antichain
}

func (op *egressOperator[T]) Run() {
	for _, msg := range op.in.Drain() {
		if msg.IsFrontier {
			if !op.inFrontier.LessEqual(msg.Frontier) {
				panicWith(&NonMonotonicFrontierError{Edge: op.name, Previous: op.inFrontier, Next: msg.Frontier})
			}
			op.inFrontier = msg.Frontier
			continue
		}
		if err := op.out.SendData(msg.Version.Truncate(), msg.Data); err != nil {
			panicWith(err)
		}
	}
	candidate := op.inFrontier.Truncate()
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

// feedbackOperator closes the loop body back onto itself: every Data
// message is advanced one step on the loop coordinate and written back to
// the loop's input edge. The harder half is frontier tracking: an outer
// version's iteration can only be declared complete once the loop has both
// stopped producing new data for it *and* more than a debounce number of
// distinct candidate frontier elements have been observed with no data in
// flight (default 3, see WithIterationEmptyDebounce).
type feedbackOperator[T comparable] struct {
	name     string
	in       *Reader[T]
	out      *Edge[T]
	debounce int

	inFrontier  Antichain
	outFrontier Antichain

	// inFlight[outer] is the set of inner (already-stepped) versions at
	// which data has been sent for that outer version, not yet retired.
	inFlight map[Version]map[Version]struct{}
	// empty[outer] is the set of distinct candidate inner versions observed
	// with no in-flight data backing them, at the time they were proposed.
	empty map[Version]map[Version]struct{}
}

func (op *feedbackOperator[T]) Run() {
	for _, msg := range op.in.Drain() {
		if msg.IsFrontier {
			if !op.inFrontier.LessEqual(msg.Frontier) {
				panicWith(&NonMonotonicFrontierError{Edge: op.name, Previous: op.inFrontier, Next: msg.Frontier})
			}
			op.inFrontier = msg.Frontier
			continue
		}
		stepped := msg.Version.ApplyStep(1)
		if err := op.out.SendData(stepped, msg.Data); err != nil {
			panicWith(err)
		}
		outer := stepped.Truncate()
		set, ok := op.inFlight[outer]
		if !ok {
			set = make(map[Version]struct{})
			op.inFlight[outer] = set
		}
		set[stepped] = struct{}{}
	}

	candidate := op.inFrontier.ApplyStep(1)
	var accepted []Version
	for _, e := range candidate.Elements() {
		outer := e.Truncate()
		if set, ok := op.inFlight[outer]; ok && len(set) > 0 {
			for v := range set {
				if v.Less(e) {
					delete(set, v)
				}
			}
			accepted = append(accepted, e)
			continue
		}
		eset, ok := op.empty[outer]
		if !ok {
			eset = make(map[Version]struct{})
			op.empty[outer] = eset
		}
		eset[e] = struct{}{}
		if len(eset) <= op.debounce {
			accepted = append(accepted, e)
			continue
		}
		// This outer version's iteration is done: stop tracking it, and
		// re-admit its element joined with every other still-active outer
		// version, so progress elsewhere in the loop is not blocked.
		delete(op.inFlight, outer)
		delete(op.empty, outer)
		for other := range op.activeOuters() {
			accepted = append(accepted, e.Join(other.Extend()))
		}
	}

	newFrontier := NewAntichain(accepted...)
	if newFrontier.Less(op.outFrontier) {
		panicWith(&InvalidFrontierStateError{Operator: op.name, Detail: "output frontier would regress"})
	}
	if !newFrontier.Equal(op.outFrontier) {
		if err := op.out.SendFrontier(newFrontier); err != nil {
			panicWith(err)
		}
		op.outFrontier = newFrontier
	}
}

func (op *feedbackOperator[T]) activeOuters() map[Version]struct{} {
	out := make(map[Version]struct{})
	for outer := range op.inFlight {
		out[outer] = struct{}{}
	}
	for outer := range op.empty {
		out[outer] = struct{}{}
	}
	return out
}

// Iterate runs body once to build a recursive sub-pipeline: seed is
// differentiated into the nested scope (ingress), concatenated with the
// loop's own feedback, passed through body, and the result is both fed
// back (stepped by one) and egressed back to the outer scope as the
// returned Stream.
//
// The nested scope's frontier is pushed for the duration of the body call
// and popped on every exit, including a panicking body, so everything body
// builds starts from the inner scope's minimal frontier.
func Iterate[T comparable](seed Stream[T], body func(Stream[T]) Stream[T]) Stream[T] {
	g := seed.graph
	outer := g.currentFrontier()

	g.startScope()
	defer g.endScope()
	inner := g.currentFrontier()

	ingressEdge := NewEdge[T](g.id, inner)
	ingressOp := &ingressOperator[T]{
		in:          seed.NewReader(),
		out:         ingressEdge,
		inFrontier:  outer,
		outFrontier: inner,
	}
	ingressOp.name = g.register("ingress", ingressOp)

	loopEdge := NewEdge[T](g.id, inner)

	concatEdge := NewEdge[T](g.id, inner)
	concatOp := &concatOperator[T]{
		a:           Stream[T]{graph: g, edge: ingressEdge}.NewReader(),
		b:           Stream[T]{graph: g, edge: loopEdge}.NewReader(),
		out:         concatEdge,
		frontierA:   inner,
		frontierB:   inner,
		outFrontier: inner,
	}
	concatOp.name = g.register("concat", concatOp)

	loopInput := Stream[T]{graph: g, edge: concatEdge}
	bodyOutput := body(loopInput)
	requireSameGraph("Iterate", g.id, bodyOutput.graph.id)

	feedbackOp := &feedbackOperator[T]{
		in:          bodyOutput.NewReader(),
		out:         loopEdge,
		debounce:    g.opts.iterationEmptyDebounce,
		inFrontier:  inner,
		outFrontier: inner,
		inFlight:    make(map[Version]map[Version]struct{}),
		empty:       make(map[Version]map[Version]struct{}),
	}
	feedbackOp.name = g.register("feedback", feedbackOp)

	egressEdge := NewEdge[T](g.id, outer)
	egressOp := &egressOperator[T]{
		in:          bodyOutput.NewReader(),
		out:         egressEdge,
		inFrontier:  inner,
		outFrontier: outer,
	}
	egressOp.name = g.register("egress", egressOp)

	return Stream[T]{graph: g, edge: egressEdge}
}
