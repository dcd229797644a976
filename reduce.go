package dataflow

// reduceOperator implements incremental per-key reduction: an input
// arrangement accumulates every (key, version, value, mult) seen; a
// key is "enrolled" for recomputation at a version whenever new data
// arrives there, and at every version.Join(v') for v' already recorded
// against that key (since the result at the join of two versions can
// change even without new data landing exactly there). Once a version is
// closed (no longer open with respect to the input frontier), every
// enrolled key at that version is recomputed and the delta against the
// previous output is emitted.
type reduceOperator[K, V, R comparable] struct {
	name string
	in   *Reader[KV[K, V]]
	out  *Edge[KV[K, R]]

	reducer func([]Pair[V]) []Pair[R]

	inputIndex  *Index[K, V]
	outputIndex *Index[K, R]
	todo        map[Version]map[K]struct{}

	inFrontier  Antichain
	outFrontier Antichain
}

func (op *reduceOperator[K, V, R]) enroll(version Version, key K) {
	byVersion, ok := op.todo[version]
	if !ok {
		byVersion = make(map[K]struct{})
		op.todo[version] = byVersion
	}
	byVersion[key] = struct{}{}
}

func (op *reduceOperator[K, V, R]) Run() {
	for _, msg := range op.in.Drain() {
		if msg.IsFrontier {
			if !op.inFrontier.LessEqual(msg.Frontier) {
				panicWith(&NonMonotonicFrontierError{Edge: op.name, Previous: op.inFrontier, Next: msg.Frontier})
			}
			op.inFrontier = msg.Frontier
			continue
		}
		for _, e := range msg.Data.Entries() {
			key := e.Value.Key
			existing := op.inputIndex.Versions(key)
			op.inputIndex.AddValue(key, msg.Version, e.Value.Value, e.Mult)
			op.enroll(msg.Version, key)
			for _, v := range existing {
				op.enroll(msg.Version.Join(v), key)
			}
		}
	}

	closed := make([]Version, 0)
	for v := range op.todo {
		if !op.inFrontier.LessEqualVersion(v) {
			closed = append(closed, v)
		}
	}

	for _, v := range sortVersions(closed) {
		keys := op.todo[v]
		delete(op.todo, v)
		var batch MultiSet[KV[K, R]]
		for key := range keys {
			cur, err := op.inputIndex.ReconstructAt(key, v)
			if err != nil {
				panicWith(err)
			}
			prev, err := op.outputIndex.ReconstructAt(key, v)
			if err != nil {
				panicWith(err)
			}
			next := NewMultiSet(op.reducer(cur.Consolidate().Entries())...).Consolidate()
			delta := deltaMultiSet(prev.Consolidate(), next)
			for _, d := range delta.Entries() {
				op.outputIndex.AddValue(key, v, d.Value, d.Mult)
				batch = batch.Concat(NewMultiSet(Pair[KV[K, R]]{Value: KV[K, R]{Key: key, Value: d.Value}, Mult: d.Mult}))
			}
		}
		if batch.Len() > 0 {
			if err := op.out.SendData(v, batch); err != nil {
				panicWith(err)
			}
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
		if err := op.inputIndex.Compact(op.inFrontier); err != nil {
			panicWith(err)
		}
		if err := op.outputIndex.Compact(op.inFrontier); err != nil {
			panicWith(err)
		}
	}
}

// deltaMultiSet returns next minus prev, value by value, dropping zero
// results: the minimal correction needed to move the previously-emitted
// output to next.
func deltaMultiSet[V comparable](prev, next MultiSet[V]) MultiSet[V] {
	counts := make(map[V]int64)
	for _, e := range prev.Entries() {
		counts[e.Value] -= e.Mult
	}
	for _, e := range next.Entries() {
		counts[e.Value] += e.Mult
	}
	var out []Pair[V]
	for val, mult := range counts {
		if mult != 0 {
			out = append(out, Pair[V]{Value: val, Mult: mult})
		}
	}
	return NewMultiSet(out...)
}

// Reduce groups s by key and replaces each key's values with reducer's
// output, emitting incremental corrections as new input versions close.
// reducer receives the fully consolidated value multiset for one key at
// one version and returns the (possibly empty) reduced value multiset.
func Reduce[K, V, R comparable](s Stream[KV[K, V]], reducer func([]Pair[V]) []Pair[R]) Stream[KV[K, R]] {
	out := newEdge[KV[K, R]](s.graph)
	op := &reduceOperator[K, V, R]{
		in:          s.NewReader(),
		out:         out,
		reducer:     reducer,
		inputIndex:  NewIndex[K, V](),
		outputIndex: NewIndex[K, R](),
		todo:        make(map[Version]map[K]struct{}),
		inFrontier:  s.graph.currentFrontier(),
		outFrontier: s.graph.currentFrontier(),
	}
	op.name = s.graph.register("reduce", op)
	return Stream[KV[K, R]]{graph: s.graph, edge: out}
}
