package dataflow

// joinOperator implements the incremental binary equi-join: new input
// batches are accumulated into delta arrangements dA/dB each round,
// joined against the *other* side's full arrangement in the order
// dA⋈B, then A⋈dB (updating A with dA in between, so dA's own
// contribution is not double-counted against dB), and both arrangements
// are compacted to the output frontier whenever it advances.
type joinOperator[K, A, B comparable] struct {
	name string
	inA  *Reader[KV[K, A]]
	inB  *Reader[KV[K, B]]
	out  *Edge[KV[K, PairValue[A, B]]]

	arrA *Index[K, A]
	arrB *Index[K, B]

	frontierA Antichain
	frontierB Antichain
	outFrontier Antichain
}

func (op *joinOperator[K, A, B]) Run() {
	dA := NewIndex[K, A]()
	dB := NewIndex[K, B]()

	for _, msg := range op.inA.Drain() {
		if msg.IsFrontier {
			if !op.frontierA.LessEqual(msg.Frontier) {
				panicWith(&NonMonotonicFrontierError{Edge: op.name + ".a", Previous: op.frontierA, Next: msg.Frontier})
			}
			op.frontierA = msg.Frontier
			continue
		}
		for _, e := range msg.Data.Entries() {
			dA.AddValue(e.Value.Key, msg.Version, e.Value.Value, e.Mult)
		}
	}
	for _, msg := range op.inB.Drain() {
		if msg.IsFrontier {
			if !op.frontierB.LessEqual(msg.Frontier) {
				panicWith(&NonMonotonicFrontierError{Edge: op.name + ".b", Previous: op.frontierB, Next: msg.Frontier})
			}
			op.frontierB = msg.Frontier
			continue
		}
		for _, e := range msg.Data.Entries() {
			dB.AddValue(e.Value.Key, msg.Version, e.Value.Value, e.Mult)
		}
	}

	results1 := JoinIndexes(dA, op.arrB)
	op.arrA.Append(dA)
	results2 := JoinIndexes(op.arrA, dB)
	op.arrB.Append(dB)

	merged := mergeJoinResults(results1, results2)
	for _, v := range sortVersions(pendingVersions(merged)) {
		var out MultiSet[KV[K, PairValue[A, B]]]
		for key, ms := range merged[v] {
			for _, e := range ms.Entries() {
				out = out.Concat(NewMultiSet(Pair[KV[K, PairValue[A, B]]]{
					Value: KV[K, PairValue[A, B]]{Key: key, Value: e.Value},
					Mult:  e.Mult,
				}))
			}
		}
		if err := op.out.SendData(v, out); err != nil {
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
		if err := op.arrA.Compact(candidate); err != nil {
			panicWith(err)
		}
		if err := op.arrB.Compact(candidate); err != nil {
			panicWith(err)
		}
	}
}

func mergeJoinResults[K, A, B comparable](a, b map[Version]map[K]MultiSet[PairValue[A, B]]) map[Version]map[K]MultiSet[PairValue[A, B]] {
	out := make(map[Version]map[K]MultiSet[PairValue[A, B]])
	merge := func(src map[Version]map[K]MultiSet[PairValue[A, B]]) {
		for v, byKey := range src {
			dst, ok := out[v]
			if !ok {
				dst = make(map[K]MultiSet[PairValue[A, B]])
				out[v] = dst
			}
			for k, ms := range byKey {
				dst[k] = dst[k].Concat(ms)
			}
		}
	}
	merge(a)
	merge(b)
	return out
}

// Join computes the incremental equi-join of a and b on their KV keys,
// emitting KV[K, PairValue[A, B]] records. a and b must belong to the same
// Graph.
func Join[K, A, B comparable](a Stream[KV[K, A]], b Stream[KV[K, B]]) Stream[KV[K, PairValue[A, B]]] {
	requireSameGraph("Join", a.graph.id, b.graph.id)
	out := newEdge[KV[K, PairValue[A, B]]](a.graph)
	op := &joinOperator[K, A, B]{
		inA:         a.NewReader(),
		inB:         b.NewReader(),
		out:         out,
		arrA:        NewIndex[K, A](),
		arrB:        NewIndex[K, B](),
		frontierA:   a.graph.currentFrontier(),
		frontierB:   a.graph.currentFrontier(),
		outFrontier: a.graph.currentFrontier(),
	}
	op.name = a.graph.register("join", op)
	return Stream[KV[K, PairValue[A, B]]]{graph: a.graph, edge: out}
}
