package dataflow

// Count replaces each key's values with their total multiplicity. The
// formula is unconditional: a key whose values currently sum to zero
// reports an explicit (0, 1) entry rather than vanishing from the output.
func Count[K, V comparable](s Stream[KV[K, V]]) Stream[KV[K, int64]] {
	return Reduce(s, func(vals []Pair[V]) []Pair[int64] {
		var sum int64
		for _, p := range vals {
			sum += p.Mult
		}
		return []Pair[int64]{{Value: sum, Mult: 1}}
	})
}
