package dataflow

// Distinct replaces each key's values with the set of values whose current
// multiplicity is strictly positive, each given multiplicity 1.
//
// vals arrives already consolidated per value, so a value can only have a
// non-positive multiplicity here if the upstream collection genuinely
// carries a non-positive count for it (e.g. after a Negate, or a Join that
// cancelled out a positive contribution without fully removing the value).
// Distinct treats such values as absent rather than failing: this package
// never represents "negative presence" in a Distinct result, so the choice
// is to drop them silently rather than propagate a NegativeMultiplicityError
// through what is, from the caller's perspective, a derived read of set
// membership.
func Distinct[K, V comparable](s Stream[KV[K, V]]) Stream[KV[K, V]] {
	return Reduce(s, func(vals []Pair[V]) []Pair[V] {
		var out []Pair[V]
		for _, p := range vals {
			if p.Mult > 0 {
				out = append(out, Pair[V]{Value: p.Value, Mult: 1})
			}
		}
		return out
	})
}
