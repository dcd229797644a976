package dataflow

import "cmp"

// Min replaces each key's values with the smallest value currently
// present, emitting corrective deltas as that minimum changes. It panics
// with *NegativeMultiplicityError if a value's consolidated multiplicity
// goes negative: "the least of a negative number of copies" has no
// meaning.
func Min[K comparable, V cmp.Ordered](s Stream[KV[K, V]]) Stream[KV[K, V]] {
	return Reduce(s, extremumReducer[V]("Min", func(a, b V) bool { return a < b }))
}

// Max replaces each key's values with the largest value currently present.
// Negative consolidated multiplicities panic as for Min.
func Max[K comparable, V cmp.Ordered](s Stream[KV[K, V]]) Stream[KV[K, V]] {
	return Reduce(s, extremumReducer[V]("Max", func(a, b V) bool { return a > b }))
}

func extremumReducer[V comparable](op string, better func(a, b V) bool) func([]Pair[V]) []Pair[V] {
	return func(vals []Pair[V]) []Pair[V] {
		var best V
		found := false
		for _, p := range vals {
			if p.Mult < 0 {
				panicWith(&NegativeMultiplicityError{Op: op})
			}
			if p.Mult == 0 {
				continue
			}
			if !found || better(p.Value, best) {
				best = p.Value
				found = true
			}
		}
		if !found {
			return nil
		}
		return []Pair[V]{{Value: best, Mult: 1}}
	}
}
