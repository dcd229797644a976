package dataflow

import "sort"

// sortVersions returns vs sorted by lexicographic coordinate order. For any
// fixed dimension, lexicographic order is a valid linear extension of the
// product partial order (if a <= b coordinate-wise and a != b, then a is
// also lexicographically less than b), so operators that must emit
// per-version output in a fixed, test-stable order use this rather than an
// arbitrary map-iteration order.
func sortVersions(vs []Version) []Version {
	out := make([]Version, len(vs))
	copy(out, vs)
	sort.Slice(out, func(i, j int) bool { return versionLess(out[i], out[j]) })
	return out
}

func versionLess(a, b Version) bool {
	da, db := a.Dim(), b.Dim()
	n := da
	if db < n {
		n = db
	}
	for i := 0; i < n; i++ {
		ai, bi := a.At(i), b.At(i)
		if ai != bi {
			return ai < bi
		}
	}
	return da < db
}
