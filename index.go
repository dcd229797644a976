package dataflow

// Index is the indexed arrangement: a per-key, per-version store of
// multiplicity deltas. Logically K -> { Version -> list of (V, multiplicity) }.
//
// Invariants:
//   - every stored (key, version) has at least one (value, mult) entry
//     once Compact has run over it (AddValue does not coalesce at insert
//     time, so a freshly-inserted (key, version) may later net to zero).
//   - after Compact(frontier), versions the frontier had already passed
//     (no frontier element <= version: closed, historical) have been
//     rewritten via AdvanceBy; versions already at or above some frontier
//     element are left untouched (AdvanceBy would be a no-op there). With a
//     single-element frontier every stored version then satisfies
//     frontier.LessEqualVersion(version); with a multi-element frontier an
//     advanced version can still lie below every element (see AdvanceBy).
//
// Index is not safe for concurrent use; it is owned exclusively by the
// operator that holds it.
type Index[K comparable, V comparable] struct {
	data          map[K]map[Version][]entry[V]
	compaction    Antichain
	hasCompaction bool
}

// NewIndex constructs an empty Index.
func NewIndex[K comparable, V comparable]() *Index[K, V] {
	return &Index[K, V]{data: make(map[K]map[Version][]entry[V])}
}

// AddValue appends (value, mult) to the list recorded for (key, version).
// It does not coalesce with existing entries.
func (ix *Index[K, V]) AddValue(key K, version Version, value V, mult int64) {
	byVersion, ok := ix.data[key]
	if !ok {
		byVersion = make(map[Version][]entry[V])
		ix.data[key] = byVersion
	}
	byVersion[version] = append(byVersion[version], entry[V]{Value: value, Mult: mult})
}

// Versions returns the versions currently recorded for key, in an
// unspecified order.
func (ix *Index[K, V]) Versions(key K) []Version {
	byVersion, ok := ix.data[key]
	if !ok {
		return nil
	}
	out := make([]Version, 0, len(byVersion))
	for v := range byVersion {
		out = append(out, v)
	}
	return out
}

// HasKey reports whether the index has any entry at all for key.
func (ix *Index[K, V]) HasKey(key K) bool {
	_, ok := ix.data[key]
	return ok
}

// Keys returns every key with at least one stored version, in an
// unspecified order.
func (ix *Index[K, V]) Keys() []K {
	out := make([]K, 0, len(ix.data))
	for k := range ix.data {
		out = append(out, k)
	}
	return out
}

// ReconstructAt concatenates all (value, mult) entries for key at every
// stored version <= req, as a single unconsolidated MultiSet. It fails with
// ErrHistoryCompacted if req is dominated by the index's installed
// compaction frontier.
func (ix *Index[K, V]) ReconstructAt(key K, req Version) (MultiSet[V], error) {
	if ix.versionCompacted(req) {
		return MultiSet[V]{}, ErrHistoryCompacted
	}
	byVersion, ok := ix.data[key]
	if !ok {
		return MultiSet[V]{}, nil
	}
	var out []entry[V]
	for v, es := range byVersion {
		if v.LessEqual(req) {
			out = append(out, es...)
		}
	}
	return MultiSet[V]{entries: out}, nil
}

// versionCompacted reports whether req is dominated by the installed
// compaction frontier: req is historical (no frontier element <= req, i.e.
// the frontier has already passed req), exactly the population Compact
// rewrites via AdvanceBy, so querying it in its original, un-advanced form
// is no longer meaningful.
func (ix *Index[K, V]) versionCompacted(req Version) bool {
	if !ix.hasCompaction {
		return false
	}
	return !ix.compaction.LessEqualVersion(req)
}

// Append merges every (key, version, (value, mult)) entry of other into ix.
// Entries at the same (key, version) accumulate in the list rather than
// being summed.
func (ix *Index[K, V]) Append(other *Index[K, V]) {
	for k, byVersion := range other.data {
		dst, ok := ix.data[k]
		if !ok {
			dst = make(map[Version][]entry[V])
			ix.data[k] = dst
		}
		for v, es := range byVersion {
			dst[v] = append(dst[v], es...)
		}
	}
}

// PairValue is the value type of a Join result: the aligned pair of values
// from each side, carried alongside the join key by the caller.
type PairValue[A, B comparable] struct {
	Left  A
	Right B
}

// JoinIndexes computes, for each key present in both a and b, and for
// every pair of stored versions (va, vb) with entries (v1, m1) in a and
// (v2, m2) in b, the contribution (va.Join(vb), key, (v1, v2), m1*m2).
// Results are grouped by result version into per-version, per-key
// MultiSets of PairValue, returned as version -> key -> MultiSet.
// Empty result buckets are omitted.
func JoinIndexes[K comparable, A comparable, B comparable](a *Index[K, A], b *Index[K, B]) map[Version]map[K]MultiSet[PairValue[A, B]] {
	out := make(map[Version]map[K]MultiSet[PairValue[A, B]])
	for key, aByVersion := range a.data {
		bByVersion, ok := b.data[key]
		if !ok {
			continue
		}
		for va, aEntries := range aByVersion {
			for vb, bEntries := range bByVersion {
				rv := va.Join(vb)
				for _, ae := range aEntries {
					for _, be := range bEntries {
						mult := ae.Mult * be.Mult
						if mult == 0 {
							continue
						}
						byKey, ok := out[rv]
						if !ok {
							byKey = make(map[K]MultiSet[PairValue[A, B]])
							out[rv] = byKey
						}
						ms := byKey[key]
						ms.entries = append(ms.entries, entry[PairValue[A, B]]{
							Value: PairValue[A, B]{Left: ae.Value, Right: be.Value},
							Mult:  mult,
						})
						byKey[key] = ms
					}
				}
			}
		}
	}
	// drop any bucket that nets to nothing once consolidated, so "empty
	// result buckets are omitted" holds even when positive and negative
	// contributions cancel exactly.
	for rv, byKey := range out {
		for key, ms := range byKey {
			c := ms.Consolidate()
			if c.Len() == 0 {
				delete(byKey, key)
			} else {
				byKey[key] = c
			}
		}
		if len(byKey) == 0 {
			delete(out, rv)
		}
	}
	return out
}

// Compact partitions, for every key in keys (or every stored key if keys is
// empty), the stored versions into "still in flight" (not dominated by
// frontier) and "dominated". Each dominated version v is replaced by
// v.AdvanceBy(frontier); entries that land on the same (key, new version,
// value) are then summed, and zero sums are dropped. Compact fails with
// *InvalidCompactionFrontierError if frontier is not >= the previously
// installed compaction frontier.
func (ix *Index[K, V]) Compact(frontier Antichain, keys ...K) error {
	if ix.hasCompaction && !ix.compaction.LessEqual(frontier) {
		return &InvalidCompactionFrontierError{Previous: ix.compaction, Next: frontier}
	}
	targets := keys
	if len(targets) == 0 {
		targets = ix.Keys()
	}
	for _, key := range targets {
		byVersion, ok := ix.data[key]
		if !ok {
			continue
		}
		merged := make(map[Version]map[V]int64)
		for v, es := range byVersion {
			var nv Version
			if frontier.LessEqualVersion(v) {
				// some frontier element <= v: v is still in flight
				// (current or future relative to the frontier), so
				// AdvanceBy would be a no-op; leave it as-is.
				nv = v
			} else {
				// no frontier element <= v: v is dominated by the
				// frontier (closed, historical) — advance it forward.
				nv = v.AdvanceBy(frontier)
			}
			byValue, ok := merged[nv]
			if !ok {
				byValue = make(map[V]int64)
				merged[nv] = byValue
			}
			for _, e := range es {
				byValue[e.Value] += e.Mult
			}
		}
		newByVersion := make(map[Version][]entry[V], len(merged))
		for v, byValue := range merged {
			var es []entry[V]
			for val, mult := range byValue {
				if mult != 0 {
					es = append(es, entry[V]{Value: val, Mult: mult})
				}
			}
			if len(es) > 0 {
				newByVersion[v] = es
			}
		}
		if len(newByVersion) == 0 {
			delete(ix.data, key)
		} else {
			ix.data[key] = newByVersion
		}
	}
	ix.compaction = frontier
	ix.hasCompaction = true
	return nil
}

// CompactionFrontier returns the Index's currently installed compaction
// frontier (the zero Antichain if Compact has never been called).
func (ix *Index[K, V]) CompactionFrontier() Antichain {
	return ix.compaction
}
