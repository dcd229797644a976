package dataflow

import (
	"sort"
	"strings"
)

// Antichain is a set of pairwise-incomparable Versions of equal dimension,
// used as a frontier: a lower bound on the versions an operator may still
// emit. Antichains are immutable values; NewAntichain and Antichain.Insert
// both return new values rather than mutating in place.
type Antichain struct {
	elems []Version
}

// NewAntichain builds an Antichain from versions, applying the minimality
// rule of Insert to each one in turn.
func NewAntichain(versions ...Version) Antichain {
	var a Antichain
	for _, v := range versions {
		a = a.Insert(v)
	}
	return a
}

// Insert returns the Antichain with v inserted under the minimality rule:
// inserting a version that is >= some existing element is a no-op;
// inserting one that is < some existing elements removes those elements.
func (a Antichain) Insert(v Version) Antichain {
	for _, e := range a.elems {
		if e.dim != v.dim {
			panicWith(&DimensionMismatchError{Op: "Antichain.Insert", Got: v.dim, Expected: e.dim})
		}
		if e.LessEqual(v) {
			return a // v is dominated by an existing, incomparable-or-smaller element
		}
	}
	out := make([]Version, 0, len(a.elems)+1)
	for _, e := range a.elems {
		if !v.LessEqual(e) {
			out = append(out, e)
		}
	}
	out = append(out, v)
	return Antichain{elems: out}
}

// Elements returns the Antichain's elements in an unspecified order.
func (a Antichain) Elements() []Version {
	out := make([]Version, len(a.elems))
	copy(out, a.elems)
	return out
}

// IsEmpty reports whether the Antichain has no elements — the maximal
// frontier, meaning no further data will ever be sent.
func (a Antichain) IsEmpty() bool {
	return len(a.elems) == 0
}

// LessEqualVersion reports whether some element of a is <= v.
func (a Antichain) LessEqualVersion(v Version) bool {
	for _, e := range a.elems {
		if e.LessEqual(v) {
			return true
		}
	}
	return false
}

// LessEqual reports whether every element of b is >= some element of a,
// i.e. a's frontier is behind or equal to b's.
func (a Antichain) LessEqual(b Antichain) bool {
	for _, be := range b.elems {
		if !a.LessEqualVersion(be) {
			return false
		}
	}
	return true
}

// Less reports a.LessEqual(b) && !a.Equal(b).
func (a Antichain) Less(b Antichain) bool {
	return a.LessEqual(b) && !a.Equal(b)
}

// Equal reports whether a and b contain the same elements (order-independent).
func (a Antichain) Equal(b Antichain) bool {
	if len(a.elems) != len(b.elems) {
		return false
	}
	return a.LessEqual(b) && b.LessEqual(a)
}

// Meet returns the antichain of the union of a and b's elements, minimized
// — the greatest lower bound of the two frontiers.
func (a Antichain) Meet(b Antichain) Antichain {
	out := a
	for _, e := range b.elems {
		out = out.Insert(e)
	}
	return out
}

// Extend maps Version.Extend over every element.
func (a Antichain) Extend() Antichain {
	var out Antichain
	for _, e := range a.elems {
		out = out.Insert(e.Extend())
	}
	return out
}

// Truncate maps Version.Truncate over every element.
func (a Antichain) Truncate() Antichain {
	var out Antichain
	for _, e := range a.elems {
		out = out.Insert(e.Truncate())
	}
	return out
}

// ApplyStep maps Version.ApplyStep over every element.
func (a Antichain) ApplyStep(k int64) Antichain {
	var out Antichain
	for _, e := range a.elems {
		out = out.Insert(e.ApplyStep(k))
	}
	return out
}

// sorted returns a copy of a.elems in a stable, deterministic order — used
// only for String and for imposing a linear extension on result ordering.
func (a Antichain) sorted() []Version {
	out := append([]Version(nil), a.elems...)
	sort.Slice(out, func(i, j int) bool {
		ci, cj := out[i].unpack(), out[j].unpack()
		for k := range ci {
			if ci[k] != cj[k] {
				return ci[k] < cj[k]
			}
		}
		return false
	})
	return out
}

// String renders the antichain as e.g. "{[1,0],[0,2]}".
func (a Antichain) String() string {
	parts := make([]string, 0, len(a.elems))
	for _, e := range a.sorted() {
		parts = append(parts, e.String())
	}
	return "{" + strings.Join(parts, ",") + "}"
}
