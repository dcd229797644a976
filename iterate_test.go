package dataflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestIterateGeometricSeriesScenario is scenario 6: repeatedly doubling a
// seed value and keeping everything <= 50 reaches the fixed point {1, 2, 4,
// 8, 16, 32} via Iterate, with one delta batch per round.
func TestIterateGeometricSeriesScenario(t *testing.T) {
	g := newTestGraph(t)
	in, writer := NewInput[int](g)

	result := Iterate(in, func(s Stream[int]) Stream[int] {
		doubled := MapStream(s, func(x int) int { return x * 2 })
		combined := Concat(doubled, s)
		bounded := Filter(combined, func(x int) bool { return x <= 50 })
		keyed := MapStream(bounded, func(x int) KV[int, struct{}] { return KV[int, struct{}]{Key: x} })
		deduped := Distinct(keyed)
		values := MapStream(deduped, func(kv KV[int, struct{}]) int { return kv.Key })
		return Consolidate(values)
	})

	var deltas []MultiSet[int]
	Output(result, func(m Message[int]) {
		if !m.IsFrontier && m.Data.Len() > 0 {
			deltas = append(deltas, m.Data.Consolidate())
		}
	})

	require.NoError(t, writer.SendData(NewVersion(0), NewMultiSet(Pair[int]{Value: 1, Mult: 1})))
	require.NoError(t, writer.SendFrontier(NewAntichain(NewVersion(1))))

	target := NewAntichain(NewVersion(1))
	steps := 0
	for ProbeFrontierLessThan(result, target) && steps < 10_000 {
		g.Step()
		steps++
	}
	require.Less(t, steps, 10_000, "iteration did not converge")

	require.Len(t, deltas, 5)
	assert.True(t, deltas[0].Equal(NewMultiSet(Pair[int]{Value: 1, Mult: 1}, Pair[int]{Value: 2, Mult: 1})))
	assert.True(t, deltas[1].Equal(NewMultiSet(Pair[int]{Value: 4, Mult: 1})))
	assert.True(t, deltas[2].Equal(NewMultiSet(Pair[int]{Value: 8, Mult: 1})))
	assert.True(t, deltas[3].Equal(NewMultiSet(Pair[int]{Value: 16, Mult: 1})))
	assert.True(t, deltas[4].Equal(NewMultiSet(Pair[int]{Value: 32, Mult: 1})))

	var cumulative MultiSet[int]
	for _, d := range deltas {
		cumulative = cumulative.Concat(d)
	}
	cumulative = cumulative.Consolidate()
	assert.True(t, cumulative.Equal(NewMultiSet(
		Pair[int]{Value: 1, Mult: 1},
		Pair[int]{Value: 2, Mult: 1},
		Pair[int]{Value: 4, Mult: 1},
		Pair[int]{Value: 8, Mult: 1},
		Pair[int]{Value: 16, Mult: 1},
		Pair[int]{Value: 32, Mult: 1},
	)))
}

// TestIngressEgressRoundTrip checks the round-trip property: data entering
// a nested scope via ingress and leaving via egress, with no record
// transformation in between, reproduces the outer-scope input unchanged at
// outer version 0. The body consolidates so the loop quiesces: the
// differentiated copies cancel per inner version and stop circulating.
func TestIngressEgressRoundTrip(t *testing.T) {
	g := newTestGraph(t)
	in, writer := NewInput[int](g)

	result := Iterate(in, func(s Stream[int]) Stream[int] { return Consolidate(s) })

	var data []Message[int]
	Output(result, func(m Message[int]) {
		if !m.IsFrontier {
			data = append(data, m)
		}
	})

	orig := NewMultiSet(Pair[int]{Value: 1, Mult: 1}, Pair[int]{Value: 2, Mult: 1})
	require.NoError(t, writer.SendData(NewVersion(0), orig))
	require.NoError(t, writer.SendFrontier(NewAntichain(NewVersion(1))))

	target := NewAntichain(NewVersion(1))
	steps := 0
	for ProbeFrontierLessThan(result, target) && steps < 1_000 {
		g.Step()
		steps++
	}
	require.Less(t, steps, 1_000)

	var accumulated MultiSet[int]
	for _, m := range data {
		if m.Version == NewVersion(0) {
			accumulated = accumulated.Concat(m.Data)
		}
	}
	assert.True(t, accumulated.Consolidate().Equal(orig))
}
