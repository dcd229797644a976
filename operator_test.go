package dataflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGraph(t *testing.T) *Graph {
	t.Helper()
	g, err := NewGraph()
	require.NoError(t, err)
	return g
}

// newTestGraph2 builds a graph with a 2-dimensional root scope, for the
// scenarios written in terms of [epoch, round] versions.
func newTestGraph2(t *testing.T) *Graph {
	t.Helper()
	g, err := NewGraph(WithRootDimension(2))
	require.NoError(t, err)
	return g
}

// TestMapFrontierScenario is scenario 1: map(x -> x+5) over
// {1,2,3} at [1,0], then frontier {[1,0]}.
func TestMapFrontierScenario(t *testing.T) {
	g := newTestGraph2(t)
	in, writer := NewInput[int](g)
	out := MapStream(in, func(x int) int { return x + 5 })

	var msgs []Message[int]
	Output(out, func(m Message[int]) { msgs = append(msgs, m) })

	v := NewVersion(1, 0)
	require.NoError(t, writer.SendData(v, NewMultiSet(
		Pair[int]{Value: 1, Mult: 1},
		Pair[int]{Value: 2, Mult: 1},
		Pair[int]{Value: 3, Mult: 1},
	)))
	require.NoError(t, writer.SendFrontier(NewAntichain(v)))
	g.Step()

	require.Len(t, msgs, 2)
	assert.False(t, msgs[0].IsFrontier)
	assert.Equal(t, v, msgs[0].Version)
	assert.True(t, msgs[0].Data.Equal(NewMultiSet(
		Pair[int]{Value: 6, Mult: 1},
		Pair[int]{Value: 7, Mult: 1},
		Pair[int]{Value: 8, Mult: 1},
	)))
	assert.True(t, msgs[1].IsFrontier)
	assert.True(t, msgs[1].Frontier.Equal(NewAntichain(v)))
}

func TestFilter(t *testing.T) {
	g := newTestGraph(t)
	in, writer := NewInput[int](g)
	out := Filter(in, func(x int) bool { return x%2 == 0 })

	var data []Message[int]
	Output(out, func(m Message[int]) {
		if !m.IsFrontier {
			data = append(data, m)
		}
	})

	require.NoError(t, writer.SendData(NewVersion(0), NewMultiSet(
		Pair[int]{Value: 1, Mult: 1},
		Pair[int]{Value: 2, Mult: 1},
		Pair[int]{Value: 3, Mult: 1},
		Pair[int]{Value: 4, Mult: 1},
	)))
	g.Step()

	require.Len(t, data, 1)
	assert.True(t, data[0].Data.Equal(NewMultiSet(Pair[int]{Value: 2, Mult: 1}, Pair[int]{Value: 4, Mult: 1})))
}

func TestNegateNegateIsIdentity(t *testing.T) {
	g := newTestGraph(t)
	in, writer := NewInput[int](g)
	out := Negate(Negate(in))

	var data []Message[int]
	Output(out, func(m Message[int]) {
		if !m.IsFrontier {
			data = append(data, m)
		}
	})

	orig := NewMultiSet(Pair[int]{Value: 1, Mult: 3}, Pair[int]{Value: -2, Mult: 1})
	require.NoError(t, writer.SendData(NewVersion(0), orig))
	g.Step()

	require.Len(t, data, 1)
	assert.True(t, data[0].Data.Equal(orig))
}

func TestConcatMeetsFrontiers(t *testing.T) {
	g := newTestGraph(t)
	a, writerA := NewInput[int](g)
	b, writerB := NewInput[int](g)
	out := Concat(a, b)

	var msgs []Message[int]
	Output(out, func(m Message[int]) { msgs = append(msgs, m) })

	require.NoError(t, writerA.SendData(NewVersion(1), NewMultiSet(Pair[int]{Value: 1, Mult: 1})))
	require.NoError(t, writerB.SendData(NewVersion(1), NewMultiSet(Pair[int]{Value: 2, Mult: 1})))
	require.NoError(t, writerA.SendFrontier(NewAntichain(NewVersion(3))))
	require.NoError(t, writerB.SendFrontier(NewAntichain(NewVersion(1))))
	g.Step()

	var frontierSeen Antichain
	var dataCount int
	for _, m := range msgs {
		if m.IsFrontier {
			frontierSeen = m.Frontier
		} else {
			dataCount++
		}
	}
	assert.Equal(t, 2, dataCount)
	// output frontier is the meet (min) of the two input frontiers.
	assert.True(t, frontierSeen.Equal(NewAntichain(NewVersion(1))))
}

func TestConcatRequiresSameGraph(t *testing.T) {
	g1 := newTestGraph(t)
	g2 := newTestGraph(t)
	a, _ := NewInput[int](g1)
	b, _ := NewInput[int](g2)
	assert.Panics(t, func() { Concat(a, b) })
}
