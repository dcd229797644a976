package dataflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConsolidateScenario is scenario 2: three batches at the same version
// collapse into one consolidated Data message once the frontier closes it.
func TestConsolidateScenario(t *testing.T) {
	g := newTestGraph2(t)
	in, writer := NewInput[int](g)
	out := Consolidate(in)

	var data []Message[int]
	Output(out, func(m Message[int]) {
		if !m.IsFrontier {
			data = append(data, m)
		}
	})

	v := NewVersion(1, 0)
	require.NoError(t, writer.SendData(v, NewMultiSet(Pair[int]{Value: 1, Mult: 1}, Pair[int]{Value: 2, Mult: 1})))
	require.NoError(t, writer.SendData(v, NewMultiSet(Pair[int]{Value: 3, Mult: 1}, Pair[int]{Value: 4, Mult: 1})))
	require.NoError(t, writer.SendData(v, NewMultiSet(Pair[int]{Value: 3, Mult: 2}, Pair[int]{Value: 2, Mult: -1})))
	require.NoError(t, writer.SendFrontier(NewAntichain(NewVersion(1, 1))))
	g.Step()

	require.Len(t, data, 1)
	assert.Equal(t, v, data[0].Version)
	assert.True(t, data[0].Data.Equal(NewMultiSet(
		Pair[int]{Value: 1, Mult: 1},
		Pair[int]{Value: 3, Mult: 3},
		Pair[int]{Value: 4, Mult: 1},
	)))
}

func TestConsolidateWithholdsOpenVersions(t *testing.T) {
	g := newTestGraph(t)
	in, writer := NewInput[int](g)
	out := Consolidate(in)

	var data []Message[int]
	Output(out, func(m Message[int]) {
		if !m.IsFrontier {
			data = append(data, m)
		}
	})

	v := NewVersion(5)
	require.NoError(t, writer.SendData(v, NewMultiSet(Pair[int]{Value: 1, Mult: 1})))
	require.NoError(t, writer.SendFrontier(NewAntichain(NewVersion(5))))
	g.Step()
	assert.Empty(t, data, "version 5 is not yet dominated by its own frontier element")

	require.NoError(t, writer.SendFrontier(NewAntichain(NewVersion(6))))
	g.Step()
	require.Len(t, data, 1)
}

func TestConsolidateConsolidateIsIdempotent(t *testing.T) {
	g := newTestGraph(t)
	in, writer := NewInput[int](g)
	out := Consolidate(Consolidate(in))

	var data []Message[int]
	Output(out, func(m Message[int]) {
		if !m.IsFrontier {
			data = append(data, m)
		}
	})

	v := NewVersion(0)
	require.NoError(t, writer.SendData(v, NewMultiSet(Pair[int]{Value: 1, Mult: 1}, Pair[int]{Value: 1, Mult: 1})))
	require.NoError(t, writer.SendFrontier(NewAntichain(NewVersion(1))))
	g.Step()
	g.Step()

	require.Len(t, data, 1)
	assert.True(t, data[0].Data.Equal(NewMultiSet(Pair[int]{Value: 1, Mult: 2})))
}

func TestDebugForwardsUnchanged(t *testing.T) {
	g := newTestGraph(t)
	in, writer := NewInput[int](g)
	tapped := Debug(in, "test-tap")

	var data []Message[int]
	Output(tapped, func(m Message[int]) {
		if !m.IsFrontier {
			data = append(data, m)
		}
	})

	orig := NewMultiSet(Pair[int]{Value: 1, Mult: 1})
	require.NoError(t, writer.SendData(NewVersion(0), orig))
	g.Step()

	require.Len(t, data, 1)
	assert.True(t, data[0].Data.Equal(orig))
}
