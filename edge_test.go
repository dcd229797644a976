package dataflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEdge(t *testing.T) *Edge[int] {
	t.Helper()
	return NewEdge[int](1, NewAntichain(NewVersion(0)))
}

func TestEdgeSendDataMultipleReaders(t *testing.T) {
	e := newTestEdge(t)
	r1 := e.NewReader()
	r2 := e.NewReader()

	require.NoError(t, e.SendData(NewVersion(0), NewMultiSet(Pair[int]{Value: 1, Mult: 1})))

	got1 := r1.Drain()
	got2 := r2.Drain()
	require.Len(t, got1, 1)
	require.Len(t, got2, 1)
	assert.Equal(t, got1[0].Version, got2[0].Version)
	assert.Nil(t, r1.Drain())
}

func TestEdgeSendDataBehindFrontierRejected(t *testing.T) {
	e := newTestEdge(t)
	require.NoError(t, e.SendFrontier(NewAntichain(NewVersion(5))))
	err := e.SendData(NewVersion(1), NewMultiSet[int]())
	assert.Error(t, err)
}

func TestEdgeSendFrontierNonMonotonicRejected(t *testing.T) {
	e := newTestEdge(t)
	require.NoError(t, e.SendFrontier(NewAntichain(NewVersion(5))))
	err := e.SendFrontier(NewAntichain(NewVersion(1)))
	assert.Error(t, err)
	var target *NonMonotonicFrontierError
	assert.ErrorAs(t, err, &target)
}

func TestReaderProbeFrontierLessThan(t *testing.T) {
	e := newTestEdge(t)
	r := e.NewReader()
	target := NewAntichain(NewVersion(3))
	assert.True(t, r.ProbeFrontierLessThan(target))
	require.NoError(t, e.SendFrontier(target))
	assert.False(t, r.ProbeFrontierLessThan(target))
}
