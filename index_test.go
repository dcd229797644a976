package dataflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexReconstructAt(t *testing.T) {
	ix := NewIndex[string, int]()
	ix.AddValue("a", NewVersion(1, 0), 10, 1)
	ix.AddValue("a", NewVersion(2, 0), 20, 1)
	ix.AddValue("a", NewVersion(1, 0), 10, 1)

	got, err := ix.ReconstructAt("a", NewVersion(1, 0))
	require.NoError(t, err)
	assert.True(t, got.Equal(NewMultiSet(Pair[int]{Value: 10, Mult: 2})))

	got, err = ix.ReconstructAt("a", NewVersion(2, 0))
	require.NoError(t, err)
	assert.True(t, got.Equal(NewMultiSet(Pair[int]{Value: 10, Mult: 2}, Pair[int]{Value: 20, Mult: 1})))
}

func TestIndexReconstructAtUnknownKey(t *testing.T) {
	ix := NewIndex[string, int]()
	got, err := ix.ReconstructAt("missing", NewVersion(0, 0))
	require.NoError(t, err)
	assert.Equal(t, 0, got.Len())
}

func TestIndexCompactPreservesSemantics(t *testing.T) {
	ix := NewIndex[string, int]()
	ix.AddValue("a", NewVersion(1, 0), 10, 1)
	ix.AddValue("a", NewVersion(1, 1), 10, 1)
	ix.AddValue("a", NewVersion(2, 0), 10, -1)

	req := NewVersion(5, 5)
	before, err := ix.ReconstructAt("a", req)
	require.NoError(t, err)

	require.NoError(t, ix.Compact(NewAntichain(NewVersion(2, 0))))

	after, err := ix.ReconstructAt("a", req)
	require.NoError(t, err)
	assert.True(t, before.Consolidate().Equal(after.Consolidate()))
}

func TestIndexCompactRejectsRegression(t *testing.T) {
	ix := NewIndex[string, int]()
	require.NoError(t, ix.Compact(NewAntichain(NewVersion(2, 0))))
	err := ix.Compact(NewAntichain(NewVersion(1, 0)))
	assert.Error(t, err)
	var target *InvalidCompactionFrontierError
	assert.ErrorAs(t, err, &target)
}

func TestIndexReconstructAtHistoryCompacted(t *testing.T) {
	ix := NewIndex[string, int]()
	ix.AddValue("a", NewVersion(0, 0), 1, 1)
	require.NoError(t, ix.Compact(NewAntichain(NewVersion(5, 0))))
	_, err := ix.ReconstructAt("a", NewVersion(1, 0))
	assert.ErrorIs(t, err, ErrHistoryCompacted)
}

func TestJoinIndexes(t *testing.T) {
	a := NewIndex[string, string]()
	a.AddValue("k", NewVersion(1, 0), "x", 1)
	b := NewIndex[string, string]()
	b.AddValue("k", NewVersion(1, 0), "y", 1)

	out := JoinIndexes(a, b)
	byKey, ok := out[NewVersion(1, 0)]
	require.True(t, ok)
	ms, ok := byKey["k"]
	require.True(t, ok)
	assert.True(t, ms.Equal(NewMultiSet(Pair[PairValue[string, string]]{
		Value: PairValue[string, string]{Left: "x", Right: "y"},
		Mult:  1,
	})))
}

func TestJoinIndexesOmitsCancelledBuckets(t *testing.T) {
	a := NewIndex[string, string]()
	a.AddValue("k", NewVersion(1, 0), "x", 1)
	a.AddValue("k", NewVersion(1, 0), "x", -1)
	b := NewIndex[string, string]()
	b.AddValue("k", NewVersion(1, 0), "y", 1)

	out := JoinIndexes(a, b)
	assert.Empty(t, out)
}
