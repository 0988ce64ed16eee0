package alloc

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fill(t *testing.T, a *Allocator, words, n int) []Ref {
	t.Helper()
	refs := make([]Ref, n)
	for i := range refs {
		ref, err := a.Alloc(words)
		require.NoError(t, err)
		populate(t, a, ref, uint32(i+1))
		refs[i] = ref
	}
	return refs
}

func TestSweep_ReclaimsUnmarked(t *testing.T) {
	a := newTestAllocator(t, smallConfig())
	refs := fill(t, a, 2, 6)

	a.Mark(refs[0])
	a.Mark(refs[4])
	var dead []Ref
	res := a.Sweep(func(ref Ref) {
		require.True(t, a.Allocated(ref), "reclaim sees the cell before it is cleared")
		dead = append(dead, ref)
	})

	assert.Equal(t, 2, res.Live)
	assert.Equal(t, 4, res.Reclaimed)
	assert.ElementsMatch(t, []Ref{refs[1], refs[2], refs[3], refs[5]}, dead)
	assert.False(t, a.Marked(refs[0]), "sweep clears marks")
	assert.True(t, a.Old(refs[0]), "survivors become old")
	assert.True(t, a.Allocated(refs[4]))
	assert.False(t, a.Allocated(refs[1]))
}

func TestSweep_MarkIsIdempotent(t *testing.T) {
	a := newTestAllocator(t, smallConfig())
	refs := fill(t, a, 1, 1)
	assert.True(t, a.Mark(refs[0]))
	assert.False(t, a.Mark(refs[0]), "second mark reports already marked")
	assert.False(t, a.Mark(NilRef))
}

func TestSweep_YoungKeepsOld(t *testing.T) {
	a := newTestAllocator(t, smallConfig())
	refs := fill(t, a, 2, 4)

	a.Mark(refs[0])
	a.Sweep(nil) // refs[0] is now old; the rest are gone
	young := fill(t, a, 2, 2)

	res := a.SweepYoung(nil)
	assert.Equal(t, 2, res.Reclaimed, "unmarked young cells are reclaimed")
	assert.True(t, a.Allocated(refs[0]), "old cells survive a minor sweep unmarked")
	for _, ref := range young {
		assert.False(t, a.Allocated(ref))
	}

	res = a.Sweep(nil)
	assert.Equal(t, 1, res.Reclaimed, "a major sweep reclaims unmarked old cells")
	assert.False(t, a.Allocated(refs[0]))
}

func TestSweep_ReclaimsEmptyBlocks(t *testing.T) {
	a := newTestAllocator(t, smallConfig())
	refs := fill(t, a, 2, 24) // three blocks
	require.Equal(t, 3, a.Stats().Blocks)

	// Keep only cells in the last block.
	for _, ref := range refs[16:] {
		a.Mark(ref)
	}
	res := a.Sweep(nil)
	assert.Equal(t, 2, res.BlocksFreed)
	st := a.Stats()
	assert.Equal(t, 1, st.Blocks)
	assert.Equal(t, 2, st.FreeBlocks)

	// A different class reuses a reclaimed block index.
	other := fill(t, a, 3, 1)
	assert.Equal(t, 2, a.Stats().Blocks)
	assert.Equal(t, 1, a.Stats().FreeBlocks)
	assert.Equal(t, 3, a.Words(other[0]))

	// Stale refs into the reassigned block stay distinguishable by generation.
	for _, ref := range refs[:16] {
		if ref == other[0] {
			assert.NotEqual(t, uint32(0), a.Gen(ref))
		}
	}
}

func TestSweep_DropsBlocksBeyondFreeLimit(t *testing.T) {
	cfg := smallConfig()
	cfg.MaxFreeBlocks = 0
	a := newTestAllocator(t, cfg)
	fill(t, a, 2, 16)

	res := a.Sweep(nil)
	assert.Equal(t, 0, res.BlocksFreed)
	assert.Equal(t, 1, res.BlocksDropped, "the current block always stays in its pool")
	assert.Equal(t, 0, a.Stats().FreeBlocks)
}

func TestSweep_FreeListInPoolOrder(t *testing.T) {
	a := newTestAllocator(t, smallConfig())
	refs := fill(t, a, 2, 8)
	a.Mark(refs[0])
	a.Mark(refs[7])
	a.Sweep(nil)

	got := fill(t, a, 2, 6)
	assert.Equal(t, refs[1:7], got, "free cells are reused lowest slot first")
}

func TestCells_PoolOrderAndRestartable(t *testing.T) {
	a := newTestAllocator(t, smallConfig())
	refs := fill(t, a, 2, 12)
	require.NoError(t, a.Free(refs[5]))
	fill(t, a, 4, 3)

	want := slices.Delete(slices.Clone(refs), 5, 6)
	first := slices.Collect(a.Cells(2))
	second := slices.Collect(a.Cells(2))
	assert.Equal(t, want, first)
	assert.Equal(t, first, second, "sequence must be restartable")
	assert.Empty(t, slices.Collect(a.Cells(9)), "unknown class yields nothing")
	assert.Len(t, slices.Collect(a.All()), 14)

	// Early break stops the walk.
	n := 0
	for range a.Cells(2) {
		n++
		if n == 3 {
			break
		}
	}
	assert.Equal(t, 3, n)
}
