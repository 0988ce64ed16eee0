package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/atermkit/aterm"
)

func newStore(t *testing.T) *aterm.Store {
	t.Helper()
	cfg := aterm.DefaultConfig()
	cfg.BlockShift = 3
	cfg.BlockWords = 64
	cfg.MinBlocks = 1
	s, err := aterm.New(cfg)
	require.NoError(t, err)
	return s
}

func ints(t *testing.T, s *aterm.Store, n int) []aterm.Term {
	t.Helper()
	out := make([]aterm.Term, n)
	reg := s.ProtectSlice(&out)
	defer reg.Release()
	for i := range out {
		x, err := s.MakeInt(int64(i))
		require.NoError(t, err)
		out[i] = x
	}
	return out
}

func Test_IndexedSet_PutAndLookup(t *testing.T) {
	s := newStore(t)
	set := NewIndexedSet(s, 0)
	defer set.Close()

	xs := ints(t, s, 3)
	for i, x := range xs {
		idx, isNew := set.Put(x)
		assert.True(t, isNew)
		assert.Equal(t, i, idx)
	}
	idx, isNew := set.Put(xs[1])
	assert.False(t, isNew)
	assert.Equal(t, 1, idx)

	assert.Equal(t, 3, set.Len())
	assert.Equal(t, 2, set.Index(xs[2]))
	got, ok := set.Get(0)
	require.True(t, ok)
	assert.Equal(t, xs[0], got)
	_, ok = set.Get(7)
	assert.False(t, ok)
	assert.Equal(t, -1, set.Index(s.Nil()))
}

func Test_IndexedSet_RemoveReusesIndex(t *testing.T) {
	s := newStore(t)
	set := NewIndexedSet(s, 4)
	defer set.Close()
	xs := ints(t, s, 4)
	for _, x := range xs[:3] {
		set.Put(x)
	}

	require.True(t, set.Remove(xs[1]))
	assert.False(t, set.Remove(xs[1]))
	_, ok := set.Get(1)
	assert.False(t, ok)

	idx, isNew := set.Put(xs[3])
	assert.True(t, isNew)
	assert.Equal(t, 1, idx, "freed index is reused")

	var order []int
	for i := range set.Elements() {
		order = append(order, i)
	}
	assert.Equal(t, []int{0, 1, 2}, order)

	set.Reset()
	assert.Zero(t, set.Len())
	idx, _ = set.Put(xs[2])
	assert.Zero(t, idx)
}

func Test_IndexedSet_RootsTerms(t *testing.T) {
	s := newStore(t)
	set := NewIndexedSet(s, 0)
	xs := ints(t, s, 40)
	for _, x := range xs {
		set.Put(x)
	}
	s.Collect()
	for _, x := range xs {
		assert.True(t, s.Valid(x))
	}

	require.NoError(t, set.Close())
	s.Collect()
	for _, x := range xs {
		assert.False(t, s.Valid(x))
	}
	require.ErrorIs(t, set.Close(), ErrClosed)
	assert.PanicsWithValue(t, ErrClosed, func() { set.Put(xs[0]) })
}

// staleErr returns the error a call panicked with, or nil.
func staleErr(fn func()) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err, _ = v.(error)
		}
	}()
	fn()
	return nil
}

func Test_IndexedSet_RejectsDeadTerms(t *testing.T) {
	s := newStore(t)
	set := NewIndexedSet(s, 0)
	defer set.Close()

	dead, err := s.MakeInt(-5)
	require.NoError(t, err)
	s.Collect()
	require.False(t, s.Valid(dead))

	require.ErrorIs(t, staleErr(func() { set.Put(0) }), aterm.ErrStaleHandle)
	require.ErrorIs(t, staleErr(func() { set.Put(dead) }), aterm.ErrStaleHandle)
	assert.Zero(t, set.Len())

	idx, isNew := set.Put(s.Nil())
	assert.True(t, isNew)
	assert.Zero(t, idx, "rejected puts consume no index")
	got, ok := set.Get(0)
	require.True(t, ok)
	assert.Equal(t, s.Nil(), got)
}

func Test_Table_RejectsDeadTerms(t *testing.T) {
	s := newStore(t)
	tb := NewTable(s, 0)
	defer tb.Close()

	dead, err := s.MakeInt(-5)
	require.NoError(t, err)
	s.Collect()

	require.ErrorIs(t, staleErr(func() { tb.Put(0, s.Nil()) }), aterm.ErrStaleHandle)
	require.ErrorIs(t, staleErr(func() { tb.Put(s.Nil(), dead) }), aterm.ErrStaleHandle)
	assert.Zero(t, tb.Len())
}

func Test_Table(t *testing.T) {
	s := newStore(t)
	tb := NewTable(s, 0)
	defer tb.Close()
	xs := ints(t, s, 4)

	tb.Put(xs[0], xs[1])
	tb.Put(xs[2], xs[3])
	tb.Put(xs[0], xs[3])

	v, ok := tb.Get(xs[0])
	require.True(t, ok)
	assert.Equal(t, xs[3], v)
	_, ok = tb.Get(xs[1])
	assert.False(t, ok)
	assert.Equal(t, 2, tb.Len())

	keys := map[aterm.Term]bool{}
	for k := range tb.Keys() {
		keys[k] = true
	}
	assert.Equal(t, map[aterm.Term]bool{xs[0]: true, xs[2]: true}, keys)
	for v := range tb.Values() {
		assert.Equal(t, xs[3], v)
	}

	s.Collect()
	assert.True(t, s.Valid(xs[3]), "values are roots")
	assert.False(t, s.Valid(xs[1]), "overwritten values are not")

	assert.True(t, tb.Remove(xs[2]))
	assert.False(t, tb.Remove(xs[2]))
	assert.Equal(t, 1, tb.Len())
}
