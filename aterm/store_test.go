package aterm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/atermkit/aterm/afun"
)

// smallConfig gives pools of eight cells so collections run constantly.
func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.BlockShift = 3
	cfg.BlockWords = 64
	cfg.MinBlocks = 1
	cfg.TableClass = 4
	cfg.SymbolClass = 4
	return cfg
}

func newTestStore(t *testing.T, cfg Config) *Store {
	t.Helper()
	s, err := New(cfg)
	require.NoError(t, err, "New should not error")
	return s
}

func mustSymbol(t *testing.T, s *Store, name string, arity int) afun.Symbol {
	t.Helper()
	sym, err := s.Symbol(name, arity, false)
	require.NoError(t, err)
	require.NoError(t, s.ProtectSymbol(sym))
	return sym
}

func mustInt(t *testing.T, s *Store, v int64) Term {
	t.Helper()
	x, err := s.MakeInt(v)
	require.NoError(t, err)
	return x
}

func mustAppl(t *testing.T, s *Store, sym afun.Symbol, children ...Term) Term {
	t.Helper()
	x, err := s.MakeAppl(sym, children...)
	require.NoError(t, err)
	return x
}

// catch returns the value a panicking call recovered with.
func catch(fn func()) (v any) {
	defer func() { v = recover() }()
	fn()
	return nil
}

func TestStore_IndependentConstructionsShare(t *testing.T) {
	s := newTestStore(t, DefaultConfig())
	f := mustSymbol(t, s, "f", 2)

	first := mustAppl(t, s, f, mustInt(t, s, 1), mustInt(t, s, 2))
	second := mustAppl(t, s, f, mustInt(t, s, 1), mustInt(t, s, 2))

	assert.Equal(t, first, second, "structurally equal terms share one handle")
	assert.NotEqual(t, first, mustAppl(t, s, f, mustInt(t, s, 2), mustInt(t, s, 1)))
	assert.True(t, s.Interned(first))
}

func TestStore_Inspection(t *testing.T) {
	s := newTestStore(t, DefaultConfig())
	f := mustSymbol(t, s, "f", 2)
	one, two := mustInt(t, s, 1), mustInt(t, s, -2)
	x := mustAppl(t, s, f, one, two)

	assert.Equal(t, KindAppl, s.Kind(x))
	assert.Equal(t, f, s.SymbolOf(x))
	assert.Equal(t, 2, s.Arity(x))
	assert.Equal(t, one, s.Child(x, 0))
	assert.Equal(t, []Term{one, two}, s.Children(x))
	assert.Equal(t, int64(-2), s.IntValue(two))
	assert.Equal(t, KindInt, s.Kind(two))
	assert.Equal(t, s.Builtins().Int, s.SymbolOf(two))
	assert.Equal(t, 0, s.Arity(two))
	assert.Equal(t, 3, s.CellWords(x))
	assert.Equal(t, "f", s.SymbolName(f))
	assert.Equal(t, 2, s.SymbolArity(f))
}

func TestStore_IntExtremes(t *testing.T) {
	s := newTestStore(t, DefaultConfig())
	for _, v := range []int64{0, 1, -1, 1 << 40, -1 << 63, 1<<63 - 1} {
		x := mustInt(t, s, v)
		assert.Equal(t, v, s.IntValue(x))
		assert.Equal(t, x, mustInt(t, s, v))
	}
}

func TestStore_ArityMismatchAllocatesNothing(t *testing.T) {
	s := newTestStore(t, DefaultConfig())
	f := mustSymbol(t, s, "f", 2)
	one := mustInt(t, s, 1)
	before := s.Stats()

	_, err := s.MakeAppl(f, one)
	require.ErrorIs(t, err, ErrArityMismatch)
	_, err = s.MakeAppl(f, one, one, one)
	require.ErrorIs(t, err, ErrArityMismatch)

	after := s.Stats()
	assert.Equal(t, before.LiveCells, after.LiveCells)
	assert.Equal(t, before.Constructed, after.Constructed)
}

func TestStore_SymbolArityOutOfRange(t *testing.T) {
	s := newTestStore(t, DefaultConfig())
	_, err := s.Symbol("f", -1, false)
	require.ErrorIs(t, err, ErrArityMismatch)
}

func TestStore_ZeroAritySymbols(t *testing.T) {
	s := newTestStore(t, DefaultConfig())
	a := mustSymbol(t, s, "a", 0)
	quoted, err := s.Symbol("a", 0, true)
	require.NoError(t, err)

	x := mustAppl(t, s, a)
	assert.Equal(t, x, mustAppl(t, s, a))
	assert.NotEqual(t, x, mustAppl(t, s, quoted), "quoted flag distinguishes symbols")
	assert.True(t, s.SymbolQuoted(quoted))
	assert.Equal(t, 1, s.CellWords(x))
}

func TestStore_Lists(t *testing.T) {
	s := newTestStore(t, DefaultConfig())
	a, b, c := mustInt(t, s, 1), mustInt(t, s, 2), mustInt(t, s, 3)

	list, err := s.MakeList(a, b, c)
	require.NoError(t, err)

	tail, err := s.Cons(c, s.Nil())
	require.NoError(t, err)
	tail, err = s.Cons(b, tail)
	require.NoError(t, err)
	manual, err := s.Cons(a, tail)
	require.NoError(t, err)

	assert.Equal(t, manual, list)
	assert.Equal(t, KindList, s.Kind(list))
	assert.Equal(t, 3, s.ListLen(list))
	assert.Equal(t, a, s.Head(list))
	assert.Equal(t, tail, s.Tail(list))
	assert.True(t, s.IsEmpty(s.Nil()))
	assert.False(t, s.IsEmpty(list))

	var got []Term
	for e := range s.ListElems(list) {
		got = append(got, e)
	}
	assert.Equal(t, []Term{a, b, c}, got)

	empty, err := s.MakeList()
	require.NoError(t, err)
	assert.Equal(t, s.Nil(), empty)
	assert.Equal(t, 0, s.ListLen(empty))
}

func TestStore_ConsRejectsNonList(t *testing.T) {
	s := newTestStore(t, DefaultConfig())
	one := mustInt(t, s, 1)

	_, err := s.Cons(one, one)
	require.ErrorIs(t, err, ErrNotList)
	assert.Equal(t, ErrNotList, catch(func() { s.Head(s.Nil()) }))
	assert.Equal(t, ErrNotList, catch(func() { s.ListLen(one) }))
}

func TestStore_PlaceholderAndBlob(t *testing.T) {
	s := newTestStore(t, DefaultConfig())
	one := mustInt(t, s, 1)

	p, err := s.MakePlaceholder(one)
	require.NoError(t, err)
	assert.Equal(t, KindPlaceholder, s.Kind(p))
	assert.Equal(t, one, s.Child(p, 0))

	data := []byte{0xde, 0xad, 0xbe, 0xef}
	b1, err := s.MakeBlob(data)
	require.NoError(t, err)
	data[0] = 0
	b2, err := s.MakeBlob([]byte{0xde, 0xad, 0xbe, 0xef})
	require.NoError(t, err)
	assert.Equal(t, b1, b2, "blob payload is copied on construction")
	assert.Equal(t, KindBlob, s.Kind(b1))
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, s.BlobData(b1))

	other, err := s.MakeBlob([]byte{0xde, 0xad})
	require.NoError(t, err)
	assert.NotEqual(t, b1, other)
	assert.Equal(t, 2, s.Stats().Blobs)
}

func TestStore_WrongKindPanics(t *testing.T) {
	s := newTestStore(t, DefaultConfig())
	f := mustSymbol(t, s, "f", 0)
	x := mustAppl(t, s, f)

	v := catch(func() { s.IntValue(x) })
	require.IsType(t, &Error{}, v)
	assert.Equal(t, ErrKindType, v.(*Error).Kind)

	v = catch(func() { s.Child(x, 0) })
	require.IsType(t, &Error{}, v)
	assert.Equal(t, ErrKindArity, v.(*Error).Kind)
}

func TestStore_IndependentStores(t *testing.T) {
	s1 := newTestStore(t, DefaultConfig())
	s2 := newTestStore(t, DefaultConfig())
	assert.NotEqual(t, s1.ID(), s2.ID())

	mustInt(t, s1, 7)
	assert.Equal(t, s1.Stats().LiveCells-1, s2.Stats().LiveCells)
}

func TestStore_NewRejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TableClass = 0
	_, err := New(cfg)
	require.Error(t, err)
}
