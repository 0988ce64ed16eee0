package afun

import (
	"fmt"
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTable(t *testing.T, class int) *Table {
	t.Helper()
	cfg := DefaultConfig()
	cfg.InitialClass = class
	tab, err := New(cfg)
	require.NoError(t, err, "New should not error")
	return tab
}

func TestTable_InternIsIdempotent(t *testing.T) {
	tab := newTestTable(t, 4)

	f1, err := tab.Intern("f", 2, false)
	require.NoError(t, err)
	f2, err := tab.Intern("f", 2, false)
	require.NoError(t, err)
	assert.Equal(t, f1, f2)

	g, err := tab.Intern("f", 1, false)
	require.NoError(t, err)
	q, err := tab.Intern("f", 2, true)
	require.NoError(t, err)
	assert.NotEqual(t, f1, g, "arity distinguishes symbols")
	assert.NotEqual(t, f1, q, "quoting distinguishes symbols")

	e, ok := tab.Lookup(q)
	require.True(t, ok)
	assert.Equal(t, Entry{Name: "f", Arity: 2, Quoted: true}, e)
}

func TestTable_Builtins(t *testing.T) {
	tab := newTestTable(t, 4)
	b := tab.Builtin

	assert.Equal(t, "[_,_]", tab.Name(b.Cons))
	assert.Equal(t, 2, tab.Arity(b.Cons))
	assert.Equal(t, 0, tab.Arity(b.Nil))
	assert.Equal(t, 1, tab.Arity(b.Placeholder))
	assert.Equal(t, 6, tab.Len())

	nilSym, err := tab.Intern("[]", 0, false)
	require.NoError(t, err)
	assert.Equal(t, b.Nil, nilSym, "user interning a builtin name gets the builtin")

	require.ErrorIs(t, tab.Unprotect(b.Int), ErrPermanent)
	assert.Equal(t, 0, tab.Sweep(), "builtins survive an unmarked sweep")
	assert.True(t, tab.Valid(b.Set))
}

func TestTable_ArityRange(t *testing.T) {
	tab := newTestTable(t, 4)
	_, err := tab.Intern("f", -1, false)
	require.ErrorIs(t, err, ErrArity)
	_, err = tab.Intern("f", tab.MaxArity()+1, false)
	require.ErrorIs(t, err, ErrArity)
	_, err = tab.Intern("f", tab.MaxArity(), false)
	require.NoError(t, err)
}

func TestTable_GrowsAndRehashes(t *testing.T) {
	tab := newTestTable(t, 3) // 8 slots, 6 taken by builtins
	syms := make(map[string]Symbol)
	for i := range 100 {
		name := fmt.Sprintf("s%d", i)
		s, err := tab.Intern(name, i%4, false)
		require.NoError(t, err)
		syms[name] = s
	}
	assert.Equal(t, 106, tab.Len())
	assert.GreaterOrEqual(t, tab.Capacity(), 128)

	for i := range 100 {
		name := fmt.Sprintf("s%d", i)
		s, err := tab.Intern(name, i%4, false)
		require.NoError(t, err)
		assert.Equal(t, syms[name], s, "rehash must keep ids stable")
	}
}

func TestTable_SweepFreesUnreferenced(t *testing.T) {
	tab := newTestTable(t, 4)
	kept, err := tab.Intern("kept", 0, false)
	require.NoError(t, err)
	used, err := tab.Intern("used", 1, false)
	require.NoError(t, err)
	dead, err := tab.Intern("dead", 0, false)
	require.NoError(t, err)

	require.NoError(t, tab.Protect(kept))
	tab.IncRef(used)
	tab.MarkProtected()
	assert.True(t, tab.Marked(kept))

	freed := tab.Sweep()
	assert.Equal(t, 1, freed)
	assert.True(t, tab.Valid(kept))
	assert.True(t, tab.Valid(used), "referenced symbols survive without a mark")
	assert.False(t, tab.Valid(dead))
	assert.False(t, tab.Marked(kept), "sweep clears marks")
	assert.Equal(t, "", tab.Name(dead))
	assert.Equal(t, -1, tab.Arity(dead))
}

func TestTable_StaleIdNeverAliases(t *testing.T) {
	tab := newTestTable(t, 4)
	old, err := tab.Intern("old", 0, false)
	require.NoError(t, err)
	tab.Sweep()
	require.False(t, tab.Valid(old))

	fresh, err := tab.Intern("fresh", 0, false)
	require.NoError(t, err)
	assert.Equal(t, old.slot(), fresh.slot(), "the freed slot is reused first")
	assert.NotEqual(t, old, fresh, "generation differs")
	assert.False(t, tab.Valid(old))
	require.ErrorIs(t, tab.Protect(old), ErrStale)

	again, err := tab.Intern("old", 0, false)
	require.NoError(t, err)
	assert.NotEqual(t, old, again)
}

func TestTable_SlotRetiredBeforeGenerationWraps(t *testing.T) {
	tab := newTestTable(t, 4)
	first, err := tab.Intern("x", 0, false)
	require.NoError(t, err)

	seen := map[Symbol]bool{first: true}
	prev := first
	for {
		tab.Sweep()
		next, err := tab.Intern("x", 0, false)
		require.NoError(t, err)
		require.False(t, seen[next], "id %#x handed out twice", next)
		seen[next] = true
		if next.slot() != first.slot() {
			break
		}
		prev = next
	}
	assert.Equal(t, uint8(math.MaxUint8), prev.gen(), "slot served every generation first")
	assert.Len(t, seen, math.MaxUint8+1)
	for s := range seen {
		if s.slot() == first.slot() {
			assert.False(t, tab.Valid(s))
		}
	}
}

func TestTable_ProtectStack(t *testing.T) {
	tab := newTestTable(t, 4)
	a, _ := tab.Intern("a", 0, false)
	b, _ := tab.Intern("b", 0, false)
	c, _ := tab.Intern("c", 0, false)

	for _, s := range []Symbol{a, b, c, a} {
		require.NoError(t, tab.Protect(s))
	}
	assert.Equal(t, 4, tab.Protected())

	// Out-of-order removal swaps with the last entry.
	require.NoError(t, tab.Unprotect(b))
	assert.Equal(t, 3, tab.Protected())
	require.NoError(t, tab.Unprotect(a))
	require.NoError(t, tab.Unprotect(a))
	require.ErrorIs(t, tab.Unprotect(a), ErrNotProtected)
	require.NoError(t, tab.Unprotect(c))
	assert.Equal(t, 0, tab.Protected())
}

func TestTable_RefCounts(t *testing.T) {
	tab := newTestTable(t, 4)
	s, _ := tab.Intern("f", 1, false)
	tab.IncRef(s)
	tab.IncRef(s)
	tab.DecRef(s)
	assert.Equal(t, 1, tab.Refs(s))
	tab.DecRef(s)
	tab.DecRef(s)
	assert.Equal(t, 0, tab.Refs(s), "counts never go negative")
}

func TestTable_All(t *testing.T) {
	tab := newTestTable(t, 4)
	f, _ := tab.Intern("f", 0, false)
	all := slices.Collect(tab.All())
	assert.Len(t, all, 7)
	assert.Contains(t, all, f)
}

func TestHash_MatchesPolynomial(t *testing.T) {
	// arity 2, "ab": ((2*3)*251 + 'a')*251 + 'b', times 7
	want := ((uint32(6)*251+'a')*251 + 'b') * 7
	assert.Equal(t, want, hash("ab", 2))
	assert.Equal(t, uint32(0), hash("", 0))

	// 0xc3 folds in as -61, not 195.
	var h uint32 = 3
	h = 251*h - 61
	h = 251*h + 'x'
	assert.Equal(t, h*7, hash("\xc3x", 1))
	assert.NotEqual(t, ((uint32(3)*251+0xc3)*251+'x')*7, hash("\xc3x", 1))
}

func TestNew_RejectsBadConfig(t *testing.T) {
	_, err := New(Config{InitialClass: 0, MaxArity: 4})
	require.Error(t, err)
	_, err = New(Config{InitialClass: 4, MaxArity: 1})
	require.Error(t, err)
}
