package afun

import (
	"fmt"
	"iter"
)

// Symbol is a canonical function symbol id. The zero Symbol is never valid.
type Symbol uint32

const (
	slotBits = 24
	slotMask = 1<<slotBits - 1
	maxSlots = 1 << slotBits
	noSlot   = -1
)

func makeSymbol(slot int, gen uint8) Symbol { return Symbol(uint32(gen)<<slotBits | uint32(slot)) }

func (s Symbol) slot() int { return int(uint32(s) & slotMask) }
func (s Symbol) gen() uint8 { return uint8(uint32(s) >> slotBits) }

// Index returns the table slot of s. Indexes fit in 24 bits.
func (s Symbol) Index() int { return s.slot() }

// Config sizes the table.
type Config struct {
	InitialClass int // log2 of the initial slot count
	MaxArity     int
}

// DefaultConfig returns the settings used by a default store.
func DefaultConfig() Config {
	return Config{InitialClass: 10, MaxArity: 1 << 16}
}

// Entry is the interned data of one symbol.
type Entry struct {
	Name   string
	Arity  int
	Quoted bool
}

type slot struct {
	Entry
	gen       uint8
	live      bool
	marked    bool
	permanent bool
	next      int32 // hash chain while live, free chain while free
	refs      int   // live applications headed by this symbol
}

// Builtins are the symbols every table interns at construction.
type Builtins struct {
	Int         Symbol // <int>/0
	Blob        Symbol // <blob>/0
	Placeholder Symbol // <_>/1
	Cons        Symbol // [_,_]/2
	Nil         Symbol // []/0
	Set         Symbol // {_}/2
}

// Table is the function-symbol hash-consing table.
type Table struct {
	cfg       Config
	slots     []slot
	buckets   []int32
	mask      uint32
	firstFree int32
	count     int
	protected []Symbol
	permanent []Symbol
	Builtin   Builtins
}

// New creates a table and interns the builtin symbols.
func New(cfg Config) (*Table, error) {
	if cfg.InitialClass < 1 || cfg.InitialClass > slotBits {
		return nil, fmt.Errorf("afun: initial class %d out of range [1,%d]", cfg.InitialClass, slotBits)
	}
	if cfg.MaxArity < 2 {
		return nil, fmt.Errorf("afun: max arity %d must allow list cells", cfg.MaxArity)
	}
	t := &Table{cfg: cfg, firstFree: noSlot}
	t.resize(1 << cfg.InitialClass)

	var err error
	b := &t.Builtin
	for _, bi := range []struct {
		dst   *Symbol
		name  string
		arity int
	}{
		{&b.Int, "<int>", 0},
		{&b.Blob, "<blob>", 0},
		{&b.Placeholder, "<_>", 1},
		{&b.Cons, "[_,_]", 2},
		{&b.Nil, "[]", 0},
		{&b.Set, "{_}", 2},
	} {
		if *bi.dst, err = t.Intern(bi.name, bi.arity, false); err != nil {
			return nil, err
		}
		t.slots[bi.dst.slot()].permanent = true
		t.permanent = append(t.permanent, *bi.dst)
	}
	return t, nil
}

// MaxArity returns the largest arity Intern accepts.
func (t *Table) MaxArity() int { return t.cfg.MaxArity }

// Intern returns the canonical symbol for (name, arity, quoted).
func (t *Table) Intern(name string, arity int, quoted bool) (Symbol, error) {
	if arity < 0 || arity > t.cfg.MaxArity {
		return 0, fmt.Errorf("%w: %d (max %d)", ErrArity, arity, t.cfg.MaxArity)
	}
	h := hash(name, arity)
	for i := t.buckets[h&t.mask]; i != noSlot; i = t.slots[i].next {
		e := &t.slots[i]
		if e.Arity == arity && e.Quoted == quoted && e.Name == name {
			return makeSymbol(int(i), e.gen), nil
		}
	}

	if t.firstFree == noSlot {
		if len(t.slots) >= maxSlots {
			return 0, ErrFull
		}
		t.resize(len(t.slots) * 2)
	}
	i := t.firstFree
	e := &t.slots[i]
	t.firstFree = e.next

	e.gen++
	e.Entry = Entry{Name: name, Arity: arity, Quoted: quoted}
	e.live = true
	e.marked = false
	e.refs = 0
	b := h & t.mask
	e.next = t.buckets[b]
	t.buckets[b] = i
	t.count++
	return makeSymbol(int(i), e.gen), nil
}

// Lookup returns the entry of a live symbol.
func (t *Table) Lookup(s Symbol) (Entry, bool) {
	e := t.entry(s)
	if e == nil {
		return Entry{}, false
	}
	return e.Entry, true
}

// At returns the live symbol stored in slot index, or 0.
func (t *Table) At(index int) Symbol {
	if index < 0 || index >= len(t.slots) || !t.slots[index].live {
		return 0
	}
	return makeSymbol(index, t.slots[index].gen)
}

// Valid reports whether s names a live symbol.
func (t *Table) Valid(s Symbol) bool { return t.entry(s) != nil }

// Name returns the name of s, or "" when s is stale.
func (t *Table) Name(s Symbol) string {
	if e := t.entry(s); e != nil {
		return e.Name
	}
	return ""
}

// Arity returns the arity of s, or -1 when s is stale.
func (t *Table) Arity(s Symbol) int {
	if e := t.entry(s); e != nil {
		return e.Arity
	}
	return -1
}

// Quoted reports the quoted flag of s.
func (t *Table) Quoted(s Symbol) bool {
	if e := t.entry(s); e != nil {
		return e.Quoted
	}
	return false
}

// Len returns the number of live symbols.
func (t *Table) Len() int { return t.count }

// Capacity returns the current slot count.
func (t *Table) Capacity() int { return len(t.slots) }

// All yields every live symbol in slot order.
func (t *Table) All() iter.Seq[Symbol] {
	return func(yield func(Symbol) bool) {
		for i := range t.slots {
			e := &t.slots[i]
			if e.live && !yield(makeSymbol(i, e.gen)) {
				return
			}
		}
	}
}

// IncRef records one more live application headed by s.
func (t *Table) IncRef(s Symbol) {
	if e := t.entry(s); e != nil {
		e.refs++
	}
}

// DecRef releases one application reference of s.
func (t *Table) DecRef(s Symbol) {
	if e := t.entry(s); e != nil && e.refs > 0 {
		e.refs--
	}
}

// Refs returns the number of live applications headed by s.
func (t *Table) Refs(s Symbol) int {
	if e := t.entry(s); e != nil {
		return e.refs
	}
	return 0
}

func (t *Table) entry(s Symbol) *slot {
	i := s.slot()
	if s == 0 || i >= len(t.slots) {
		return nil
	}
	e := &t.slots[i]
	if !e.live || e.gen != s.gen() {
		return nil
	}
	return e
}

// resize grows the slot array to n and rebuilds every hash chain.
func (t *Table) resize(n int) {
	old := len(t.slots)
	if cap(t.slots) >= n {
		t.slots = t.slots[:n]
	} else {
		grown := make([]slot, n)
		copy(grown, t.slots)
		t.slots = grown
	}
	// Chain new slots ascending in front of any remaining free ones.
	for i := n - 1; i >= old; i-- {
		t.slots[i].next = t.firstFree
		t.firstFree = int32(i)
	}

	t.buckets = make([]int32, n)
	for i := range t.buckets {
		t.buckets[i] = noSlot
	}
	t.mask = uint32(n - 1)
	for i := range old {
		e := &t.slots[i]
		if !e.live {
			continue
		}
		b := hash(e.Name, e.Arity) & t.mask
		e.next = t.buckets[b]
		t.buckets[b] = int32(i)
	}
}

func (t *Table) unlink(i int32) {
	e := &t.slots[i]
	b := hash(e.Name, e.Arity) & t.mask
	if t.buckets[b] == i {
		t.buckets[b] = e.next
		return
	}
	for p := t.buckets[b]; p != noSlot; p = t.slots[p].next {
		if t.slots[p].next == i {
			t.slots[p].next = e.next
			return
		}
	}
}
