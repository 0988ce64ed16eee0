package index

import (
	"iter"
	"maps"

	"github.com/joshuapare/atermkit/aterm"
)

// Table maps terms to terms. Keys and values are both collector roots.
type Table struct {
	s       *aterm.Store
	reg     *aterm.Registration
	entries map[aterm.Term]aterm.Term
}

// NewTable creates a table rooted in s.
func NewTable(s *aterm.Store, capacity int) *Table {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	tb := &Table{s: s, entries: make(map[aterm.Term]aterm.Term, capacity)}
	tb.reg = s.Register(tb)
	return tb
}

// Trace implements aterm.Traceable.
func (tb *Table) Trace(mark func(aterm.Term)) {
	for k, v := range tb.entries {
		mark(k)
		mark(v)
	}
}

// Put associates value with key, replacing any previous value. Like
// IndexedSet.Put it panics unless both are live terms.
func (tb *Table) Put(key, value aterm.Term) {
	tb.check()
	mustBeLive(tb.s, key)
	mustBeLive(tb.s, value)
	tb.entries[key] = value
}

// Get returns the value stored under key.
func (tb *Table) Get(key aterm.Term) (aterm.Term, bool) {
	tb.check()
	v, ok := tb.entries[key]
	return v, ok
}

// Remove deletes key and reports whether it was present.
func (tb *Table) Remove(key aterm.Term) bool {
	tb.check()
	if _, ok := tb.entries[key]; !ok {
		return false
	}
	delete(tb.entries, key)
	return true
}

// Len returns the number of entries.
func (tb *Table) Len() int { return len(tb.entries) }

// Keys yields every key in unspecified order.
func (tb *Table) Keys() iter.Seq[aterm.Term] { return maps.Keys(tb.entries) }

// Values yields every value in unspecified order.
func (tb *Table) Values() iter.Seq[aterm.Term] { return maps.Values(tb.entries) }

// Close unregisters the table from its store.
func (tb *Table) Close() error {
	if tb.reg == nil {
		return ErrClosed
	}
	err := tb.reg.Release()
	tb.reg = nil
	tb.entries = nil
	return err
}

func (tb *Table) check() {
	if tb.reg == nil {
		panic(ErrClosed)
	}
}
