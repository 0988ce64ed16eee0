package index

import (
	"errors"
	"fmt"
	"iter"

	"github.com/joshuapare/atermkit/aterm"
)

// ErrClosed is the panic value of operations on a closed container.
var ErrClosed = errors.New("index: container is closed")

const (
	// defaultCapacity is the size hint used when callers pass none.
	defaultCapacity = 64
	noIndex         = -1
)

// IndexedSet maps terms to dense indexes.
type IndexedSet struct {
	s       *aterm.Store
	reg     *aterm.Registration
	indexes map[aterm.Term]int
	terms   []aterm.Term // by index; 0 marks a free index
	free    []int
}

// NewIndexedSet creates a set rooted in s.
func NewIndexedSet(s *aterm.Store, capacity int) *IndexedSet {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	set := &IndexedSet{
		s:       s,
		indexes: make(map[aterm.Term]int, capacity),
		terms:   make([]aterm.Term, 0, capacity),
	}
	set.reg = s.Register(set)
	return set
}

// Trace implements aterm.Traceable.
func (set *IndexedSet) Trace(mark func(aterm.Term)) {
	for t := range set.indexes {
		mark(t)
	}
}

// Put adds t if absent and returns its index. It panics with an
// aterm.ErrKindStale error when t is not a live term of the set's store.
func (set *IndexedSet) Put(t aterm.Term) (index int, isNew bool) {
	set.check()
	mustBeLive(set.s, t)
	if i, ok := set.indexes[t]; ok {
		return i, false
	}
	if n := len(set.free); n > 0 {
		index = set.free[n-1]
		set.free = set.free[:n-1]
		set.terms[index] = t
	} else {
		index = len(set.terms)
		set.terms = append(set.terms, t)
	}
	set.indexes[t] = index
	return index, true
}

// Index returns the index of t, or -1.
func (set *IndexedSet) Index(t aterm.Term) int {
	set.check()
	if i, ok := set.indexes[t]; ok {
		return i
	}
	return noIndex
}

// Get returns the term at index, or false for a free or unknown index.
func (set *IndexedSet) Get(index int) (aterm.Term, bool) {
	set.check()
	if index < 0 || index >= len(set.terms) || set.terms[index] == 0 {
		return 0, false
	}
	return set.terms[index], true
}

// Remove drops t and reports whether it was present.
func (set *IndexedSet) Remove(t aterm.Term) bool {
	set.check()
	i, ok := set.indexes[t]
	if !ok {
		return false
	}
	delete(set.indexes, t)
	set.terms[i] = 0
	set.free = append(set.free, i)
	return true
}

// Len returns the number of terms in the set.
func (set *IndexedSet) Len() int { return len(set.indexes) }

// Elements yields (index, term) pairs in index order.
func (set *IndexedSet) Elements() iter.Seq2[int, aterm.Term] {
	return func(yield func(int, aterm.Term) bool) {
		for i, t := range set.terms {
			if t == 0 {
				continue
			}
			if !yield(i, t) {
				return
			}
		}
	}
}

// Reset empties the set; indexes restart at zero.
func (set *IndexedSet) Reset() {
	set.check()
	clear(set.indexes)
	set.terms = set.terms[:0]
	set.free = set.free[:0]
}

// Close unregisters the set from its store and drops its contents.
func (set *IndexedSet) Close() error {
	if set.reg == nil {
		return ErrClosed
	}
	err := set.reg.Release()
	set.reg = nil
	set.indexes, set.terms, set.free = nil, nil, nil
	return err
}

func mustBeLive(s *aterm.Store, t aterm.Term) {
	if !s.Valid(t) {
		panic(&aterm.Error{Kind: aterm.ErrKindStale, Msg: fmt.Sprintf("index: term %#x is not live", uint64(t))})
	}
}

func (set *IndexedSet) check() {
	if set.reg == nil {
		panic(ErrClosed)
	}
}
