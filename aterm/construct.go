package aterm

import (
	"bytes"
	"errors"
	"fmt"
	"slices"

	"github.com/joshuapare/atermkit/aterm/afun"
	"github.com/joshuapare/atermkit/aterm/alloc"
)

// MakeAppl returns the canonical application of sym to children.
// The child count must equal the symbol's arity; on mismatch nothing is
// allocated.
func (s *Store) MakeAppl(sym afun.Symbol, children ...Term) (Term, error) {
	if err := s.mutable(); err != nil {
		return 0, err
	}
	arity := s.symbols.Arity(sym)
	if arity < 0 {
		return 0, newError(ErrKindStale, fmt.Sprintf("symbol %#x", uint32(sym)), nil)
	}
	if len(children) != arity {
		return 0, newError(ErrKindArity,
			fmt.Sprintf("%s/%d applied to %d children", s.symbols.Name(sym), arity, len(children)), nil)
	}
	if sym == s.symbols.Builtin.Cons {
		return s.Cons(children[0], children[1])
	}
	return s.makeAppl(sym, children)
}

// MakeInt returns the canonical integer term for v.
func (s *Store) MakeInt(v int64) (Term, error) {
	if err := s.mutable(); err != nil {
		return 0, err
	}
	words := append(s.scratch[:0], tagInt, uint32(uint64(v)), uint32(uint64(v)>>32))
	s.scratch = words
	h := hashWords(words)
	if ref := s.table.find(h, s.wordsEqual(words)); ref != alloc.NilRef {
		return s.term(ref), nil
	}
	return s.insert(words, h, 0, nil)
}

// Nil returns the empty list. It is permanently live.
func (s *Store) Nil() Term { return s.nilTerm }

// Cons prepends head to the list tail.
func (s *Store) Cons(head, tail Term) (Term, error) {
	if err := s.mutable(); err != nil {
		return 0, err
	}
	if !s.valid(tail) {
		return 0, newError(ErrKindStale, "cons tail", nil)
	}
	if s.Kind(tail) != KindList {
		return 0, ErrNotList
	}
	return s.makeAppl(s.symbols.Builtin.Cons, []Term{head, tail})
}

// MakeList builds [elems...]. The elements are protected while the cons
// cells are allocated.
func (s *Store) MakeList(elems ...Term) (Term, error) {
	if err := s.mutable(); err != nil {
		return 0, err
	}
	reg := s.ProtectSlice(&elems)
	defer reg.Release()

	acc := s.nilTerm
	pair := make([]Term, 2)
	for i := len(elems) - 1; i >= 0; i-- {
		pair[0], pair[1] = elems[i], acc
		next, err := s.makeAppl(s.symbols.Builtin.Cons, pair)
		if err != nil {
			return 0, err
		}
		acc = next
	}
	return acc, nil
}

// MakePlaceholder wraps t in a placeholder term.
func (s *Store) MakePlaceholder(t Term) (Term, error) {
	if err := s.mutable(); err != nil {
		return 0, err
	}
	return s.makeAppl(s.symbols.Builtin.Placeholder, []Term{t})
}

// MakeBlob returns the canonical blob carrying a copy of data.
func (s *Store) MakeBlob(data []byte) (Term, error) {
	if err := s.mutable(); err != nil {
		return 0, err
	}
	h := hashBlob(data)
	ref := s.table.find(h, func(r alloc.Ref) bool {
		cell := s.alloc.Cell(r)
		return len(cell) == blobWords && tagOf(cell[0]) == tagBlob && bytes.Equal(s.blobs[cell[1]], data)
	})
	if ref != alloc.NilRef {
		return s.term(ref), nil
	}
	slot := s.storeBlob(bytes.Clone(data))
	t, err := s.insert([]uint32{tagBlob, slot}, h, 0, nil)
	if err != nil {
		s.freeBlob(slot)
		return 0, err
	}
	return t, nil
}

// makeAppl is MakeAppl after symbol and arity checks.
func (s *Store) makeAppl(sym afun.Symbol, children []Term) (Term, error) {
	words := append(s.scratch[:0], applHeader(sym))
	for i, c := range children {
		if !s.valid(c) {
			return 0, newError(ErrKindStale, fmt.Sprintf("child %d of %s", i, s.symbols.Name(sym)), nil)
		}
		words = append(words, uint32(c.ref()))
	}
	s.scratch = words
	h := hashWords(words)
	if ref := s.table.find(h, s.wordsEqual(words)); ref != alloc.NilRef {
		return s.term(ref), nil
	}
	return s.insert(words, h, sym, children)
}

func (s *Store) wordsEqual(words []uint32) func(alloc.Ref) bool {
	return func(r alloc.Ref) bool { return slices.Equal(s.alloc.Cell(r), words) }
}

// insert allocates a cell for words and registers it. children and sym stay
// rooted while the allocation may collect.
func (s *Store) insert(words []uint32, h uint32, sym afun.Symbol, children []Term) (Term, error) {
	s.pendingChildren, s.pendingSym = children, sym
	ref, err := s.alloc.Alloc(len(words))
	s.pendingChildren, s.pendingSym = nil, 0
	if err != nil {
		if errors.Is(err, alloc.ErrOutOfMemory) {
			return 0, newError(ErrKindOutOfMemory, fmt.Sprintf("allocate %d-word cell", len(words)), err)
		}
		return 0, newError(ErrKindOutOfMemory, "allocate", err)
	}
	copy(s.alloc.Cell(ref), words)
	s.table.insert(ref, h)
	if sym != 0 {
		s.symbols.IncRef(sym)
	}
	s.counters.constructed++
	return s.term(ref), nil
}

// mutable rejects construction while a collection is running, which can
// only happen when a Traceable builds terms from inside Trace.
func (s *Store) mutable() error {
	if s.state != stateIdle {
		return newError(ErrKindProtocol, "term construction during collection", nil)
	}
	return nil
}

func (s *Store) storeBlob(data []byte) uint32 {
	if n := len(s.blobFree); n > 0 {
		slot := s.blobFree[n-1]
		s.blobFree = s.blobFree[:n-1]
		s.blobs[slot] = data
		return slot
	}
	s.blobs = append(s.blobs, data)
	return uint32(len(s.blobs) - 1)
}

func (s *Store) freeBlob(slot uint32) {
	s.blobs[slot] = nil
	s.blobFree = append(s.blobFree, slot)
}
