package aterm

import (
	"bytes"
	"fmt"
	"iter"

	"github.com/joshuapare/atermkit/aterm/afun"
	"github.com/joshuapare/atermkit/aterm/alloc"
)

// Inspection methods panic with an *Error of kind ErrKindStale when given a
// handle that is not live in this store, the same way indexing a slice out
// of range panics. Use Valid to test a handle first.

// Valid reports whether t is a live term of this store.
func (s *Store) Valid(t Term) bool { return s.valid(t) }

func (s *Store) cell(t Term) []uint32 {
	if !s.valid(t) {
		panic(newError(ErrKindStale, fmt.Sprintf("term %#x", uint64(t)), nil))
	}
	return s.alloc.Cell(t.ref())
}

// Kind returns the type of t.
func (s *Store) Kind(t Term) Kind {
	cell := s.cell(t)
	switch tagOf(cell[0]) {
	case tagInt:
		return KindInt
	case tagBlob:
		return KindBlob
	}
	b := s.symbols.Builtin
	switch s.symbols.At(symbolIndex(cell[0])) {
	case b.Cons, b.Nil:
		return KindList
	case b.Placeholder:
		return KindPlaceholder
	}
	return KindAppl
}

// SymbolOf returns the head symbol of t. Integers and blobs report the
// builtin <int> and <blob> symbols.
func (s *Store) SymbolOf(t Term) afun.Symbol {
	cell := s.cell(t)
	switch tagOf(cell[0]) {
	case tagInt:
		return s.symbols.Builtin.Int
	case tagBlob:
		return s.symbols.Builtin.Blob
	}
	return s.symbols.At(symbolIndex(cell[0]))
}

// Arity returns the number of children of t.
func (s *Store) Arity(t Term) int {
	cell := s.cell(t)
	if tagOf(cell[0]) != tagAppl {
		return 0
	}
	return len(cell) - 1
}

// Child returns child i of t.
func (s *Store) Child(t Term, i int) Term {
	cell := s.cell(t)
	if tagOf(cell[0]) != tagAppl || i < 0 || i >= len(cell)-1 {
		panic(newError(ErrKindArity, fmt.Sprintf("child %d of %d-ary term", i, len(cell)-1), nil))
	}
	return s.term(alloc.Ref(cell[1+i]))
}

// Children returns every child of t in order.
func (s *Store) Children(t Term) []Term {
	cell := s.cell(t)
	if tagOf(cell[0]) != tagAppl {
		return nil
	}
	out := make([]Term, len(cell)-1)
	for i, w := range cell[1:] {
		out[i] = s.term(alloc.Ref(w))
	}
	return out
}

// IntValue returns the payload of an integer term.
func (s *Store) IntValue(t Term) int64 {
	cell := s.cell(t)
	if tagOf(cell[0]) != tagInt {
		panic(newError(ErrKindType, "IntValue of non-integer term", nil))
	}
	return int64(uint64(cell[1]) | uint64(cell[2])<<32)
}

// BlobData returns a copy of a blob's payload.
func (s *Store) BlobData(t Term) []byte {
	cell := s.cell(t)
	if tagOf(cell[0]) != tagBlob {
		panic(newError(ErrKindType, "BlobData of non-blob term", nil))
	}
	return bytes.Clone(s.blobs[cell[1]])
}

// IsEmpty reports whether t is the empty list.
func (s *Store) IsEmpty(t Term) bool { return t == s.nilTerm }

// Head returns the first element of a non-empty list.
func (s *Store) Head(t Term) Term { return s.listPart(t, 0) }

// Tail returns a non-empty list without its first element.
func (s *Store) Tail(t Term) Term { return s.listPart(t, 1) }

func (s *Store) listPart(t Term, i int) Term {
	if s.SymbolOf(t) != s.symbols.Builtin.Cons {
		panic(ErrNotList)
	}
	return s.Child(t, i)
}

// ListLen returns the number of elements of list t.
func (s *Store) ListLen(t Term) int {
	n := 0
	for range s.ListElems(t) {
		n++
	}
	return n
}

// ListElems yields the elements of list t.
func (s *Store) ListElems(t Term) iter.Seq[Term] {
	return func(yield func(Term) bool) {
		if s.Kind(t) != KindList {
			panic(ErrNotList)
		}
		for t != s.nilTerm {
			if !yield(s.Child(t, 0)) {
				return
			}
			t = s.Child(t, 1)
		}
	}
}

// Live yields every live term, size class by size class in pool order.
// The sequence is restartable and must not be ranged across a collection.
func (s *Store) Live() iter.Seq[Term] {
	return func(yield func(Term) bool) {
		for ref := range s.alloc.All() {
			if !yield(s.term(ref)) {
				return
			}
		}
	}
}

// LiveInClass yields the live terms occupying cells of the given word count.
func (s *Store) LiveInClass(words int) iter.Seq[Term] {
	return func(yield func(Term) bool) {
		for ref := range s.alloc.Cells(words) {
			if !yield(s.term(ref)) {
				return
			}
		}
	}
}

// Classes returns the size classes currently holding pools.
func (s *Store) Classes() []int { return s.alloc.Classes() }

// Interned reports whether t is reachable through the hash-consing table.
func (s *Store) Interned(t Term) bool {
	return s.valid(t) && s.table.contains(t.ref())
}

// CellWords returns the size class of t's cell.
func (s *Store) CellWords(t Term) int { return len(s.cell(t)) }
