package verify

import (
	"encoding/binary"
	"fmt"

	"github.com/joshuapare/atermkit/aterm"
)

// ValidationError describes the first invariant violation found.
type ValidationError struct {
	Type    string
	Message string
	Term    aterm.Term // 0 when the failure is not tied to one term
}

func (e *ValidationError) Error() string {
	if e.Term != 0 {
		return fmt.Sprintf("%s at term %#x: %s", e.Type, uint64(e.Term), e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Store validates every invariant and returns the first failure.
func Store(s *aterm.Store) error {
	if err := Children(s); err != nil {
		return err
	}
	if err := Symbols(s); err != nil {
		return err
	}
	if err := Sharing(s); err != nil {
		return err
	}
	return Table(s)
}

// Children checks that live terms only point at live terms.
func Children(s *aterm.Store) error {
	for t := range s.Live() {
		for i, c := range s.Children(t) {
			if !s.Valid(c) {
				return &ValidationError{
					Type:    "Children",
					Message: fmt.Sprintf("child %d is not live", i),
					Term:    t,
				}
			}
		}
	}
	return nil
}

// Symbols checks that every application is headed by a live symbol of
// matching arity.
func Symbols(s *aterm.Store) error {
	for t := range s.Live() {
		switch s.Kind(t) {
		case aterm.KindInt, aterm.KindBlob:
			continue
		}
		sym := s.SymbolOf(t)
		arity := s.SymbolArity(sym)
		if arity < 0 {
			return &ValidationError{Type: "Symbols", Message: "head symbol is not live", Term: t}
		}
		if arity != s.Arity(t) {
			return &ValidationError{
				Type:    "Symbols",
				Message: fmt.Sprintf("%s/%d applied to %d children", s.SymbolName(sym), arity, s.Arity(t)),
				Term:    t,
			}
		}
	}
	return nil
}

// Sharing checks that structurally equal live terms share one cell.
func Sharing(s *aterm.Store) error {
	seen := make(map[string]aterm.Term)
	var key []byte
	for t := range s.Live() {
		key = shape(s, t, key[:0])
		if prev, ok := seen[string(key)]; ok {
			return &ValidationError{
				Type:    "Sharing",
				Message: fmt.Sprintf("duplicate of term %#x", uint64(prev)),
				Term:    t,
			}
		}
		seen[string(key)] = t
	}
	return nil
}

// Table checks that every live term can be found by hash lookup.
func Table(s *aterm.Store) error {
	n := 0
	for t := range s.Live() {
		if !s.Interned(t) {
			return &ValidationError{Type: "Table", Message: "live term missing from hash table", Term: t}
		}
		n++
	}
	if st := s.Stats(); st.TableEntries != n {
		return &ValidationError{
			Type:    "Table",
			Message: fmt.Sprintf("table holds %d entries for %d live terms", st.TableEntries, n),
		}
	}
	return nil
}

// shape encodes the identity of t's top cell: kind, then the payload or
// the symbol and child handles.
func shape(s *aterm.Store, t aterm.Term, b []byte) []byte {
	kind := s.Kind(t)
	b = append(b, byte(kind))
	switch kind {
	case aterm.KindInt:
		return binary.LittleEndian.AppendUint64(b, uint64(s.IntValue(t)))
	case aterm.KindBlob:
		return append(b, s.BlobData(t)...)
	}
	b = binary.LittleEndian.AppendUint32(b, uint32(s.SymbolOf(t)))
	for _, c := range s.Children(t) {
		b = binary.LittleEndian.AppendUint64(b, uint64(c))
	}
	return b
}
