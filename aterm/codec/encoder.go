package codec

import (
	"bufio"
	"bytes"
	"io"

	"github.com/joshuapare/atermkit/aterm"
	"github.com/joshuapare/atermkit/aterm/afun"
	"github.com/joshuapare/atermkit/internal/format"
)

// Encoder writes terms of one store to an output stream.
type Encoder struct {
	s       *aterm.Store
	w       *bufio.Writer
	started bool
	buf     []byte
	terms   map[aterm.Term]uint64
	symbols map[afun.Symbol]uint64
	stack   []encFrame
	written int
}

// NewEncoder creates an Encoder writing to w.
func NewEncoder(w io.Writer, s *aterm.Store) *Encoder {
	return &Encoder{
		s:       s,
		w:       bufio.NewWriter(w),
		terms:   make(map[aterm.Term]uint64),
		symbols: make(map[afun.Symbol]uint64),
	}
}

// Encode appends t to the stream and flushes it.
func (e *Encoder) Encode(t aterm.Term) error {
	if !e.s.Valid(t) {
		return aterm.ErrStaleHandle
	}
	buf := e.buf[:0]
	if !e.started {
		buf = append(buf, format.BinaryMagic)
		e.started = true
	}
	clear(e.terms)
	clear(e.symbols)
	buf = e.encode(buf, t)
	e.buf = buf
	if _, err := e.w.Write(buf); err != nil {
		return err
	}
	e.written += len(buf)
	return e.w.Flush()
}

// Written returns the number of bytes emitted so far.
func (e *Encoder) Written() int { return e.written }

// encFrame is a term whose children are still being written. For a list,
// t is the rest of the list.
type encFrame struct {
	t    aterm.Term
	list bool
	i, n int
}

// encode writes root depth first with an explicit stack, so nesting is
// bounded by memory rather than by the goroutine stack.
func (e *Encoder) encode(buf []byte, root aterm.Term) []byte {
	s := e.s
	stack := e.stack[:0]
	next := root
	for {
		var f encFrame
		buf, f = e.node(buf, next)
		if f.n > 0 {
			stack = append(stack, f)
		}
		for len(stack) > 0 && stack[len(stack)-1].i == stack[len(stack)-1].n {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			e.stack = stack
			return buf
		}
		top := &stack[len(stack)-1]
		if top.list {
			next = s.Head(top.t)
			top.t = s.Tail(top.t)
		} else {
			next = s.Child(top.t, top.i)
		}
		top.i++
	}
}

// node writes the header of t and returns the frame for its children.
func (e *Encoder) node(buf []byte, t aterm.Term) ([]byte, encFrame) {
	if id, ok := e.terms[t]; ok {
		buf = append(buf, format.SharedFlag)
		return format.AppendUvarint(buf, id), encFrame{}
	}
	e.terms[t] = uint64(len(e.terms))

	s := e.s
	switch s.Kind(t) {
	case aterm.KindInt:
		buf = append(buf, format.TypeInt)
		return format.AppendUvarint(buf, uint64(s.IntValue(t))), encFrame{}
	case aterm.KindBlob:
		data := s.BlobData(t)
		buf = append(buf, format.TypeBlob)
		buf = format.AppendUvarint(buf, uint64(len(data)))
		return append(buf, data...), encFrame{}
	case aterm.KindPlaceholder:
		return append(buf, format.TypePlaceholder), encFrame{t: t, n: 1}
	case aterm.KindList:
		n := s.ListLen(t)
		buf = append(buf, format.TypeList)
		return format.AppendUvarint(buf, uint64(n)), encFrame{t: t, list: true, n: n}
	}

	sym := s.SymbolOf(t)
	if id, ok := e.symbols[sym]; ok {
		buf = append(buf, format.TypeAppl|format.SymSharedFlag)
		buf = format.AppendUvarint(buf, id)
	} else {
		e.symbols[sym] = uint64(len(e.symbols))
		header := format.TypeAppl
		if s.SymbolQuoted(sym) {
			header |= format.QuotedFlag
		}
		name := s.SymbolName(sym)
		buf = append(buf, header)
		buf = format.AppendUvarint(buf, uint64(s.SymbolArity(sym)))
		buf = format.AppendUvarint(buf, uint64(len(name)))
		buf = append(buf, name...)
	}
	return buf, encFrame{t: t, n: s.Arity(t)}
}

// Marshal encodes t as a complete single-term file.
func Marshal(s *aterm.Store, t aterm.Term) ([]byte, error) {
	var out bytes.Buffer
	if err := NewEncoder(&out, s).Encode(t); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
