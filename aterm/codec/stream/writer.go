package stream

import (
	"io"

	"github.com/joshuapare/atermkit/aterm"
	"github.com/joshuapare/atermkit/aterm/afun"
	"github.com/joshuapare/atermkit/internal/format"
)

// Node kinds, three bits each.
const (
	kindAppl uint64 = iota
	kindInt
	kindList
	kindPlaceholder
	kindBlob
	kindBits = 3
)

// coder holds the state both ends evolve identically.
type coder struct {
	refCtx, symCtx, arityCtx, lenCtx, intCtx context
	last                                     [2]int // most recently used table indexes
}

func (c *coder) touch(idx int) {
	c.last[1] = c.last[0]
	c.last[0] = idx
}

// Writer appends terms of one store to a compressed stream. The terms it
// has written stay protected until Close so later references remain sound.
type Writer struct {
	coder
	s       *aterm.Store
	bw      *bitWriter
	reg     *aterm.Registration
	index   map[aterm.Term]int
	symbols map[afun.Symbol]uint64
	table   []aterm.Term
	stack   []wframe
	terms   int
	closed  bool
}

// NewWriter writes the stream header to w and returns a Writer.
func NewWriter(w io.Writer, s *aterm.Store) (*Writer, error) {
	sw := &Writer{
		s:       s,
		bw:      newBitWriter(w),
		index:   make(map[aterm.Term]int),
		symbols: make(map[afun.Symbol]uint64),
	}
	sw.bw.writeBytes([]byte(format.StreamMagic))
	sw.bw.writeBits(uint64(format.StreamVersion), 8)
	if sw.bw.err != nil {
		return nil, sw.bw.err
	}
	sw.reg = s.ProtectSlice(&sw.table)
	return sw, nil
}

// Write appends t.
func (w *Writer) Write(t aterm.Term) error {
	if w.closed {
		return ErrClosed
	}
	if !w.s.Valid(t) {
		return aterm.ErrStaleHandle
	}
	w.bw.writeBit(true)
	w.encode(t)
	w.terms++
	return w.bw.err
}

// Terms returns the number of terms written.
func (w *Writer) Terms() int { return w.terms }

// TableLen returns the number of distinct nodes written.
func (w *Writer) TableLen() int { return len(w.table) }

// Close ends the stream, flushes it and releases the written terms.
func (w *Writer) Close() error {
	if w.closed {
		return ErrClosed
	}
	w.closed = true
	w.bw.writeBit(false)
	err := w.bw.flush()
	if rerr := w.reg.Release(); err == nil {
		err = rerr
	}
	w.index, w.symbols, w.table, w.stack = nil, nil, nil, nil
	return err
}

// wframe is a node whose children are still being written. For a list,
// rest is the part not yet visited.
type wframe struct {
	t, rest aterm.Term
	list    bool
	i, n    int
}

// encode writes root depth first with an explicit stack. Nodes enter the
// table after their children.
func (w *Writer) encode(root aterm.Term) {
	s := w.s
	stack := w.stack[:0]
	next := root
	for {
		if f, open := w.node(next); open {
			stack = append(stack, f)
		}
		for len(stack) > 0 && stack[len(stack)-1].i == stack[len(stack)-1].n {
			w.add(stack[len(stack)-1].t)
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			w.stack = stack
			return
		}
		top := &stack[len(stack)-1]
		if top.list {
			next = s.Head(top.rest)
			top.rest = s.Tail(top.rest)
		} else {
			next = s.Child(top.t, top.i)
		}
		top.i++
	}
}

// node writes the header of t. It reports a frame when t has children to
// follow; otherwise t is complete.
func (w *Writer) node(t aterm.Term) (wframe, bool) {
	if idx, ok := w.index[t]; ok {
		w.bw.writeBit(true)
		w.reference(idx)
		return wframe{}, false
	}
	w.bw.writeBit(false)

	s := w.s
	switch s.Kind(t) {
	case aterm.KindInt:
		w.bw.writeBits(kindInt, kindBits)
		w.bw.writeCode(&w.intCtx, format.ZigZag(s.IntValue(t)))
	case aterm.KindBlob:
		data := s.BlobData(t)
		w.bw.writeBits(kindBlob, kindBits)
		w.bw.writeCode(&w.lenCtx, uint64(len(data)))
		w.bw.writeBytes(data)
	case aterm.KindPlaceholder:
		w.bw.writeBits(kindPlaceholder, kindBits)
		return wframe{t: t, n: 1}, true
	case aterm.KindList:
		n := s.ListLen(t)
		w.bw.writeBits(kindList, kindBits)
		w.bw.writeCode(&w.lenCtx, uint64(n))
		return wframe{t: t, rest: t, list: true, n: n}, true
	default:
		w.bw.writeBits(kindAppl, kindBits)
		w.symbol(s.SymbolOf(t))
		return wframe{t: t, n: s.Arity(t)}, true
	}
	w.add(t)
	return wframe{}, false
}

func (w *Writer) add(t aterm.Term) {
	idx := len(w.table)
	w.table = append(w.table, t)
	w.index[t] = idx
	w.touch(idx)
}

// reference writes idx as its distance from the second most recently used
// table index.
func (w *Writer) reference(idx int) {
	w.bw.writeCode(&w.refCtx, format.ZigZag(int64(idx-w.last[1])))
	w.touch(idx)
}

func (w *Writer) symbol(sym afun.Symbol) {
	if id, ok := w.symbols[sym]; ok {
		w.bw.writeBit(true)
		w.bw.writeCode(&w.symCtx, id)
		return
	}
	w.symbols[sym] = uint64(len(w.symbols))
	name := w.s.SymbolName(sym)
	w.bw.writeBit(false)
	w.bw.writeCode(&w.arityCtx, uint64(w.s.SymbolArity(sym)))
	w.bw.writeBit(w.s.SymbolQuoted(sym))
	w.bw.writeCode(&w.lenCtx, uint64(len(name)))
	w.bw.writeBytes([]byte(name))
}
