package stream

import (
	"io"
	"math"

	"github.com/joshuapare/atermkit/aterm"
	"github.com/joshuapare/atermkit/aterm/afun"
	"github.com/joshuapare/atermkit/internal/format"
)

// Reader decodes a compressed stream into a store. Terms it returns stay
// protected until Close.
type Reader struct {
	coder
	s       *aterm.Store
	br      *bitReader
	table   []aterm.Term
	stack   []aterm.Term
	symbols []afun.Symbol
	frames  []rframe
	regs    [2]*aterm.Registration
	done    bool
	closed  bool
}

// NewReader checks the stream header and returns a Reader.
func NewReader(s *aterm.Store, r io.Reader) (*Reader, error) {
	sr := &Reader{s: s, br: newBitReader(r)}
	head, err := sr.br.readRaw(len(format.StreamMagic) + 1)
	if err != nil {
		return nil, err
	}
	if string(head[:len(format.StreamMagic)]) != format.StreamMagic {
		return nil, malformed(0, "bad magic %q", head[:len(format.StreamMagic)])
	}
	if v := head[len(format.StreamMagic)]; v != format.StreamVersion {
		return nil, malformed(len(format.StreamMagic), "unsupported version %d", v)
	}
	sr.regs[0] = s.ProtectSlice(&sr.table)
	sr.regs[1] = s.ProtectSlice(&sr.stack)
	return sr, nil
}

// Next returns the next term, or io.EOF after the last one.
func (r *Reader) Next() (aterm.Term, error) {
	if r.closed {
		return 0, ErrClosed
	}
	if r.done {
		return 0, io.EOF
	}
	more, err := r.br.readBit()
	if err != nil {
		return 0, err
	}
	if !more {
		r.done = true
		return 0, io.EOF
	}
	t, err := r.decode()
	r.stack = r.stack[:0]
	return t, err
}

// TableLen returns the number of distinct nodes decoded.
func (r *Reader) TableLen() int { return len(r.table) }

// Close releases every term and symbol the reader protected.
func (r *Reader) Close() error {
	if r.closed {
		return ErrClosed
	}
	r.closed = true
	var err error
	for _, reg := range r.regs {
		if rerr := reg.Release(); err == nil {
			err = rerr
		}
	}
	for i := len(r.symbols) - 1; i >= 0; i-- {
		if uerr := r.s.UnprotectSymbol(r.symbols[i]); err == nil {
			err = uerr
		}
	}
	r.table, r.stack, r.symbols = nil, nil, nil
	return err
}

// rframe is a node whose children are still being read.
type rframe struct {
	kind uint64
	sym  afun.Symbol
	base int // first child in r.stack
	left int
}

// decode reads one term with an explicit stack. Each nesting level uses at
// least one input bit, so depth is bounded by the input.
func (r *Reader) decode() (aterm.Term, error) {
	frames := r.frames[:0]
	defer func() { r.frames = frames[:0] }()
	for {
		t, f, open, err := r.node()
		if err != nil {
			return 0, err
		}
		if open {
			frames = append(frames, f)
		}
		for len(frames) > 0 {
			top := &frames[len(frames)-1]
			if !open {
				r.stack = append(r.stack, t)
				top.left--
			}
			if top.left > 0 {
				break
			}
			frames = frames[:len(frames)-1]
			if t, err = r.build(*top); err != nil {
				return 0, err
			}
			open = false
		}
		if len(frames) == 0 {
			return t, nil
		}
	}
}

// node reads one node header. Leaves and references come back complete;
// anything with children comes back as an open frame.
func (r *Reader) node() (aterm.Term, rframe, bool, error) {
	off := r.br.off
	ref, err := r.br.readBit()
	if err != nil {
		return 0, rframe{}, false, err
	}
	if ref {
		t, err := r.reference(off)
		return t, rframe{}, false, err
	}

	kind, err := r.br.readBits(kindBits)
	if err != nil {
		return 0, rframe{}, false, err
	}
	f := rframe{kind: kind, base: len(r.stack)}
	var t aterm.Term
	switch kind {
	case kindInt:
		v, err := r.br.readCode(&r.intCtx)
		if err != nil {
			return 0, rframe{}, false, err
		}
		if t, err = r.s.MakeInt(format.UnZigZag(v)); err != nil {
			return 0, rframe{}, false, err
		}
	case kindBlob:
		n, err := r.length()
		if err != nil {
			return 0, rframe{}, false, err
		}
		data, err := r.br.readBytes(n)
		if err != nil {
			return 0, rframe{}, false, err
		}
		if t, err = r.s.MakeBlob(data); err != nil {
			return 0, rframe{}, false, err
		}
	case kindPlaceholder:
		f.left = 1
		return 0, f, true, nil
	case kindList:
		if f.left, err = r.length(); err != nil {
			return 0, rframe{}, false, err
		}
		return 0, f, true, nil
	case kindAppl:
		if f.sym, err = r.symbol(off); err != nil {
			return 0, rframe{}, false, err
		}
		f.left = r.s.SymbolArity(f.sym)
		return 0, f, true, nil
	default:
		return 0, rframe{}, false, malformed(off, "unknown node kind %d", kind)
	}
	r.add(t)
	return t, rframe{}, false, nil
}

// build constructs the node of a frame whose children are all on r.stack.
func (r *Reader) build(f rframe) (aterm.Term, error) {
	kids := r.stack[f.base:]
	var t aterm.Term
	var err error
	switch f.kind {
	case kindPlaceholder:
		t, err = r.s.MakePlaceholder(kids[0])
	case kindList:
		t, err = r.s.MakeList(kids...)
	default:
		t, err = r.s.MakeAppl(f.sym, kids...)
	}
	r.stack = r.stack[:f.base]
	if err != nil {
		return 0, err
	}
	r.add(t)
	return t, nil
}

func (r *Reader) add(t aterm.Term) {
	idx := len(r.table)
	r.table = append(r.table, t)
	r.touch(idx)
}

// reference reads a delta against the second most recently used index.
func (r *Reader) reference(off int) (aterm.Term, error) {
	zz, err := r.br.readCode(&r.refCtx)
	if err != nil {
		return 0, err
	}
	delta := format.UnZigZag(zz)
	if delta > math.MaxInt32 || delta < math.MinInt32 {
		return 0, backReference(off, "node", delta, len(r.table))
	}
	idx := int64(r.last[1]) + delta
	if idx < 0 || idx >= int64(len(r.table)) {
		return 0, backReference(off, "node", idx, len(r.table))
	}
	r.touch(int(idx))
	return r.table[idx], nil
}

func (r *Reader) symbol(off int) (afun.Symbol, error) {
	shared, err := r.br.readBit()
	if err != nil {
		return 0, err
	}
	if shared {
		id, err := r.br.readCode(&r.symCtx)
		if err != nil {
			return 0, err
		}
		if id >= uint64(len(r.symbols)) {
			return 0, backReference(off, "symbol", int64(min(id, math.MaxInt64)), len(r.symbols))
		}
		return r.symbols[id], nil
	}
	arity, err := r.br.readCode(&r.arityCtx)
	if err != nil {
		return 0, err
	}
	if arity > math.MaxInt32 {
		return 0, malformed(off, "arity %d", arity)
	}
	quoted, err := r.br.readBit()
	if err != nil {
		return 0, err
	}
	n, err := r.length()
	if err != nil {
		return 0, err
	}
	name, err := r.br.readBytes(n)
	if err != nil {
		return 0, err
	}
	sym, err := r.s.Symbol(string(name), int(arity), quoted)
	if err != nil {
		return 0, &aterm.Error{Kind: aterm.ErrKindMalformed, Msg: "stream: bad symbol", Err: err}
	}
	if err := r.s.ProtectSymbol(sym); err != nil {
		return 0, err
	}
	r.symbols = append(r.symbols, sym)
	return sym, nil
}

// length reads a list, blob or name length.
func (r *Reader) length() (int, error) {
	off := r.br.off
	n, err := r.br.readCode(&r.lenCtx)
	if err != nil {
		return 0, err
	}
	if n > math.MaxInt32 {
		return 0, malformed(off, "length %d", n)
	}
	return int(n), nil
}
