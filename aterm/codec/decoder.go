package codec

import (
	"io"

	"github.com/joshuapare/atermkit/aterm"
	"github.com/joshuapare/atermkit/aterm/afun"
	"github.com/joshuapare/atermkit/internal/format"
)

// Decoder reads terms from an in-memory file into a store.
type Decoder struct {
	s       *aterm.Store
	data    []byte
	pos     int
	started bool

	terms   []aterm.Term // by term id; 0 while under construction
	stack   []aterm.Term // children awaiting their parent
	symbols []afun.Symbol
	frames  []decFrame
}

// NewDecoder creates a Decoder over data, which must stay unmodified while
// the Decoder is in use.
func NewDecoder(s *aterm.Store, data []byte) *Decoder {
	return &Decoder{s: s, data: data}
}

// Offset returns the position of the next unread byte.
func (d *Decoder) Offset() int { return d.pos }

// Next decodes the next term. It returns io.EOF after the last one. The
// result is not protected.
func (d *Decoder) Next() (aterm.Term, error) {
	if !d.started {
		if len(d.data) == 0 || d.data[0] != format.BinaryMagic {
			return 0, malformed(0, "missing magic byte")
		}
		d.pos = 1
		d.started = true
	}
	if d.pos == len(d.data) {
		return 0, io.EOF
	}

	terms := d.s.ProtectSlice(&d.terms)
	stack := d.s.ProtectSlice(&d.stack)
	defer func() {
		_ = stack.Release()
		_ = terms.Release()
		for i := len(d.symbols) - 1; i >= 0; i-- {
			_ = d.s.UnprotectSymbol(d.symbols[i])
		}
		d.terms, d.stack, d.symbols = d.terms[:0], d.stack[:0], d.symbols[:0]
	}()
	return d.decode()
}

// decFrame is a compound term whose children are still being read.
type decFrame struct {
	typ  byte
	sym  afun.Symbol
	id   int // slot in d.terms, filled once built
	base int // first child in d.stack
	left int
}

// decode reads one term with an explicit stack. Each nesting level uses at
// least one input byte, so depth is bounded by the input.
func (d *Decoder) decode() (aterm.Term, error) {
	frames := d.frames[:0]
	defer func() { d.frames = frames[:0] }()
	for {
		t, f, err := d.node()
		if err != nil {
			return 0, err
		}
		if f.typ != 0 {
			if f.left > 0 {
				frames = append(frames, f)
				continue
			}
			if t, err = d.build(f); err != nil {
				return 0, err
			}
		}
		for {
			if len(frames) == 0 {
				return t, nil
			}
			top := &frames[len(frames)-1]
			d.stack = append(d.stack, t)
			if top.left--; top.left > 0 {
				break
			}
			frames = frames[:len(frames)-1]
			if t, err = d.build(*top); err != nil {
				return 0, err
			}
		}
	}
}

// node reads one header. Leaves and back-references come back complete;
// a compound term comes back as a frame.
func (d *Decoder) node() (aterm.Term, decFrame, error) {
	off := d.pos
	h, err := d.readByte()
	if err != nil {
		return 0, decFrame{}, err
	}
	if h&format.SharedFlag != 0 {
		if h != format.SharedFlag {
			return 0, decFrame{}, malformed(off, "flags %#x on back-reference", h)
		}
		id, err := d.uvarint()
		if err != nil {
			return 0, decFrame{}, err
		}
		if id >= uint64(len(d.terms)) {
			return 0, decFrame{}, backReference(off, "term", id, uint64(len(d.terms)))
		}
		if d.terms[id] == 0 {
			return 0, decFrame{}, malformed(off, "back-reference to enclosing term %d", id)
		}
		return d.terms[id], decFrame{}, nil
	}

	typ := h & format.TypeMask
	if typ != format.TypeAppl && h&(format.SymSharedFlag|format.QuotedFlag) != 0 {
		return 0, decFrame{}, malformed(off, "symbol flags on type %d", typ)
	}
	id := len(d.terms)
	d.terms = append(d.terms, 0)
	f := decFrame{typ: typ, id: id, base: len(d.stack)}

	var t aterm.Term
	switch typ {
	case format.TypeInt:
		v, err := d.uvarint()
		if err != nil {
			return 0, decFrame{}, err
		}
		if t, err = d.s.MakeInt(int64(v)); err != nil {
			return 0, decFrame{}, err
		}
	case format.TypeBlob:
		data, err := d.readBytes()
		if err != nil {
			return 0, decFrame{}, err
		}
		if t, err = d.s.MakeBlob(data); err != nil {
			return 0, decFrame{}, err
		}
	case format.TypePlaceholder:
		f.left = 1
		return 0, f, nil
	case format.TypeList:
		if f.left, err = d.count("list length"); err != nil {
			return 0, decFrame{}, err
		}
		return 0, f, nil
	case format.TypeAppl:
		if f.sym, err = d.symbol(h); err != nil {
			return 0, decFrame{}, err
		}
		f.left = d.s.SymbolArity(f.sym)
		return 0, f, nil
	default:
		return 0, decFrame{}, malformed(off, "unknown term type %d", typ)
	}
	d.terms[id] = t
	return t, decFrame{}, nil
}

// build constructs the term of a frame whose children are all on d.stack.
func (d *Decoder) build(f decFrame) (aterm.Term, error) {
	kids := d.stack[f.base:]
	var t aterm.Term
	var err error
	switch f.typ {
	case format.TypePlaceholder:
		t, err = d.s.MakePlaceholder(kids[0])
	case format.TypeList:
		t, err = d.s.MakeList(kids...)
	default:
		t, err = d.s.MakeAppl(f.sym, kids...)
	}
	d.stack = d.stack[:f.base]
	if err != nil {
		return 0, err
	}
	d.terms[f.id] = t
	return t, nil
}

func (d *Decoder) symbol(h byte) (afun.Symbol, error) {
	off := d.pos
	if h&format.SymSharedFlag != 0 {
		id, err := d.uvarint()
		if err != nil {
			return 0, err
		}
		if id >= uint64(len(d.symbols)) {
			return 0, backReference(off, "symbol", id, uint64(len(d.symbols)))
		}
		return d.symbols[id], nil
	}
	arity, err := d.count("arity")
	if err != nil {
		return 0, err
	}
	name, err := d.readBytes()
	if err != nil {
		return 0, err
	}
	sym, err := d.s.Symbol(string(name), arity, h&format.QuotedFlag != 0)
	if err != nil {
		return 0, malformedCause(off, "bad symbol", err)
	}
	if err := d.s.ProtectSymbol(sym); err != nil {
		return 0, err
	}
	d.symbols = append(d.symbols, sym)
	return sym, nil
}

// count reads an element count; each element needs at least one byte.
func (d *Decoder) count(what string) (int, error) {
	off := d.pos
	n, err := d.uvarint()
	if err != nil {
		return 0, err
	}
	if n > uint64(len(d.data)-d.pos) {
		return 0, malformed(off, "%s %d exceeds remaining input", what, n)
	}
	return int(n), nil
}

func (d *Decoder) readBytes() ([]byte, error) {
	off := d.pos
	n, err := d.uvarint()
	if err != nil {
		return nil, err
	}
	if n > uint64(len(d.data)-d.pos) {
		return nil, malformed(off, "length %d exceeds remaining input", n)
	}
	b := d.data[d.pos : d.pos+int(n)]
	d.pos += int(n)
	return b, nil
}

func (d *Decoder) readByte() (byte, error) {
	if d.pos >= len(d.data) {
		return 0, malformedCause(d.pos, "unexpected end of input", format.ErrTruncated)
	}
	b := d.data[d.pos]
	d.pos++
	return b, nil
}

func (d *Decoder) uvarint() (uint64, error) {
	v, n, err := format.Uvarint(d.data[d.pos:])
	if err != nil {
		return 0, malformedCause(d.pos, "bad varint", err)
	}
	d.pos += n
	return v, nil
}

// Unmarshal decodes a file holding exactly one term.
func Unmarshal(s *aterm.Store, data []byte) (aterm.Term, error) {
	d := NewDecoder(s, data)
	t, err := d.Next()
	if err == io.EOF {
		return 0, malformed(d.pos, "no term")
	}
	if err != nil {
		return 0, err
	}
	if d.pos != len(data) {
		return 0, malformed(d.pos, "%d trailing bytes", len(data)-d.pos)
	}
	return t, nil
}
