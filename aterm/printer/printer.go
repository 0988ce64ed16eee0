// Package printer renders terms in ATerm text syntax.
//
//	f(1,"quoted name",[a,b],<g(x)>,<blob:deadbeef>)
package printer

import (
	"bufio"
	"encoding/hex"
	"io"
	"strconv"
	"strings"

	"github.com/joshuapare/atermkit/aterm"
)

// Options controls printing behavior.
type Options struct {
	// Indent is the number of spaces per nesting level. Zero prints the
	// whole term on one line.
	Indent int

	// MaxBlobBytes truncates blob payloads to this many bytes, followed by
	// "...". Zero prints the full payload.
	MaxBlobBytes int
}

// Printer writes terms of one store.
type Printer struct {
	s    *aterm.Store
	w    *bufio.Writer
	opts Options
}

// New creates a printer writing to w.
func New(w io.Writer, s *aterm.Store, opts Options) *Printer {
	return &Printer{s: s, w: bufio.NewWriter(w), opts: opts}
}

// Print writes t without a trailing newline.
func (p *Printer) Print(t aterm.Term) error {
	p.term(t, 0)
	return p.w.Flush()
}

// Write renders t to w on one line.
func Write(w io.Writer, s *aterm.Store, t aterm.Term) error {
	return New(w, s, Options{}).Print(t)
}

// String renders t on one line.
func String(s *aterm.Store, t aterm.Term) string {
	var b strings.Builder
	_ = Write(&b, s, t)
	return b.String()
}

func (p *Printer) term(t aterm.Term, depth int) {
	s := p.s
	switch s.Kind(t) {
	case aterm.KindInt:
		p.w.WriteString(strconv.FormatInt(s.IntValue(t), 10))
	case aterm.KindBlob:
		p.blob(s.BlobData(t))
	case aterm.KindPlaceholder:
		p.w.WriteByte('<')
		p.term(s.Child(t, 0), depth)
		p.w.WriteByte('>')
	case aterm.KindList:
		p.w.WriteByte('[')
		first := true
		for e := range s.ListElems(t) {
			if !first {
				p.w.WriteByte(',')
			}
			first = false
			p.newline(depth + 1)
			p.term(e, depth+1)
		}
		if !first {
			p.newline(depth)
		}
		p.w.WriteByte(']')
	default:
		sym := s.SymbolOf(t)
		p.name(s.SymbolName(sym), s.SymbolQuoted(sym))
		n := s.Arity(t)
		if n == 0 {
			return
		}
		p.w.WriteByte('(')
		for i := range n {
			if i > 0 {
				p.w.WriteByte(',')
			}
			p.newline(depth + 1)
			p.term(s.Child(t, i), depth+1)
		}
		p.newline(depth)
		p.w.WriteByte(')')
	}
}

func (p *Printer) newline(depth int) {
	if p.opts.Indent <= 0 {
		return
	}
	p.w.WriteByte('\n')
	p.w.WriteString(strings.Repeat(" ", depth*p.opts.Indent))
}

func (p *Printer) blob(data []byte) {
	p.w.WriteString("<blob:")
	truncated := false
	if lim := p.opts.MaxBlobBytes; lim > 0 && len(data) > lim {
		data, truncated = data[:lim], true
	}
	p.w.WriteString(hex.EncodeToString(data))
	if truncated {
		p.w.WriteString("...")
	}
	p.w.WriteByte('>')
}

func (p *Printer) name(name string, quoted bool) {
	if !quoted {
		p.w.WriteString(name)
		return
	}
	p.w.WriteString(Quote(name))
}

// Quote returns name in double quotes with ATerm escapes applied.
func Quote(name string) string {
	var b strings.Builder
	b.Grow(len(name) + 2)
	b.WriteByte('"')
	for i := 0; i < len(name); i++ {
		switch c := name[i]; c {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}
