package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/joshuapare/atermkit/aterm"
	"github.com/joshuapare/atermkit/internal/format"
	"github.com/joshuapare/atermkit/internal/mmfile"
	"github.com/joshuapare/atermkit/internal/writer"
)

// ReadFile decodes every term of the file at path. The terms are protected
// while the file is decoded and unprotected on return.
func ReadFile(s *aterm.Store, path string) (out []aterm.Term, err error) {
	data, unmap, err := mmfile.Map(path)
	if err != nil {
		return nil, fmt.Errorf("codec: open %s: %w", path, err)
	}
	defer func() {
		if cerr := unmap(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	reg := s.ProtectSlice(&out)
	defer reg.Release()
	d := NewDecoder(s, data)
	for {
		t, err := d.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
}

// WriteFile encodes terms into the file at path, replacing it atomically.
func WriteFile(s *aterm.Store, path string, terms ...aterm.Term) error {
	return Write(&writer.FileWriter{Path: path}, s, terms...)
}

// Write encodes terms as one file and hands it to sink.
func Write(sink writer.Sink, s *aterm.Store, terms ...aterm.Term) error {
	var buf bytes.Buffer
	enc := NewEncoder(&buf, s)
	for _, t := range terms {
		if err := enc.Encode(t); err != nil {
			return err
		}
	}
	if len(terms) == 0 {
		buf.WriteByte(format.BinaryMagic)
	}
	return sink.WriteTerms(buf.Bytes())
}
