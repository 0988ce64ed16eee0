package main

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joshuapare/atermkit/aterm"
	"github.com/joshuapare/atermkit/aterm/codec"
	"github.com/joshuapare/atermkit/aterm/codec/stream"
	"github.com/joshuapare/atermkit/internal/format"
)

const (
	formatBinary = "binary"
	formatStream = "stream"
)

// detectFormat reads the leading magic of the file at path.
func detectFormat(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	head := make([]byte, len(format.StreamMagic))
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	head = head[:n]
	switch {
	case bytes.HasPrefix(head, []byte(format.StreamMagic)):
		return formatStream, nil
	case n > 0 && head[0] == format.BinaryMagic:
		return formatBinary, nil
	}
	return "", fmt.Errorf("%s: not a term file", path)
}

// loaded is the content of one term file held in a store.
type loaded struct {
	Format string
	Terms  []aterm.Term
	reg    *aterm.Registration
}

// Release unprotects the loaded terms.
func (l *loaded) Release() { l.reg.Release() }

// load reads every term of path into s. The terms stay protected until
// Release.
func load(s *aterm.Store, path string) (*loaded, error) {
	kind, err := detectFormat(path)
	if err != nil {
		return nil, err
	}
	l := &loaded{Format: kind}
	l.reg = s.ProtectSlice(&l.Terms)

	switch kind {
	case formatBinary:
		terms, err := codec.ReadFile(s, path)
		if err != nil {
			l.Release()
			return nil, err
		}
		// No construction happens between ReadFile's return and this copy.
		l.Terms = terms
	case formatStream:
		if err := readStream(s, path, &l.Terms); err != nil {
			l.Release()
			return nil, err
		}
	}
	return l, nil
}

func readStream(s *aterm.Store, path string, out *[]aterm.Term) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r, err := stream.NewReader(s, bufio.NewReader(f))
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	defer r.Close()
	for {
		t, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		*out = append(*out, t)
	}
}
