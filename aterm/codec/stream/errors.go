package stream

import (
	"errors"
	"fmt"
	"io"

	"github.com/joshuapare/atermkit/aterm"
)

// ErrClosed is returned by Writer and Reader methods after Close.
var ErrClosed = errors.New("stream: closed")

func malformed(off int, format string, args ...any) error {
	return &aterm.Error{
		Kind: aterm.ErrKindMalformed,
		Msg:  fmt.Sprintf("stream byte %d: %s", off, fmt.Sprintf(format, args...)),
	}
}

func truncated(off int, cause error) error {
	if errors.Is(cause, io.EOF) {
		cause = io.ErrUnexpectedEOF
	}
	return &aterm.Error{Kind: aterm.ErrKindMalformed, Msg: fmt.Sprintf("stream byte %d: truncated", off), Err: cause}
}

func backReference(off int, what string, idx int64, have int) error {
	return &aterm.Error{
		Kind: aterm.ErrKindBackReference,
		Msg:  fmt.Sprintf("stream byte %d: %s index %d with %d defined", off, what, idx, have),
	}
}
