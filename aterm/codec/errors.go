package codec

import (
	"fmt"

	"github.com/joshuapare/atermkit/aterm"
)

func malformed(off int, format string, args ...any) error {
	return &aterm.Error{
		Kind: aterm.ErrKindMalformed,
		Msg:  fmt.Sprintf("offset %d: %s", off, fmt.Sprintf(format, args...)),
	}
}

func malformedCause(off int, msg string, cause error) error {
	return &aterm.Error{Kind: aterm.ErrKindMalformed, Msg: fmt.Sprintf("offset %d: %s", off, msg), Err: cause}
}

func backReference(off int, kind string, id, have uint64) error {
	return &aterm.Error{
		Kind: aterm.ErrKindBackReference,
		Msg:  fmt.Sprintf("offset %d: %s id %d with %d defined", off, kind, id, have),
	}
}
