package aterm

import "errors"

// ErrKind classifies errors so callers can branch on intent rather than text.
type ErrKind int

const (
	ErrKindArity         ErrKind = iota // children do not match the symbol's arity
	ErrKindOutOfMemory                  // allocation failed after collect-and-retry
	ErrKindProtocol                     // protection or collector discipline violated
	ErrKindMalformed                    // serialized input is not a valid term stream
	ErrKindBackReference                // serialized back-reference points past the table
	ErrKindStale                        // handle names a reclaimed term or symbol
	ErrKindType                         // operand has the wrong term kind
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindArity:
		return "arity"
	case ErrKindOutOfMemory:
		return "out-of-memory"
	case ErrKindProtocol:
		return "protocol"
	case ErrKindMalformed:
		return "malformed"
	case ErrKindBackReference:
		return "back-reference"
	case ErrKindStale:
		return "stale"
	case ErrKindType:
		return "type"
	default:
		return "unknown"
	}
}

// Error is a typed error with an optional underlying cause.
type Error struct {
	Kind ErrKind
	Msg  string
	Err  error // optional underlying cause
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return "aterm: " + e.Msg + ": " + e.Err.Error()
	}
	return "aterm: " + e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind, so errors.Is(err, ErrArityMismatch)
// holds for every arity failure regardless of message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || t == nil || e == nil {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels commonly returned by the store and the codecs.
var (
	// ErrArityMismatch indicates a child count that differs from the symbol's arity.
	ErrArityMismatch = &Error{Kind: ErrKindArity, Msg: "arity mismatch"}
	// ErrOutOfMemory indicates the allocator could not satisfy a request.
	ErrOutOfMemory = &Error{Kind: ErrKindOutOfMemory, Msg: "out of memory"}
	// ErrProtocolViolation indicates misuse of protection or re-entrant construction.
	ErrProtocolViolation = &Error{Kind: ErrKindProtocol, Msg: "protocol violation"}
	// ErrMalformedStream indicates invalid serialized input.
	ErrMalformedStream = &Error{Kind: ErrKindMalformed, Msg: "malformed term stream"}
	// ErrBackReferenceOutOfRange indicates a back-reference to an entry not yet written.
	ErrBackReferenceOutOfRange = &Error{Kind: ErrKindBackReference, Msg: "back-reference out of range"}
	// ErrStaleHandle indicates a term or symbol handle that is no longer live.
	ErrStaleHandle = &Error{Kind: ErrKindStale, Msg: "stale handle"}
	// ErrNotList indicates a list operation on a term that is not a list.
	ErrNotList = &Error{Kind: ErrKindType, Msg: "term is not a list"}
)

func newError(kind ErrKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: cause}
}
