package afun

import "errors"

var (
	// ErrArity indicates an arity outside [0, MaxArity].
	ErrArity = errors.New("afun: arity out of range")

	// ErrStale indicates a symbol id whose slot was reclaimed or never issued.
	ErrStale = errors.New("afun: stale symbol")

	// ErrNotProtected indicates Unprotect of a symbol with no outstanding protection.
	ErrNotProtected = errors.New("afun: symbol is not protected")

	// ErrPermanent indicates an attempt to unprotect a builtin symbol.
	ErrPermanent = errors.New("afun: builtin symbols are permanently protected")

	// ErrFull indicates the slot space of 2^24 symbols is exhausted.
	ErrFull = errors.New("afun: symbol table full")
)
