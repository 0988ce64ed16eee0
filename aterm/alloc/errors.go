package alloc

import "errors"

var (
	// ErrOutOfMemory indicates the block limit was reached and a collection freed nothing.
	ErrOutOfMemory = errors.New("alloc: out of memory")

	// ErrBadRef indicates an invalid or out-of-range cell reference.
	ErrBadRef = errors.New("alloc: bad cell reference")

	// ErrBadClass indicates a size class below one word.
	ErrBadClass = errors.New("alloc: size class must be at least one word")

	// ErrNotAllocated indicates an attempt to free a cell that is already free.
	ErrNotAllocated = errors.New("alloc: cell is not allocated")
)
