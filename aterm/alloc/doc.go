// Package alloc provides size-classed block allocation for term cells.
//
// # Overview
//
// Every term cell lives inside a block. A block holds cells of exactly one
// size class, where the size class is the number of uint32 words a cell
// occupies (header plus payload). Each size class owns a pool: the ordered
// list of its blocks, a bump pointer into the most recent block and a free
// list threaded through reclaimed cells.
//
// # Cell References
//
// A Ref names one cell slot:
//
//	ref = (block << BlockShift | slot) + 1
//
// so the zero Ref is never a valid cell. Refs are stable for a cell's
// lifetime; the allocator never moves cells.
//
// # Side Tables
//
// Collector metadata is kept outside the cell words, in per-block side
// tables indexed by slot:
//
//   - mark bit: set during marking, cleared by Sweep
//   - old bit: set on cells that survived a cycle (generational mode)
//   - link: free-list chain while free, owner hash-chain while allocated
//   - generation: 32 bits, bumped every time the slot is reclaimed
//
// # Exhaustion
//
// When a pool has neither bump space nor free cells, the allocator asks its
// growth policy whether to run the registered Collector or to grow the pool
// by one block. Growth reuses reclaimed empty blocks first. ErrOutOfMemory is
// only returned when MaxBlocks is reached and a collection freed nothing.
//
// # Usage Example
//
//	a, err := alloc.New(alloc.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	a.SetCollector(store)
//
//	ref, err := a.Alloc(3)
//	if err != nil {
//	    return err
//	}
//	cell := a.Cell(ref)
//	cell[0] = header // must be non-zero: a zero header marks a free cell
//
// A cell whose first word is zero is treated as free by iteration and
// sweeping, so the owner must write a non-zero header before the next
// allocation.
package alloc
