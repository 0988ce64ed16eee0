// Package aterm implements a maximally shared term store.
//
// Every term is hash-consed: constructing a term structurally equal to a
// live one returns the existing handle, so equality is handle comparison.
// Cells come from a size-class allocator (package alloc) and are reclaimed
// by a mark-sweep collector that runs when a pool is exhausted. Terms held
// across construction calls must be protected, and so must symbols no live
// term uses yet:
//
//	s, _ := aterm.New(aterm.DefaultConfig())
//	f, _ := s.Symbol("f", 2, false)
//	_ = s.ProtectSymbol(f)
//	defer s.UnprotectSymbol(f)
//	a, _ := s.MakeInt(1)
//	r := s.Protect(a)
//	defer r.Release()
//	t, _ := s.MakeAppl(f, a, a)
//
// A Store is owned by one goroutine. Snapshot is the only method that may
// be called from others.
package aterm
