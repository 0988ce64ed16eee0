// Package verify checks the structural invariants of a term store.
//
// Validation categories:
//   - Sharing: no two live cells are structurally equal
//   - Children: every child of a live term is itself live
//   - Symbols: every application's symbol is live and matches its arity
//   - Table: every live term is reachable through the hash-consing table
//
// Run all checks in one call, typically after a collection in tests:
//
//	s.Collect()
//	if err := verify.Store(s); err != nil {
//	    t.Fatal(err)
//	}
package verify
