// Package index provides term-keyed containers that stay valid across
// collections.
//
// # Containers
//
// IndexedSet: assigns each distinct term a dense, stable index
//   - Put returns the index and whether the term was new
//   - Remove frees the index; later Puts reuse freed indexes first
//
// Table: a term-to-term map
//   - Put overwrites, Get reports presence, Remove deletes
//
// Both register with their Store when created and act as collector roots
// for every term they hold. Close unregisters them; using a container
// after Close panics, and so does putting a term that is not live.
//
//	set := index.NewIndexedSet(s, 64)
//	defer set.Close()
//	i, isNew := set.Put(t)
package index
