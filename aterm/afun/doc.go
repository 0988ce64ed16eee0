// Package afun implements the function-symbol table: hash-consing of
// (name, arity, quoted) triples to canonical Symbol ids.
//
// # Overview
//
// A Symbol is the head of an application term. Interning the same triple
// twice returns the same Symbol for as long as the first one is live.
// Symbols are reclaimed by the store's collector: a symbol survives a sweep
// when it is marked (protected, or the head of a marked application) or
// still referenced by a live application cell.
//
// # Symbol Ids
//
// A Symbol packs a table slot in the low 24 bits and the slot's generation
// in the high 8 bits. Reusing a slot bumps its generation, so an id held
// across the reclamation of its symbol no longer resolves instead of
// aliasing the newcomer.
//
// # Hashing
//
// Slots are found through a chained hash table sized as a power of two:
//
//	h = arity * 3
//	for each byte c of name, sign-extended: h = 251*h + c
//	h = h * 7
//	bucket = h & (size - 1)
//
// The table keeps its free slots on a chain. When the chain is exhausted the
// slot array and the bucket array double and every live symbol is rehashed.
// A slot whose 8-bit generation is used up is retired instead of chained,
// so no id is ever handed out twice.
//
// # Protection
//
// Protect and Unprotect maintain a dedicated stack of protected symbols.
// Unprotect searches from the top and swaps the found entry with the last
// one, so the common strictly nested pattern costs O(1). Builtin symbols are
// permanent and cannot be unprotected.
package afun
