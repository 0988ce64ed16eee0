package aterm

import (
	"github.com/joshuapare/atermkit/aterm/afun"
	"github.com/joshuapare/atermkit/aterm/alloc"
)

// Term is a handle to a canonical term in one Store. Two live terms of the
// same store are structurally equal exactly when their handles are equal.
// The zero Term is never valid.
type Term uint64

func makeTerm(ref alloc.Ref, gen uint32) Term { return Term(uint64(gen)<<32 | uint64(ref)) }

func (t Term) ref() alloc.Ref { return alloc.Ref(uint32(t)) }
func (t Term) gen() uint32    { return uint32(t >> 32) }

// Kind is the externally visible type of a term.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindAppl
	KindInt
	KindList
	KindPlaceholder
	KindBlob
)

func (k Kind) String() string {
	switch k {
	case KindAppl:
		return "appl"
	case KindInt:
		return "int"
	case KindList:
		return "list"
	case KindPlaceholder:
		return "placeholder"
	case KindBlob:
		return "blob"
	default:
		return "invalid"
	}
}

// Cell layout. Word 0 is the header; a zero header marks a free cell.
//
//	appl:  [tagAppl | symbol index << 4, child refs...]
//	int:   [tagInt, low 32 bits, high 32 bits]
//	blob:  [tagBlob, payload slot]
const (
	tagAppl uint32 = 1
	tagInt  uint32 = 2
	tagBlob uint32 = 3

	tagBits = 4
	tagMask = 1<<tagBits - 1

	intWords  = 3
	blobWords = 2
)

func tagOf(header uint32) uint32 { return header & tagMask }

func applHeader(sym afun.Symbol) uint32 { return tagAppl | uint32(sym.Index())<<tagBits }

func symbolIndex(header uint32) int { return int(header >> tagBits) }

func applWords(arity int) int { return 1 + arity }

// hashWords combines the header and payload words of a candidate cell.
func hashWords(words []uint32) uint32 {
	h := words[0]
	for _, w := range words[1:] {
		h = h<<1 ^ h>>1 ^ w
	}
	return mix32(h)
}

// hashBlob hashes a blob header together with its payload bytes (FNV-1a).
func hashBlob(data []byte) uint32 {
	const (
		offset32 = 2166136261
		prime32  = 16777619
	)
	h := uint32(offset32) ^ tagBlob
	for _, b := range data {
		h ^= uint32(b)
		h *= prime32
	}
	return mix32(h ^ uint32(len(data)))
}

// mix32 is the murmur3 finalizer; bucket indexes take the low bits.
func mix32(h uint32) uint32 {
	h ^= h >> 16
	h *= 0x85ebca6b
	h ^= h >> 13
	h *= 0xc2b2ae35
	h ^= h >> 16
	return h
}
