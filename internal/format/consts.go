// Package format holds the wire constants and integer codings shared by the
// term codecs. It has no knowledge of stores; the codecs translate between
// these primitives and terms.
package format

// Header byte layout of the binary term format.
//
//	bit 7     shared: a back-reference, followed by a term id
//	bit 6     symbol shared: followed by a symbol id instead of the symbol
//	bit 5     quoted symbol
//	bits 0-3  term type
const (
	SharedFlag    byte = 0x80
	SymSharedFlag byte = 0x40
	QuotedFlag    byte = 0x20
	TypeMask      byte = 0x0f
)

// Term types carried in the low header bits.
const (
	TypeAppl        byte = 1
	TypeInt         byte = 2
	TypeList        byte = 4
	TypePlaceholder byte = 5
	TypeBlob        byte = 6
)

const (
	// BinaryMagic opens every binary term file.
	BinaryMagic byte = '?'

	// StreamMagic opens every compressed term stream, followed by StreamVersion.
	StreamMagic = "ATSC"
	// StreamVersion is the only compressed stream version understood.
	StreamVersion byte = 1

	// MaxVarintLen is the longest LEB128 encoding of a uint64.
	MaxVarintLen = 10
)
