package alloc

import "math/bits"

// bitset is a fixed-size bit vector indexed by cell slot.
type bitset []uint64

func newBitset(n int) bitset { return make(bitset, (n+63)/64) }

func (b bitset) get(i int) bool { return b[i>>6]&(1<<(uint(i)&63)) != 0 }
func (b bitset) set(i int)      { b[i>>6] |= 1 << (uint(i) & 63) }
func (b bitset) clear(i int)    { b[i>>6] &^= 1 << (uint(i) & 63) }

func (b bitset) reset() {
	for i := range b {
		b[i] = 0
	}
}

func (b bitset) count() int {
	n := 0
	for _, w := range b {
		n += bits.OnesCount64(w)
	}
	return n
}

// block is one fixed-capacity run of cells of a single size class.
type block struct {
	words int      // cell width in words; 0 while unassigned
	cells int      // capacity in cells
	top   int      // cells handed out by bump allocation
	live  int      // allocated cells
	data  []uint32 // cells*words
	link  []Ref    // free-list or owner chain link per slot
	gen  []uint32 // reclaim generation per slot, kept across reassignment
	mark  bitset
	old   bitset
}

// assign prepares b to hold cells of the given width, reusing buffers when they fit.
func (b *block) assign(words, cells, maxCells int) {
	need := words * cells
	if cap(b.data) >= need {
		b.data = b.data[:need]
		for i := range b.data {
			b.data[i] = 0
		}
	} else {
		b.data = make([]uint32, need)
	}
	if b.link == nil {
		b.link = make([]Ref, maxCells)
		b.mark = newBitset(maxCells)
		b.old = newBitset(maxCells)
	} else {
		for i := range b.link {
			b.link[i] = NilRef
		}
		b.mark.reset()
		b.old.reset()
	}
	if b.gen == nil {
		b.gen = make([]uint32, maxCells)
	}
	b.words = words
	b.cells = cells
	b.top = 0
	b.live = 0
}

// release drops the cell buffers but keeps generations so stale refs stay stale.
func (b *block) release(keepBuffers bool) {
	b.words = 0
	b.cells = 0
	b.top = 0
	b.live = 0
	if !keepBuffers {
		b.data = nil
		b.link = nil
		b.mark = nil
		b.old = nil
	}
}

func (b *block) cell(slot int) []uint32 {
	off := slot * b.words
	return b.data[off : off+b.words : off+b.words]
}

func (b *block) allocated(slot int) bool {
	return slot < b.top && b.data[slot*b.words] != 0
}
