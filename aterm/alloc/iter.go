package alloc

import "iter"

// Cells yields the allocated cells of one size class in pool order.
// Each range re-walks the pool, so the sequence is restartable. Allocating
// while ranging is allowed; cells added during the walk may or may not be
// yielded.
func (a *Allocator) Cells(words int) iter.Seq[Ref] {
	return func(yield func(Ref) bool) {
		p, ok := a.pools[words]
		if !ok {
			return
		}
		blocks := p.blocks
		for _, bi := range blocks {
			b := a.blocks[bi]
			if b.words != words {
				continue
			}
			for slot := 0; slot < b.top; slot++ {
				if b.data[slot*b.words] == 0 {
					continue
				}
				if !yield(a.ref(bi, slot)) {
					return
				}
			}
		}
	}
}

// All yields every allocated cell, class by class.
func (a *Allocator) All() iter.Seq[Ref] {
	return func(yield func(Ref) bool) {
		for _, words := range a.Classes() {
			for ref := range a.Cells(words) {
				if !yield(ref) {
					return
				}
			}
		}
	}
}

// PoolStats describes one size class.
type PoolStats struct {
	Words           int
	CellsPerBlock   int
	Blocks          int
	Live            int
	Free            int
	Capacity        int
	ReclaimedLastGC int
}

// Stats describes the allocator as a whole.
type Stats struct {
	Blocks      int // assigned blocks
	FreeBlocks  int // empty blocks kept for reuse
	Grows       int
	Collections int // collections requested by exhausted pools
	Pools       []PoolStats
}

// Stats returns a snapshot of pool occupancy.
func (a *Allocator) Stats() Stats {
	st := Stats{
		Blocks:      a.liveBlocks,
		FreeBlocks:  len(a.freeBlocks),
		Grows:       a.grows,
		Collections: a.requests,
	}
	for _, w := range a.Classes() {
		p := a.pools[w]
		capacity := 0
		for _, bi := range p.blocks {
			capacity += a.blocks[bi].cells
		}
		st.Pools = append(st.Pools, PoolStats{
			Words:           w,
			CellsPerBlock:   p.cells,
			Blocks:          len(p.blocks),
			Live:            p.live,
			Free:            p.freeCount,
			Capacity:        capacity,
			ReclaimedLastGC: p.reclaimedLastGC,
		})
	}
	return st
}
