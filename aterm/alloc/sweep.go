package alloc

// SweepResult summarises one sweep over every pool.
type SweepResult struct {
	Live          int // cells surviving
	Reclaimed     int // cells returned to free lists
	BlocksFreed   int // empty blocks returned to the free block list
	BlocksDropped int // empty blocks whose buffers were released
}

// Sweep reclaims every unmarked cell and clears all marks. Survivors get
// their old bit set. reclaim, when non-nil, sees each dead cell before its
// words are cleared.
func (a *Allocator) Sweep(reclaim func(Ref)) SweepResult {
	return a.sweep(false, reclaim)
}

// SweepYoung is Sweep for a minor cycle: unmarked old cells are kept.
func (a *Allocator) SweepYoung(reclaim func(Ref)) SweepResult {
	return a.sweep(true, reclaim)
}

func (a *Allocator) sweep(young bool, reclaim func(Ref)) SweepResult {
	var res SweepResult
	for _, words := range a.Classes() {
		p := a.pools[words]
		reclaimed := 0
		kept := p.blocks[:0]
		last := len(p.blocks) - 1
		for idx, bi := range p.blocks {
			b := a.blocks[bi]
			for slot := 0; slot < b.top; slot++ {
				if b.data[slot*b.words] == 0 {
					continue
				}
				if b.mark.get(slot) {
					b.mark.clear(slot)
					b.old.set(slot)
					continue
				}
				if young && b.old.get(slot) {
					continue
				}
				if reclaim != nil {
					reclaim(a.ref(bi, slot))
				}
				a.release(b, slot, p)
				reclaimed++
			}
			if b.live == 0 && idx != last {
				if a.dropBlock(bi) {
					res.BlocksFreed++
				} else {
					res.BlocksDropped++
				}
				continue
			}
			kept = append(kept, bi)
		}
		p.blocks = kept
		a.rebuildFreeList(p)
		p.reclaimedLastGC = reclaimed
		p.allocsSinceGC = 0
		p.collected = true
		res.Reclaimed += reclaimed
		res.Live += p.live
	}
	return res
}

// rebuildFreeList threads every free slot below top so that pops return
// cells in pool order.
func (a *Allocator) rebuildFreeList(p *pool) {
	p.free = NilRef
	p.freeCount = 0
	for i := len(p.blocks) - 1; i >= 0; i-- {
		bi := p.blocks[i]
		b := a.blocks[bi]
		for slot := b.top - 1; slot >= 0; slot-- {
			if b.data[slot*b.words] != 0 {
				continue
			}
			b.link[slot] = p.free
			p.free = a.ref(bi, slot)
			p.freeCount++
		}
	}
}

// dropBlock unassigns an empty block. It reports whether the buffers were kept.
func (a *Allocator) dropBlock(bi int) bool {
	keep := len(a.freeBlocks) < a.cfg.MaxFreeBlocks
	a.blocks[bi].release(keep)
	if keep {
		a.freeBlocks = append(a.freeBlocks, bi)
	} else {
		a.spare = append(a.spare, bi)
	}
	a.liveBlocks--
	return keep
}
