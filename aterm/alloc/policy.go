package alloc

// shouldCollect decides between collecting and growing an exhausted pool.
//
// Small pools always grow. Larger pools collect when the previous cycle
// reclaimed a good share of the pool, or when enough has been allocated
// since that cycle that garbage is likely; otherwise they grow.
func (a *Allocator) shouldCollect(p *pool) bool {
	if !a.canCollect() {
		return false
	}
	if len(p.blocks) < a.cfg.MinBlocks {
		return false
	}
	capacity := len(p.blocks) * p.cells
	if p.collected && p.reclaimedLastGC*100 >= capacity*a.cfg.GoodGCRatio {
		return true
	}
	return p.allocsSinceGC*100 >= capacity*a.cfg.SmallAllocationRateRatio
}
