package alloc

import (
	"fmt"
	"log/slog"
	"slices"
)

// Ref identifies one cell slot. The zero Ref is never valid.
type Ref uint32

// NilRef is the invalid reference.
const NilRef Ref = 0

// Collector is invoked when a pool of the given size class is exhausted and
// the growth policy prefers reclaiming to growing.
type Collector interface {
	CollectFor(words int)
}

// pool is the set of blocks serving one size class.
type pool struct {
	words           int
	cells           int   // cells per block
	blocks          []int // block indices, pool order; the last one receives bump allocations
	free            Ref   // free list head
	freeCount       int
	live            int
	allocsSinceGC   int
	reclaimedLastGC int
	collected       bool
}

// Allocator hands out fixed-size cells from per-class pools of blocks.
type Allocator struct {
	cfg        Config
	log        *slog.Logger
	maxCells   int
	mask       uint32
	blocks     []*block
	freeBlocks []int // unassigned blocks that kept their buffers
	spare      []int // unassigned blocks whose buffers were dropped
	pools      map[int]*pool
	liveBlocks int
	collector  Collector
	collecting bool
	grows      int
	requests   int // collections requested by exhausted pools
}

// New creates an Allocator with no pools; pools are created on first use.
func New(cfg Config) (*Allocator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Allocator{
		cfg:      cfg,
		log:      cfg.logger(),
		maxCells: 1 << cfg.BlockShift,
		mask:     uint32(1)<<cfg.BlockShift - 1,
		pools:    make(map[int]*pool),
	}, nil
}

// SetCollector registers the collector consulted on pool exhaustion.
func (a *Allocator) SetCollector(c Collector) { a.collector = c }

// Alloc returns a zeroed cell of exactly words words.
func (a *Allocator) Alloc(words int) (Ref, error) {
	if words < 1 {
		return NilRef, ErrBadClass
	}
	p := a.poolFor(words)
	if ref, ok := a.take(p); ok {
		return ref, nil
	}

	collected := false
	if a.shouldCollect(p) {
		a.collect(p)
		collected = true
		if ref, ok := a.take(p); ok {
			return ref, nil
		}
	}

	err := a.grow(p)
	if err != nil && !collected && a.canCollect() {
		// At the block limit: one collect-and-retry before giving up.
		a.collect(p)
		if ref, ok := a.take(p); ok {
			return ref, nil
		}
		err = a.grow(p)
	}
	if err != nil {
		a.log.Error("allocator exhausted", "words", words, "blocks", a.liveBlocks)
		return NilRef, err
	}
	ref, _ := a.take(p)
	return ref, nil
}

// Free returns one allocated cell to its pool's free list.
func (a *Allocator) Free(ref Ref) error {
	b, bi, slot, ok := a.decode(ref)
	if !ok {
		return ErrBadRef
	}
	if !b.allocated(slot) {
		return ErrNotAllocated
	}
	p := a.pools[b.words]
	a.release(b, slot, p)
	b.link[slot] = p.free
	p.free = a.ref(bi, slot)
	p.freeCount++
	return nil
}

// Cell returns the words of a slot that has been handed out at least once,
// or nil when ref addresses nothing. A fresh cell counts as allocated once
// the caller writes a non-zero header word.
func (a *Allocator) Cell(ref Ref) []uint32 {
	b, _, slot, ok := a.decode(ref)
	if !ok || slot >= b.top {
		return nil
	}
	return b.cell(slot)
}

// Allocated reports whether ref names a live cell.
func (a *Allocator) Allocated(ref Ref) bool {
	b, _, slot, ok := a.decode(ref)
	return ok && b.allocated(slot)
}

// Words returns the size class of the block holding ref, or 0.
func (a *Allocator) Words(ref Ref) int {
	b, _, _, ok := a.decode(ref)
	if !ok {
		return 0
	}
	return b.words
}

// Gen returns the reclaim generation of ref's slot.
func (a *Allocator) Gen(ref Ref) uint32 {
	b, _, slot, ok := a.decode(ref)
	if !ok {
		return 0
	}
	return b.gen[slot]
}

// Link returns the owner link stored for an allocated cell.
func (a *Allocator) Link(ref Ref) Ref {
	b, _, slot, ok := a.decode(ref)
	if !ok {
		return NilRef
	}
	return b.link[slot]
}

// SetLink stores an owner link for an allocated cell.
func (a *Allocator) SetLink(ref, next Ref) {
	if b, _, slot, ok := a.decode(ref); ok {
		b.link[slot] = next
	}
}

// Mark sets the mark bit of ref and reports whether it was previously clear.
func (a *Allocator) Mark(ref Ref) bool {
	b, _, slot, ok := a.decode(ref)
	if !ok || b.mark.get(slot) {
		return false
	}
	b.mark.set(slot)
	return true
}

// Marked reports the mark bit of ref.
func (a *Allocator) Marked(ref Ref) bool {
	b, _, slot, ok := a.decode(ref)
	return ok && b.mark.get(slot)
}

// Old reports whether ref survived a previous sweep.
func (a *Allocator) Old(ref Ref) bool {
	b, _, slot, ok := a.decode(ref)
	return ok && b.old.get(slot)
}

// Classes returns the size classes that have a pool, ascending.
func (a *Allocator) Classes() []int {
	out := make([]int, 0, len(a.pools))
	for w := range a.pools {
		out = append(out, w)
	}
	slices.Sort(out)
	return out
}

// Live returns the number of allocated cells across all pools.
func (a *Allocator) Live() int {
	n := 0
	for _, p := range a.pools {
		n += p.live
	}
	return n
}

func (a *Allocator) poolFor(words int) *pool {
	if p, ok := a.pools[words]; ok {
		return p
	}
	cells := a.cfg.BlockWords / words
	cells = max(1, min(cells, a.maxCells))
	p := &pool{words: words, cells: cells}
	a.pools[words] = p
	return p
}

// take bump-allocates from the current block, falling back to the free list.
func (a *Allocator) take(p *pool) (Ref, bool) {
	if n := len(p.blocks); n > 0 {
		bi := p.blocks[n-1]
		b := a.blocks[bi]
		if b.top < b.cells {
			slot := b.top
			b.top++
			a.hand(b, p)
			return a.ref(bi, slot), true
		}
	}
	if p.free == NilRef {
		return NilRef, false
	}
	ref := p.free
	b, _, slot, _ := a.decode(ref)
	p.free = b.link[slot]
	p.freeCount--
	b.link[slot] = NilRef
	a.hand(b, p)
	return ref, true
}

func (a *Allocator) hand(b *block, p *pool) {
	b.live++
	p.live++
	p.allocsSinceGC++
}

// release clears a cell and bumps its generation; the caller links it.
func (a *Allocator) release(b *block, slot int, p *pool) {
	clear(b.cell(slot))
	b.gen[slot]++
	b.mark.clear(slot)
	b.old.clear(slot)
	b.live--
	p.live--
}

func (a *Allocator) grow(p *pool) error {
	if a.cfg.MaxBlocks > 0 && a.liveBlocks >= a.cfg.MaxBlocks {
		return fmt.Errorf("%w: %d blocks in use (limit %d)", ErrOutOfMemory, a.liveBlocks, a.cfg.MaxBlocks)
	}
	var bi int
	switch {
	case len(a.freeBlocks) > 0:
		bi = a.freeBlocks[len(a.freeBlocks)-1]
		a.freeBlocks = a.freeBlocks[:len(a.freeBlocks)-1]
	case len(a.spare) > 0:
		bi = a.spare[len(a.spare)-1]
		a.spare = a.spare[:len(a.spare)-1]
	default:
		if len(a.blocks) >= maxBlockIndex(a.cfg.BlockShift) {
			return fmt.Errorf("%w: reference space exhausted", ErrOutOfMemory)
		}
		bi = len(a.blocks)
		a.blocks = append(a.blocks, &block{})
	}
	a.blocks[bi].assign(p.words, p.cells, a.maxCells)
	p.blocks = append(p.blocks, bi)
	a.liveBlocks++
	a.grows++
	a.log.Debug("pool grown", "words", p.words, "blocks", len(p.blocks), "total_blocks", a.liveBlocks)
	return nil
}

func (a *Allocator) canCollect() bool {
	return a.collector != nil && !a.collecting
}

func (a *Allocator) collect(p *pool) {
	a.collecting = true
	defer func() { a.collecting = false }()
	a.requests++
	a.collector.CollectFor(p.words)
}

func (a *Allocator) ref(bi, slot int) Ref {
	return Ref(uint32(bi)<<a.cfg.BlockShift|uint32(slot)) + 1
}

func (a *Allocator) decode(ref Ref) (*block, int, int, bool) {
	if ref == NilRef {
		return nil, 0, 0, false
	}
	v := uint32(ref) - 1
	bi := int(v >> a.cfg.BlockShift)
	slot := int(v & a.mask)
	if bi >= len(a.blocks) {
		return nil, 0, 0, false
	}
	b := a.blocks[bi]
	if b.words == 0 || slot >= b.cells {
		return nil, 0, 0, false
	}
	return b, bi, slot, true
}
