package aterm

import (
	"time"

	"github.com/joshuapare/atermkit/aterm/alloc"
)

type counters struct {
	constructed      uint64
	majors           uint64
	minors           uint64
	reclaimedTotal   uint64
	lastReclaimed    int
	lastSymbolsFreed int
	lastDuration     time.Duration
	totalDuration    time.Duration
}

// ClassStats is the occupancy of one cell size class.
type ClassStats struct {
	Words    int
	Blocks   int
	Live     int
	Free     int
	Capacity int
}

// Stats is a point-in-time view of a store.
type Stats struct {
	StoreID string

	LiveCells    int
	Blocks       int
	FreeBlocks   int
	Classes      []ClassStats
	TableEntries int
	TableBuckets int
	TableResizes int
	Symbols      int
	Protected    int
	Roots        int
	Registered   int
	Blobs        int

	Constructed     uint64
	MajorCycles     uint64
	MinorCycles     uint64
	ReclaimedTotal  uint64
	LastReclaimed   int
	LastSymbolsFree int
	LastCycle       time.Duration
	TotalGCTime     time.Duration
}

// Stats computes a fresh snapshot. It must be called from the goroutine
// that owns the store.
func (s *Store) Stats() Stats {
	as := s.alloc.Stats()
	st := Stats{
		StoreID:         s.id.String(),
		Blocks:          as.Blocks,
		FreeBlocks:      as.FreeBlocks,
		TableEntries:    s.table.count,
		TableBuckets:    len(s.table.buckets),
		TableResizes:    s.table.resizes,
		Symbols:         s.symbols.Len(),
		Protected:       s.symbols.Protected(),
		Roots:           len(s.roots),
		Registered:      len(s.slices) + len(s.traceables),
		Blobs:           len(s.blobs) - len(s.blobFree),
		Constructed:     s.counters.constructed,
		MajorCycles:     s.counters.majors,
		MinorCycles:     s.counters.minors,
		ReclaimedTotal:  s.counters.reclaimedTotal,
		LastReclaimed:   s.counters.lastReclaimed,
		LastSymbolsFree: s.counters.lastSymbolsFreed,
		LastCycle:       s.counters.lastDuration,
		TotalGCTime:     s.counters.totalDuration,
	}
	st.Classes = make([]ClassStats, 0, len(as.Pools))
	for _, p := range as.Pools {
		st.LiveCells += p.Live
		st.Classes = append(st.Classes, classStats(p))
	}
	return st
}

func classStats(p alloc.PoolStats) ClassStats {
	return ClassStats{Words: p.Words, Blocks: p.Blocks, Live: p.Live, Free: p.Free, Capacity: p.Capacity}
}

// Snapshot returns the Stats published at the end of the most recent
// collection (or at creation). It is safe for concurrent use.
func (s *Store) Snapshot() Stats { return *s.snapshot.Load() }

// Publish refreshes the concurrent snapshot outside a collection, for
// callers that want Snapshot to reflect recent construction.
func (s *Store) Publish() { s.publish() }

func (s *Store) publish() {
	st := s.Stats()
	s.snapshot.Store(&st)
}
