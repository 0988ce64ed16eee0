package aterm

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/joshuapare/atermkit/aterm/alloc"
)

type gcState uint8

const (
	stateIdle gcState = iota
	stateMarking
	stateSweeping
)

// Collect runs a full mark-sweep cycle. It is a no-op when called from
// inside a running collection.
func (s *Store) Collect() { s.collect(true, "explicit") }

// CollectMinor runs a minor cycle: only cells that have not yet survived a
// collection are candidates for reclamation.
func (s *Store) CollectMinor() { s.collect(false, "explicit") }

// CollectFor implements alloc.Collector; the allocator calls it when the
// pool for words-sized cells is exhausted.
func (s *Store) CollectFor(words int) {
	major := !s.cfg.Generational || s.minorsSinceMajor >= s.cfg.MajorEvery
	s.collect(major, "exhausted")
}

func (s *Store) collect(major bool, reason string) {
	if s.state != stateIdle {
		return
	}
	kind := "minor"
	if major {
		kind = "major"
	}
	start := time.Now()
	_, span := s.tracer.Start(context.Background(), "aterm.collect",
		trace.WithAttributes(
			attribute.String("aterm.store", s.id.String()),
			attribute.String("aterm.kind", kind),
			attribute.String("aterm.reason", reason),
		),
	)
	defer span.End()

	s.state = stateMarking
	s.markRoots(major)

	s.state = stateSweeping
	var res alloc.SweepResult
	if major {
		res = s.alloc.Sweep(s.reclaim)
	} else {
		res = s.alloc.SweepYoung(s.reclaim)
	}
	symbolsFreed := s.symbols.Sweep()
	s.state = stateIdle

	elapsed := time.Since(start)
	c := &s.counters
	if major {
		c.majors++
		s.minorsSinceMajor = 0
	} else {
		c.minors++
		s.minorsSinceMajor++
	}
	c.reclaimedTotal += uint64(res.Reclaimed)
	c.lastReclaimed = res.Reclaimed
	c.lastSymbolsFreed = symbolsFreed
	c.lastDuration = elapsed
	c.totalDuration += elapsed

	span.SetAttributes(
		attribute.Int("aterm.live", res.Live),
		attribute.Int("aterm.reclaimed", res.Reclaimed),
		attribute.Int("aterm.symbols_freed", symbolsFreed),
	)
	s.log.Debug("collection finished",
		"kind", kind,
		"reason", reason,
		"live", res.Live,
		"reclaimed", res.Reclaimed,
		"symbols_freed", symbolsFreed,
		"blocks_freed", res.BlocksFreed+res.BlocksDropped,
		"duration", elapsed,
	)
	s.publish()
}

// markRoots marks everything reachable from the registry, the in-flight
// construction, the empty list and the protected symbols.
func (s *Store) markRoots(major bool) {
	mark := func(t Term) { s.markTerm(t, major) }
	for _, r := range s.roots {
		mark(r.term)
	}
	for _, p := range s.slices {
		for _, t := range *p {
			mark(t)
		}
	}
	for _, tr := range s.traceables {
		tr.Trace(mark)
	}
	for _, t := range s.pendingChildren {
		mark(t)
	}
	if s.pendingSym != 0 {
		s.symbols.Mark(s.pendingSym)
	}
	mark(s.nilTerm)
	s.symbols.MarkProtected()
}

// markTerm marks t and its unmarked descendants with an explicit stack.
// Minor cycles stop at old cells: every child of an old cell is old too.
func (s *Store) markTerm(t Term, major bool) {
	if !s.valid(t) {
		return
	}
	root := t.ref()
	if !major && s.alloc.Old(root) {
		return
	}
	if !s.alloc.Mark(root) {
		return
	}
	stack := append(s.markStack[:0], root)
	for len(stack) > 0 {
		ref := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		cell := s.alloc.Cell(ref)
		if tagOf(cell[0]) != tagAppl {
			continue
		}
		s.symbols.Mark(s.symbols.At(symbolIndex(cell[0])))
		for _, w := range cell[1:] {
			child := alloc.Ref(w)
			if !major && s.alloc.Old(child) {
				continue
			}
			if s.alloc.Mark(child) {
				stack = append(stack, child)
			}
		}
	}
	s.markStack = stack[:0]
}

// reclaim unregisters a dead cell before the allocator clears it.
func (s *Store) reclaim(ref alloc.Ref) {
	cell := s.alloc.Cell(ref)
	s.table.remove(ref, s.refHash(ref))
	switch tagOf(cell[0]) {
	case tagAppl:
		s.symbols.DecRef(s.symbols.At(symbolIndex(cell[0])))
	case tagBlob:
		s.freeBlob(cell[1])
	}
}
