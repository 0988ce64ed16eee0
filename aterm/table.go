package aterm

import "github.com/joshuapare/atermkit/aterm/alloc"

// termTable is the hash-consing table. Chains are threaded through the
// allocator's per-cell link side table, so an entry costs no extra memory
// beyond its bucket share.
type termTable struct {
	a       *alloc.Allocator
	buckets []alloc.Ref
	mask    uint32
	count   int
	maxLoad int
	resizes int
	hashOf  func(alloc.Ref) uint32
}

func newTermTable(a *alloc.Allocator, class, maxLoad int, hashOf func(alloc.Ref) uint32) *termTable {
	n := 1 << class
	return &termTable{
		a:       a,
		buckets: make([]alloc.Ref, n),
		mask:    uint32(n - 1),
		maxLoad: maxLoad,
		hashOf:  hashOf,
	}
}

// find returns the entry with hash h that satisfies eq, moving it to the
// front of its chain.
func (t *termTable) find(h uint32, eq func(alloc.Ref) bool) alloc.Ref {
	b := h & t.mask
	prev := alloc.NilRef
	for ref := t.buckets[b]; ref != alloc.NilRef; ref = t.a.Link(ref) {
		if eq(ref) {
			if prev != alloc.NilRef {
				t.a.SetLink(prev, t.a.Link(ref))
				t.a.SetLink(ref, t.buckets[b])
				t.buckets[b] = ref
			}
			return ref
		}
		prev = ref
	}
	return alloc.NilRef
}

func (t *termTable) insert(ref alloc.Ref, h uint32) {
	b := h & t.mask
	t.a.SetLink(ref, t.buckets[b])
	t.buckets[b] = ref
	t.count++
	if uint64(t.count)*100 > uint64(len(t.buckets))*uint64(t.maxLoad) {
		t.grow()
	}
}

// remove unlinks ref. It reports whether ref was found.
func (t *termTable) remove(ref alloc.Ref, h uint32) bool {
	b := h & t.mask
	cur := t.buckets[b]
	if cur == ref {
		t.buckets[b] = t.a.Link(ref)
		t.a.SetLink(ref, alloc.NilRef)
		t.count--
		return true
	}
	for cur != alloc.NilRef {
		next := t.a.Link(cur)
		if next == ref {
			t.a.SetLink(cur, t.a.Link(ref))
			t.a.SetLink(ref, alloc.NilRef)
			t.count--
			return true
		}
		cur = next
	}
	return false
}

func (t *termTable) grow() {
	n := len(t.buckets) * 2
	buckets := make([]alloc.Ref, n)
	mask := uint32(n - 1)
	for _, head := range t.buckets {
		for ref := head; ref != alloc.NilRef; {
			next := t.a.Link(ref)
			b := t.hashOf(ref) & mask
			t.a.SetLink(ref, buckets[b])
			buckets[b] = ref
			ref = next
		}
	}
	t.buckets = buckets
	t.mask = mask
	t.resizes++
}

// contains reports whether ref is reachable from its bucket.
func (t *termTable) contains(ref alloc.Ref) bool {
	b := t.hashOf(ref) & t.mask
	for cur := t.buckets[b]; cur != alloc.NilRef; cur = t.a.Link(cur) {
		if cur == ref {
			return true
		}
	}
	return false
}
