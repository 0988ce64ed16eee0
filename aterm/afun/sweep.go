package afun

import "math"

// Sweep frees every unmarked symbol that no live application references,
// clears all marks and returns the number of symbols freed.
func (t *Table) Sweep() int {
	freed := 0
	for i := range t.slots {
		e := &t.slots[i]
		if !e.live {
			continue
		}
		if e.marked {
			e.marked = false
			continue
		}
		if e.permanent || e.refs > 0 {
			continue
		}
		t.free(int32(i))
		freed++
	}
	return freed
}

func (t *Table) free(i int32) {
	t.unlink(i)
	e := &t.slots[i]
	e.live = false
	e.Entry = Entry{}
	e.refs = 0
	t.count--
	if e.gen == math.MaxUint8 {
		// Retired: another reuse would hand out generation 0 or repeat one.
		e.next = noSlot
		return
	}
	e.next = t.firstFree
	t.firstFree = i
}
