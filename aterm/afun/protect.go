package afun

// Protect pushes s onto the protected-symbol stack. A symbol may be
// protected several times; each Protect needs its own Unprotect.
func (t *Table) Protect(s Symbol) error {
	if t.entry(s) == nil {
		return ErrStale
	}
	t.protected = append(t.protected, s)
	return nil
}

// Unprotect removes the most recent protection of s.
func (t *Table) Unprotect(s Symbol) error {
	e := t.entry(s)
	if e == nil {
		return ErrStale
	}
	for i := len(t.protected) - 1; i >= 0; i-- {
		if t.protected[i] != s {
			continue
		}
		last := len(t.protected) - 1
		t.protected[i] = t.protected[last]
		t.protected = t.protected[:last]
		return nil
	}
	if e.permanent {
		return ErrPermanent
	}
	return ErrNotProtected
}

// Protected returns the number of outstanding protections.
func (t *Table) Protected() int { return len(t.protected) }

// MarkProtected marks every protected and every builtin symbol.
func (t *Table) MarkProtected() {
	for _, s := range t.permanent {
		t.Mark(s)
	}
	for _, s := range t.protected {
		t.Mark(s)
	}
}

// Mark sets the mark of s and reports whether it was clear.
func (t *Table) Mark(s Symbol) bool {
	e := t.entry(s)
	if e == nil || e.marked {
		return false
	}
	e.marked = true
	return true
}

// Marked reports the mark of s.
func (t *Table) Marked(s Symbol) bool {
	e := t.entry(s)
	return e != nil && e.marked
}
