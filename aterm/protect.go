package aterm

// Traceable is implemented by containers that hold terms across calls that
// may collect. The collector calls Trace once per cycle; Trace must pass
// every term the container holds to mark and must not construct terms.
type Traceable interface {
	Trace(mark func(Term))
}

// TraceFunc adapts a plain scanning function to Traceable.
type TraceFunc func(mark func(Term))

// Trace calls f.
func (f TraceFunc) Trace(mark func(Term)) { f(mark) }

// Root is a scoped, stack-ordered protection of a single term slot. Roots
// must be released in reverse order of acquisition, typically with defer:
//
//	r := s.Protect(t)
//	defer r.Release()
type Root struct {
	s        *Store
	term     Term
	released bool
}

// Protect roots t until the returned Root is released.
func (s *Store) Protect(t Term) *Root {
	r := &Root{s: s, term: t}
	s.roots = append(s.roots, r)
	return r
}

// Term returns the protected term.
func (r *Root) Term() Term { return r.term }

// Set replaces the protected term. The previous term loses this root.
func (r *Root) Set(t Term) { r.term = t }

// Release ends the protection. Releasing twice, or releasing a root while
// a more recent one is still held, is an ErrProtocolViolation and leaves
// the registry unchanged.
func (r *Root) Release() error {
	if r.released {
		return newError(ErrKindProtocol, "root released twice", nil)
	}
	roots := r.s.roots
	top := len(roots) - 1
	if top < 0 || roots[top] != r {
		return newError(ErrKindProtocol, "root released out of order", nil)
	}
	roots[top] = nil
	r.s.roots = roots[:top]
	r.released = true
	return nil
}

// Registration is the handle of a slice or Traceable protection.
type Registration struct {
	s        *Store
	id       uint64
	released bool
}

// ProtectSlice roots every term in *p at each collection, including
// elements appended after registration.
func (s *Store) ProtectSlice(p *[]Term) *Registration {
	reg := s.newRegistration()
	s.slices[reg.id] = p
	return reg
}

// Register roots every term tr reports from Trace.
func (s *Store) Register(tr Traceable) *Registration {
	reg := s.newRegistration()
	s.traceables[reg.id] = tr
	return reg
}

// RegisterScanner is Register for a bare scanning function.
func (s *Store) RegisterScanner(scan func(mark func(Term))) *Registration {
	return s.Register(TraceFunc(scan))
}

func (s *Store) newRegistration() *Registration {
	s.nextReg++
	return &Registration{s: s, id: s.nextReg}
}

// Release ends the protection. Releasing twice is an ErrProtocolViolation.
func (r *Registration) Release() error {
	if r.released {
		return newError(ErrKindProtocol, "registration released twice", nil)
	}
	delete(r.s.slices, r.id)
	delete(r.s.traceables, r.id)
	r.released = true
	return nil
}

// Roots returns the number of live stack roots.
func (s *Store) Roots() int { return len(s.roots) }
