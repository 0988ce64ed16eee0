package aterm

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/joshuapare/atermkit/aterm/afun"
	"github.com/joshuapare/atermkit/aterm/alloc"
)

// Store owns every term cell, both hash-consing tables and the protection
// registry of one term universe. A Store is used by a single goroutine;
// only Snapshot may be called concurrently.
type Store struct {
	cfg     Config
	id      uuid.UUID
	log     *slog.Logger
	tracer  trace.Tracer
	alloc   *alloc.Allocator
	symbols *afun.Table
	table   *termTable

	blobs    [][]byte
	blobFree []uint32

	// Protection registry.
	roots      []*Root
	slices     map[uint64]*[]Term
	traceables map[uint64]Traceable
	nextReg    uint64

	// In-flight roots while an allocation may collect.
	pendingChildren []Term
	pendingSym      afun.Symbol

	nilTerm   Term
	scratch   []uint32
	markStack []alloc.Ref

	state            gcState
	minorsSinceMajor int
	counters         counters
	snapshot         atomic.Pointer[Stats]
}

// New creates a Store and interns its builtin symbols and the empty list.
func New(cfg Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a, err := alloc.New(cfg.allocConfig())
	if err != nil {
		return nil, err
	}
	symbols, err := afun.New(cfg.symbolConfig())
	if err != nil {
		return nil, err
	}
	tp := cfg.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	s := &Store{
		cfg:        cfg,
		id:         uuid.New(),
		tracer:     tp.Tracer("github.com/joshuapare/atermkit/aterm"),
		alloc:      a,
		symbols:    symbols,
		slices:     make(map[uint64]*[]Term),
		traceables: make(map[uint64]Traceable),
	}
	s.log = cfg.logger().With("store", s.id.String())
	s.table = newTermTable(a, cfg.TableClass, cfg.MaxLoad, s.refHash)
	a.SetCollector(s)

	if s.nilTerm, err = s.makeAppl(symbols.Builtin.Nil, nil); err != nil {
		return nil, err
	}
	s.publish()
	s.log.Debug("store created", "table_class", cfg.TableClass, "generational", cfg.Generational)
	return s, nil
}

// ID identifies the store in logs, metrics and persisted records.
func (s *Store) ID() uuid.UUID { return s.id }

// Config returns the configuration the store was created with.
func (s *Store) Config() Config { return s.cfg }

// Symbols exposes the symbol table for read-only inspection.
func (s *Store) Symbols() *afun.Table { return s.symbols }

// Builtins returns the builtin symbols of this store.
func (s *Store) Builtins() afun.Builtins { return s.symbols.Builtin }

// Symbol interns (name, arity, quoted). The symbol is reclaimed by the next
// collection unless a live term is headed by it or it is protected with
// ProtectSymbol, so hold it protected while any construction may run
// before it is used.
func (s *Store) Symbol(name string, arity int, quoted bool) (afun.Symbol, error) {
	sym, err := s.symbols.Intern(name, arity, quoted)
	switch {
	case err == nil:
		return sym, nil
	case errors.Is(err, afun.ErrFull):
		return 0, newError(ErrKindOutOfMemory, "intern "+name, err)
	default:
		return 0, newError(ErrKindArity, "intern "+name, err)
	}
}

// SymbolName returns the name of sym, or "" when sym is stale.
func (s *Store) SymbolName(sym afun.Symbol) string { return s.symbols.Name(sym) }

// SymbolArity returns the arity of sym, or -1 when sym is stale.
func (s *Store) SymbolArity(sym afun.Symbol) int { return s.symbols.Arity(sym) }

// SymbolQuoted reports whether sym prints quoted.
func (s *Store) SymbolQuoted(sym afun.Symbol) bool { return s.symbols.Quoted(sym) }

// ProtectSymbol keeps sym alive until the matching UnprotectSymbol.
func (s *Store) ProtectSymbol(sym afun.Symbol) error {
	if err := s.symbols.Protect(sym); err != nil {
		return newError(ErrKindStale, "protect symbol", err)
	}
	return nil
}

// UnprotectSymbol releases one protection of sym.
func (s *Store) UnprotectSymbol(sym afun.Symbol) error {
	err := s.symbols.Unprotect(sym)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, afun.ErrStale):
		return newError(ErrKindStale, "unprotect symbol", err)
	default:
		return newError(ErrKindProtocol, "unprotect symbol", err)
	}
}

// term wraps a live ref with its current generation.
func (s *Store) term(ref alloc.Ref) Term { return makeTerm(ref, s.alloc.Gen(ref)) }

// valid reports whether t is a live term of this store.
func (s *Store) valid(t Term) bool {
	ref := t.ref()
	return ref != alloc.NilRef && s.alloc.Allocated(ref) && s.alloc.Gen(ref) == t.gen()
}

// refHash recomputes the table hash of an allocated cell.
func (s *Store) refHash(ref alloc.Ref) uint32 {
	cell := s.alloc.Cell(ref)
	if tagOf(cell[0]) == tagBlob {
		return hashBlob(s.blobs[cell[1]])
	}
	return hashWords(cell)
}
