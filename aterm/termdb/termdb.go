// Package termdb persists named terms in a BadgerDB database.
//
// Each record holds the id of the store that wrote it followed by the
// term's binary encoding, so a term written from one store can be read
// back into any other.
package termdb

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/joshuapare/atermkit/aterm"
	"github.com/joshuapare/atermkit/aterm/codec"
)

var (
	// ErrNotFound is returned when no term is stored under a name.
	ErrNotFound = errors.New("termdb: term not found")

	// ErrCorrupt is returned for a record too short to carry a store id.
	ErrCorrupt = errors.New("termdb: corrupt record")

	// ErrEmptyName is returned by Put for the empty name.
	ErrEmptyName = errors.New("termdb: empty name")
)

const keyPrefix = "term/"

// Config holds configuration for a term database.
type Config struct {
	// Path is the database directory. Ignored when InMemory is true.
	Path string

	// InMemory keeps everything in memory, for tests and scratch work.
	InMemory bool

	// SyncWrites fsyncs every commit.
	SyncWrites bool

	// Logger receives badger's internal logging. Nil disables it.
	Logger *slog.Logger
}

// DefaultConfig returns a durable on-disk configuration for path.
func DefaultConfig(path string) Config {
	return Config{Path: path, SyncWrites: true}
}

// InMemoryConfig returns a configuration that never touches disk.
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

// badgerLogger adapts slog.Logger to badger.Logger.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// DB is a term database. It is safe for concurrent use; the stores passed
// to its methods are not, and must be owned by the calling goroutine.
type DB struct {
	db *badger.DB
}

// Record describes a stored term without decoding it.
type Record struct {
	Name    string    `json:"name"`
	StoreID uuid.UUID `json:"store_id"`
	Size    int       `json:"size"`
}

// Open opens or creates the database described by cfg.
func Open(cfg Config) (*DB, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, errors.New("termdb: path is required for a persistent database")
		}
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("termdb: create %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("termdb: open: %w", err)
	}
	return &DB{db: db}, nil
}

// Close flushes and closes the database.
func (d *DB) Close() error { return d.db.Close() }

// Put stores t from s under name, replacing any previous record.
func (d *DB) Put(name string, s *aterm.Store, t aterm.Term) error {
	if name == "" {
		return ErrEmptyName
	}
	enc, err := codec.Marshal(s, t)
	if err != nil {
		return fmt.Errorf("termdb: encode %q: %w", name, err)
	}
	id := s.ID()
	val := make([]byte, 0, len(id)+len(enc))
	val = append(val, id[:]...)
	val = append(val, enc...)

	return d.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(name), val)
	})
}

// Get decodes the term stored under name into s. The result is not
// protected; callers holding it across further construction must protect
// it.
func (d *DB) Get(name string, s *aterm.Store) (aterm.Term, error) {
	var enc []byte
	err := d.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(name))
		if err != nil {
			return err
		}
		if item.ValueSize() < int64(len(uuid.UUID{})) {
			return ErrCorrupt
		}
		return item.Value(func(val []byte) error {
			enc = append(enc, val[len(uuid.UUID{}):]...)
			return nil
		})
	})
	if err != nil {
		return 0, lookupErr(name, err)
	}
	t, err := codec.Unmarshal(s, enc)
	if err != nil {
		return 0, fmt.Errorf("termdb: decode %q: %w", name, err)
	}
	return t, nil
}

// Stat returns the record stored under name.
func (d *DB) Stat(name string) (Record, error) {
	var rec Record
	err := d.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(name))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var err error
			rec, err = record(name, val)
			return err
		})
	})
	if err != nil {
		return Record{}, lookupErr(name, err)
	}
	return rec, nil
}

// Delete removes the record stored under name. Deleting a missing name
// is not an error.
func (d *DB) Delete(name string) error {
	return d.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key(name))
	})
}

// Names lists every stored name in key order.
func (d *DB) Names() ([]string, error) {
	var names []string
	err := d.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			names = append(names, strings.TrimPrefix(string(it.Item().Key()), keyPrefix))
		}
		return nil
	})
	return names, err
}

func key(name string) []byte { return []byte(keyPrefix + name) }

func record(name string, val []byte) (Record, error) {
	var id uuid.UUID
	if len(val) < len(id) {
		return Record{}, ErrCorrupt
	}
	copy(id[:], val)
	return Record{Name: name, StoreID: id, Size: len(val) - len(id)}, nil
}

func lookupErr(name string, err error) error {
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if errors.Is(err, ErrCorrupt) {
		return fmt.Errorf("%w: %q", ErrCorrupt, name)
	}
	return fmt.Errorf("termdb: read %q: %w", name, err)
}
