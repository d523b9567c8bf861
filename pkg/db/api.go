package db

import (
	"time"

	"github.com/rs/zerolog"
)

// KVStore represents an ordered key-value engine providing basic operations
// for data manipulation and bounded iteration.
type KVStore interface {
	Writer
	Get(key []byte) ([]byte, error)
	// MultiGet returns one entry per key, in input order. A missing key
	// yields a nil entry rather than an error.
	MultiGet(keys [][]byte) ([][]byte, error)
	Delete(key []byte) error
	NewBatch() Batch
	NewIterator(opts IterOptions) (Iterator, error)
	// Path is the location the engine was opened at.
	Path() string
	Close() error
}

type Writer interface {
	Put(key []byte, value []byte) error
}

// Batch represents an atomic batch of operations.
// All operations in a batch are performed atomically.
type Batch interface {
	Writer
	Delete(key []byte) error
	Commit() error
	Close() error
}

// IterOptions bounds an iterator to the half-open window [LowerBound, UpperBound).
// A nil bound leaves that side of the window open.
type IterOptions struct {
	LowerBound []byte
	UpperBound []byte
	Reverse    bool
}

// Iterator provides sequential access over a range of key-value pairs.
// Iterators must be closed after use.
type Iterator interface {
	// Next positions a fresh iterator at its first entry in scan direction,
	// and moves a positioned one to the following entry.
	Next() bool
	Key() []byte
	Value() ([]byte, error)
	Valid() bool
	Error() error
	Close() error
}

// Options are the engine settings shared by every driver.
type Options struct {
	CacheSize   int64
	Sync        bool
	LockTimeout time.Duration
	Logger      zerolog.Logger
}

// Driver opens and destroys engines of a single kind.
type Driver interface {
	Name() string
	Open(path string, opts Options) (KVStore, error)
	// Destroy removes all persisted state at path. The engine must be closed.
	Destroy(path string) error
}
