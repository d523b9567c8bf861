// Package store is the transactional key-value layer a hub node keeps its
// data in. A Store owns one engine instance and exposes point reads, batch
// reads, atomic batch commits, and prefix or range scans driven by a visitor.
package store

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/eigerco/hubstore/pkg/db"
)

// Store is safe for concurrent use. Close and Destroy must not race with
// in-flight operations; they wait for them but callers should drain first.
type Store struct {
	// mu is held shared by every operation and exclusively by Close.
	mu sync.RWMutex
	kv db.KVStore

	driver  db.Driver
	path    string
	cfg     Config
	writer  *semaphore.Weighted
	metrics *metrics
	log     zerolog.Logger
}

// Open opens the store at path, creating it when absent.
func Open(path string, cfg Config) (*Store, error) {
	cfg = cfg.withDefaults()

	driver, ok := drivers[cfg.Engine]
	if !ok {
		return nil, internalError(errors.Newf("engines: %v", Engines()), "unknown engine %q", cfg.Engine)
	}

	abs := path
	if path != "" {
		var err error
		if abs, err = filepath.Abs(path); err != nil {
			return nil, internalError(err, "resolve path %s", path)
		}
	}

	m, err := newMetrics(cfg.Registerer)
	if err != nil {
		return nil, internalError(err, "open %s", abs)
	}

	logger := cfg.Logger.With().Str("path", abs).Str("engine", cfg.Engine).Logger()

	kv, err := driver.Open(abs, cfg.engineOptions())
	if err != nil {
		logger.Error().Err(err).Msg("open storage")
		return nil, internalError(err, "open %s", abs)
	}
	logger.Info().Msg("storage opened")

	return &Store{
		kv:      kv,
		driver:  driver,
		path:    abs,
		cfg:     cfg,
		writer:  semaphore.NewWeighted(1),
		metrics: m,
		log:     logger,
	}, nil
}

// Location returns the absolute path the store was opened at.
func (s *Store) Location() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.kv == nil {
		return "", ErrClosed
	}
	return s.path, nil
}

// Lookup returns the value of key. A missing key is reported through ok, not
// as an error.
func (s *Store) Lookup(key []byte) (value []byte, ok bool, err error) {
	defer func() { s.metrics.observe("get", err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.kv == nil {
		return nil, false, ErrClosed
	}

	value, err = s.kv.Get(key)
	if errors.Is(err, db.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, internalError(err, "get %x", key)
	}
	return value, true, nil
}

// Get is Lookup for callers that treat a missing key as a failure; it
// returns ErrNotFound.
func (s *Store) Get(key []byte) ([]byte, error) {
	value, ok, err := s.Lookup(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &Error{Code: CodeNotFound, Message: fmt.Sprintf("NotFound: key not found: %x", key)}
	}
	return value, nil
}

// GetMany returns one value per key in input order. A missing key yields an
// empty value at its position.
func (s *Store) GetMany(keys [][]byte) (values [][]byte, err error) {
	defer func() { s.metrics.observe("get_many", err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.kv == nil {
		return nil, ErrClosed
	}

	values, err = s.kv.MultiGet(keys)
	if err != nil {
		return nil, internalError(err, "get %d keys", len(keys))
	}
	for i := range values {
		if values[i] == nil {
			values[i] = []byte{}
		}
	}
	return values, nil
}

func (s *Store) Put(key, value []byte) (err error) {
	defer func() { s.metrics.observe("put", err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.kv == nil {
		return ErrClosed
	}
	if err := s.kv.Put(key, value); err != nil {
		return internalError(err, "put %x", key)
	}
	return nil
}

func (s *Store) Delete(key []byte) (err error) {
	defer func() { s.metrics.observe("delete", err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.kv == nil {
		return ErrClosed
	}
	if err := s.kv.Delete(key); err != nil {
		return internalError(err, "delete %x", key)
	}
	return nil
}

// NewTransaction returns an empty batch for Commit.
func (s *Store) NewTransaction() *TransactionBatch {
	return NewTransactionBatch()
}

// Commit applies every operation of batch atomically, in order. Either all
// of them become visible or none do. The batch is consumed even when the
// commit fails. Commits are serialized; waiting longer than the configured
// lock timeout fails with ErrLockTimeout.
func (s *Store) Commit(batch *TransactionBatch) (err error) {
	defer func() { s.metrics.observe("commit", err) }()

	if batch == nil {
		return internalError(errors.New("nil batch"), "commit")
	}
	if batch.consumed {
		return internalError(db.ErrBatchDone, "commit")
	}
	batch.consumed = true
	ops := batch.ops
	batch.ops = nil

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.kv == nil {
		return ErrClosed
	}
	return s.commit(ops)
}

func (s *Store) commit(ops []PendingOperation) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.LockTimeout)
	defer cancel()

	if err := s.writer.Acquire(ctx, 1); err != nil {
		return &Error{
			Code:    CodeLockTimeout,
			Message: fmt.Sprintf("waited %s for the transaction lock", s.cfg.LockTimeout),
			Err:     err,
		}
	}
	defer s.writer.Release(1)

	b := s.kv.NewBatch()
	defer b.Close() //nolint:errcheck

	for _, op := range ops {
		switch op.Kind {
		case OpDelete:
			if err := b.Delete(op.Key); err != nil {
				return internalError(err, "delete %x", op.Key)
			}
		default:
			if err := b.Put(op.Key, op.Value); err != nil {
				return internalError(err, "put %x", op.Key)
			}
		}
	}

	if err := b.Commit(); err != nil {
		s.log.Error().Err(err).Int("ops", len(ops)).Msg("commit transaction")
		return internalError(err, "commit %d operations", len(ops))
	}
	return nil
}

// ForEachByPrefix visits every entry whose key starts with prefix, ascending
// or, with page.Reverse, descending. An empty prefix scans the whole keyspace
// below 0xff. Pagination is driven by the caller through page.PageToken.
func (s *Store) ForEachByPrefix(prefix []byte, page PageOptions, fn Visitor) (err error) {
	defer func() { s.metrics.observe("scan_prefix", err) }()

	_, err = s.scan("prefix", ResolvePrefixBounds(prefix, page), fn)
	return err
}

// ForEachByOptions visits every entry inside explicit gte/gt and lt bounds.
// Malformed options fail with ErrInvalidIteratorOptions before any read.
func (s *Store) ForEachByOptions(opts IteratorOptions, fn Visitor) (err error) {
	defer func() { s.metrics.observe("scan_options", err) }()

	bounds, err := ResolveExplicitBounds(opts)
	if err != nil {
		return err
	}
	_, err = s.scan("options", bounds, fn)
	return err
}

func (s *Store) scan(kind string, bounds RangeBounds, fn Visitor) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.kv == nil {
		return 0, ErrClosed
	}

	iter, err := s.kv.NewIterator(bounds.iterOptions())
	if err != nil {
		return 0, internalError(err, "open iterator")
	}
	defer iter.Close() //nolint:errcheck

	visited, err := walk(iter, bounds, fn)
	s.metrics.observeScan(kind, visited)
	return visited, err
}

// Clear deletes every entry, one committed pass at a time, until a pass finds
// nothing left. Entries written concurrently are picked up by a later pass.
// It returns the total number of deletes committed.
func (s *Store) Clear() (total int, err error) {
	defer func() { s.metrics.observe("clear", err) }()

	start := time.Now()
	for {
		batch := NewTransactionBatch()
		_, err := s.scan("clear", RangeBounds{}, func(key, _ []byte) (bool, error) {
			batch.Delete(bytes.Clone(key))
			return true, nil
		})
		if err != nil {
			return total, err
		}
		if batch.Len() == 0 {
			break
		}

		deleted := batch.Len()
		if err := s.Commit(batch); err != nil {
			return total, err
		}
		total += deleted
	}

	s.log.Info().Int("deleted", total).Dur("took", time.Since(start)).Msg("storage cleared")
	return total, nil
}

// ApproximateSize has no estimator behind it and always reports zero.
func (s *Store) ApproximateSize() uint64 {
	return 0
}

// Close releases the engine. Closing a closed store is a no-op.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.kv == nil {
		return nil
	}

	err := s.kv.Close()
	s.kv = nil
	if err != nil {
		s.log.Error().Err(err).Msg("close storage")
		return internalError(err, "close %s", s.path)
	}
	s.log.Info().Msg("storage closed")
	return nil
}

// Destroy closes the store and irreversibly removes everything persisted at
// its path.
func (s *Store) Destroy() error {
	if err := s.Close(); err != nil {
		return err
	}
	if err := s.driver.Destroy(s.path); err != nil {
		s.log.Error().Err(err).Msg("destroy storage")
		return internalError(err, "destroy %s", s.path)
	}
	s.log.Warn().Msg("storage destroyed")
	return nil
}
