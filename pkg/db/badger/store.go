package badger

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/dgraph-io/badger"

	"github.com/eigerco/hubstore/pkg/db"
	"github.com/eigerco/hubstore/pkg/db/keys"
)

// Name is the engine name the storage handle selects this driver by.
const Name = "badger"

var _ db.KVStore = (*KVStore)(nil)

// KVStore stores keys escaped, since badger refuses the empty key.
type KVStore struct {
	db     *badger.DB
	path   string
	closed bool
	mu     sync.RWMutex
}

// Driver opens badger engines.
type Driver struct{}

func (Driver) Name() string { return Name }

func (Driver) Open(path string, opts db.Options) (db.KVStore, error) {
	return NewKVStore(path, opts)
}

func (Driver) Destroy(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("badger: destroy %s: %w", path, err)
	}
	return nil
}

// NewKVStore opens the badger directory at path, creating it when absent.
func NewKVStore(path string, opts db.Options) (*KVStore, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("badger: create %s: %w", path, err)
	}

	bopts := badger.DefaultOptions(path).
		WithLogger(engineLogger{log: opts.Logger}).
		WithSyncWrites(opts.Sync)

	bdb, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("badger: open %s: %w", path, err)
	}
	return &KVStore{db: bdb, path: path}, nil
}

func (s *KVStore) Path() string {
	return s.path
}

func get(txn *badger.Txn, key []byte) ([]byte, error) {
	item, err := txn.Get(keys.Escape(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

func (s *KVStore) Get(key []byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}

	var result []byte
	err := s.db.View(func(txn *badger.Txn) error {
		value, err := get(txn, key)
		result = value
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *KVStore) MultiGet(ks [][]byte) ([][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}

	results := make([][]byte, len(ks))
	err := s.db.View(func(txn *badger.Txn) error {
		for i, key := range ks {
			value, err := get(txn, key)
			if errors.Is(err, ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			results[i] = value
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (s *KVStore) Put(key, value []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrClosed
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(keys.Escape(key), value)
	})
}

func (s *KVStore) Delete(key []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrClosed
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(keys.Escape(key))
	})
}

func (s *KVStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
