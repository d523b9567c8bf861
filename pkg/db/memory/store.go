// Package memory is an ordered in-memory engine built on a copy-on-write
// B-tree. It never persists anything and is meant for tests and ephemeral
// hubs.
package memory

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/google/btree"

	"github.com/eigerco/hubstore/pkg/db"
)

// Name is the engine name the storage handle selects this driver by.
const Name = "memory"

var (
	ErrClosed          = fmt.Errorf("memory: %w", db.ErrClosed)
	ErrNotFound        = fmt.Errorf("memory: %w", db.ErrNotFound)
	ErrBatchDone       = fmt.Errorf("memory: %w", db.ErrBatchDone)
	ErrIteratorInvalid = fmt.Errorf("memory: %w", db.ErrIteratorInvalid)
)

var _ db.KVStore = (*KVStore)(nil)

type item struct {
	key   []byte
	value []byte
}

func (i item) Less(than btree.Item) bool {
	return bytes.Compare(i.key, than.(item).key) < 0
}

// CommitHook is called before each batch operation is applied. A non-nil
// error aborts the commit and leaves the store untouched.
type CommitHook func(index int, key []byte) error

type KVStore struct {
	mu     sync.RWMutex
	tree   *btree.BTree
	path   string
	closed bool
	hook   CommitHook
}

// Driver opens memory engines. Every Open starts empty.
type Driver struct{}

func (Driver) Name() string { return Name }

func (Driver) Open(path string, _ db.Options) (db.KVStore, error) {
	return NewKVStore(path), nil
}

// Destroy has nothing to remove.
func (Driver) Destroy(string) error {
	return nil
}

func NewKVStore(path string) *KVStore {
	return &KVStore{tree: btree.New(16), path: path}
}

// SetCommitHook installs fn on every subsequent batch commit.
func (s *KVStore) SetCommitHook(fn CommitHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hook = fn
}

func (s *KVStore) Path() string {
	return s.path
}

func (s *KVStore) Get(key []byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}
	found := s.tree.Get(item{key: key})
	if found == nil {
		return nil, ErrNotFound
	}
	return clone(found.(item).value), nil
}

func (s *KVStore) MultiGet(keys [][]byte) ([][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}
	results := make([][]byte, len(keys))
	for i, key := range keys {
		if found := s.tree.Get(item{key: key}); found != nil {
			results[i] = clone(found.(item).value)
		}
	}
	return results, nil
}

func (s *KVStore) Put(key, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.tree.ReplaceOrInsert(item{key: clone(key), value: clone(value)})
	return nil
}

func (s *KVStore) Delete(key []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.tree.Delete(item{key: key})
	return nil
}

func (s *KVStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

func clone(b []byte) []byte {
	c := make([]byte, len(b))
	copy(c, b)
	return c
}
