package pebble

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"

	"github.com/eigerco/hubstore/pkg/db"
)

// Name is the engine name the storage handle selects this driver by.
const Name = "pebble"

const defaultCacheSize = 64 << 20

type KVStore struct {
	db     *pebble.DB
	path   string
	sync   bool
	closed bool
	mu     sync.RWMutex
}

// Driver opens pebble engines on the local filesystem.
type Driver struct{}

func (Driver) Name() string { return Name }

func (Driver) Open(path string, opts db.Options) (db.KVStore, error) {
	return NewKVStore(path, opts)
}

// Destroy removes the pebble directory at path.
func (Driver) Destroy(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("pebble: destroy %s: %w", path, err)
	}
	return nil
}

// NewKVStore opens the pebble store at path, creating it when absent.
func NewKVStore(path string, opts db.Options) (*KVStore, error) {
	return open(path, opts, nil)
}

// NewMemKVStore opens a pebble store backed by an in-memory filesystem.
func NewMemKVStore() (*KVStore, error) {
	return open("", db.Options{Sync: true}, vfs.NewMem())
}

func open(path string, opts db.Options, fs vfs.FS) (*KVStore, error) {
	cacheSize := opts.CacheSize
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	cache := pebble.NewCache(cacheSize)
	defer cache.Unref()

	popts := &pebble.Options{
		Cache:        cache,
		MemTableSize: 32 << 20,
		Logger:       engineLogger{log: opts.Logger},
		FS:           fs,
	}

	pdb, err := pebble.Open(path, popts)
	if err != nil {
		return nil, fmt.Errorf("pebble: open %s: %w", path, err)
	}

	return &KVStore{db: pdb, path: path, sync: opts.Sync}, nil
}

func (p *KVStore) writeOpts() *pebble.WriteOptions {
	if p.sync {
		return pebble.Sync
	}
	return pebble.NoSync
}

func (p *KVStore) Path() string {
	return p.path
}

func (p *KVStore) Get(key []byte) ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return nil, ErrClosed
	}

	return p.get(key)
}

func (p *KVStore) get(key []byte) ([]byte, error) {
	value, closer, err := p.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close() //nolint:errcheck

	result := make([]byte, len(value))
	copy(result, value)
	return result, nil
}

func (p *KVStore) MultiGet(keys [][]byte) ([][]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return nil, ErrClosed
	}

	results := make([][]byte, len(keys))
	for i, key := range keys {
		value, err := p.get(key)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		results[i] = value
	}
	return results, nil
}

func (p *KVStore) Put(key, value []byte) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrClosed
	}

	return p.db.Set(key, value, p.writeOpts())
}

func (p *KVStore) Delete(key []byte) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrClosed
	}

	return p.db.Delete(key, p.writeOpts())
}

func (p *KVStore) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	return p.db.Close()
}
