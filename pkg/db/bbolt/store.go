package bbolt

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/eigerco/hubstore/pkg/db"
	"github.com/eigerco/hubstore/pkg/db/keys"
)

// Name is the engine name the storage handle selects this driver by.
const Name = "bbolt"

const dataFile = "hub.db"

var bucketName = []byte("hub")

// flockRetry is the interval bbolt polls its file lock at. bbolt gives up one
// interval before its Timeout, so the timeout passed to it is padded by it.
const flockRetry = 50 * time.Millisecond

var _ db.KVStore = (*KVStore)(nil)

// KVStore keeps every entry in a single bbolt bucket inside path/hub.db.
// Keys are stored escaped, since bbolt refuses the empty key.
type KVStore struct {
	db     *bolt.DB
	path   string
	closed bool
	mu     sync.RWMutex
}

// Driver opens bbolt engines. The file lock wait is bounded by Options.LockTimeout.
type Driver struct{}

func (Driver) Name() string { return Name }

func (Driver) Open(path string, opts db.Options) (db.KVStore, error) {
	return NewKVStore(path, opts)
}

func (Driver) Destroy(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("bbolt: destroy %s: %w", path, err)
	}
	return nil
}

// NewKVStore opens the bbolt file under path, creating the directory,
// file and bucket when absent.
func NewKVStore(path string, opts db.Options) (*KVStore, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("bbolt: create %s: %w", path, err)
	}

	bdb, err := bolt.Open(filepath.Join(path, dataFile), 0600, &bolt.Options{
		Timeout: lockTimeout(opts.LockTimeout),
		NoSync:  !opts.Sync,
	})
	if err != nil {
		return nil, fmt.Errorf("bbolt: open %s: %w", path, err)
	}

	err = bdb.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		bdb.Close() //nolint:errcheck
		return nil, fmt.Errorf("bbolt: create bucket: %w", err)
	}

	return &KVStore{db: bdb, path: path}, nil
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

	var result []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		value := tx.Bucket(bucketName).Get(keys.Escape(key))
		if value == nil {
			return ErrNotFound
		}
		result = make([]byte, len(value))
		copy(result, value)
		return nil
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
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		for i, key := range ks {
			if value := b.Get(keys.Escape(key)); value != nil {
				results[i] = make([]byte, len(value))
				copy(results[i], value)
			}
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

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put(keys.Escape(key), value)
	})
}

func (s *KVStore) Delete(key []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrClosed
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Delete(keys.Escape(key))
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

// lockTimeout pads d so that bbolt waits at least d for the file lock. Zero
// keeps bbolt's wait-forever behaviour.
func lockTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d + flockRetry
}
