package bbolt

import (
	"sync/atomic"

	bolt "go.etcd.io/bbolt"

	"github.com/eigerco/hubstore/pkg/db"
	"github.com/eigerco/hubstore/pkg/db/keys"
)

type op struct {
	key    []byte
	value  []byte
	delete bool
}

// Batch buffers operations and applies them in one bbolt read-write
// transaction on Commit.
type Batch struct {
	store *KVStore
	ops   []op
	done  atomic.Bool
}

func (s *KVStore) NewBatch() db.Batch {
	return &Batch{store: s}
}

func (b *Batch) Put(key, value []byte) error {
	if b.done.Load() {
		return ErrBatchDone
	}
	b.ops = append(b.ops, op{key: keys.Escape(key), value: clone(value)})
	return nil
}

func (b *Batch) Delete(key []byte) error {
	if b.done.Load() {
		return ErrBatchDone
	}
	b.ops = append(b.ops, op{key: keys.Escape(key), delete: true})
	return nil
}

func (b *Batch) Commit() error {
	if b.done.Load() {
		return ErrBatchDone
	}

	b.store.mu.RLock()
	defer b.store.mu.RUnlock()
	if b.store.closed {
		return ErrClosed
	}

	err := b.store.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketName)
		for _, o := range b.ops {
			if o.delete {
				if err := bucket.Delete(o.key); err != nil {
					return err
				}
				continue
			}
			if err := bucket.Put(o.key, o.value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	b.done.Store(true)
	b.ops = nil
	return nil
}

func (b *Batch) Close() error {
	b.done.Store(true)
	b.ops = nil
	return nil
}

func clone(b []byte) []byte {
	c := make([]byte, len(b))
	copy(c, b)
	return c
}
