package badger

import (
	"sync/atomic"

	"github.com/eigerco/hubstore/pkg/db"
	"github.com/eigerco/hubstore/pkg/db/keys"
)

type op struct {
	key    []byte
	value  []byte
	delete bool
}

// Batch buffers operations and applies them in one badger read-write
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

	txn := b.store.db.NewTransaction(true)
	defer txn.Discard()

	for _, o := range b.ops {
		var err error
		if o.delete {
			err = txn.Delete(o.key)
		} else {
			err = txn.Set(o.key, o.value)
		}
		if err != nil {
			return err
		}
	}
	if err := txn.Commit(); err != nil {
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
