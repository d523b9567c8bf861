package memory

import (
	"sync/atomic"

	"github.com/eigerco/hubstore/pkg/db"
)

type op struct {
	key    []byte
	value  []byte
	delete bool
}

// Batch applies its operations to a clone of the tree and swaps it in only
// once every operation succeeded.
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
	b.ops = append(b.ops, op{key: clone(key), value: clone(value)})
	return nil
}

func (b *Batch) Delete(key []byte) error {
	if b.done.Load() {
		return ErrBatchDone
	}
	b.ops = append(b.ops, op{key: clone(key), delete: true})
	return nil
}

func (b *Batch) Commit() error {
	if b.done.Load() {
		return ErrBatchDone
	}

	s := b.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	tree := s.tree.Clone()
	for i, o := range b.ops {
		if s.hook != nil {
			if err := s.hook(i, o.key); err != nil {
				return err
			}
		}
		if o.delete {
			tree.Delete(item{key: o.key})
		} else {
			tree.ReplaceOrInsert(item{key: o.key, value: o.value})
		}
	}
	s.tree = tree
	b.done.Store(true)
	b.ops = nil
	return nil
}

func (b *Batch) Close() error {
	b.done.Store(true)
	b.ops = nil
	return nil
}
