package memory

import (
	"bytes"

	"github.com/google/btree"

	"github.com/eigerco/hubstore/pkg/db"
)

// Iterator walks a snapshot of the items inside its bounds taken at creation.
type Iterator struct {
	items []item
	idx   int
}

func (s *KVStore) NewIterator(opts db.IterOptions) (db.Iterator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}

	var items []item
	visit := func(i btree.Item) bool {
		it := i.(item)
		if opts.UpperBound != nil && bytes.Compare(it.key, opts.UpperBound) >= 0 {
			return false
		}
		items = append(items, it)
		return true
	}
	if opts.LowerBound == nil {
		s.tree.Ascend(visit)
	} else {
		s.tree.AscendGreaterOrEqual(item{key: opts.LowerBound}, visit)
	}

	if opts.Reverse {
		for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
			items[i], items[j] = items[j], items[i]
		}
	}
	return &Iterator{items: items, idx: -1}, nil
}

func (it *Iterator) Next() bool {
	if it.idx < len(it.items) {
		it.idx++
	}
	return it.Valid()
}

func (it *Iterator) Key() []byte {
	if !it.Valid() {
		return nil
	}
	return clone(it.items[it.idx].key)
}

func (it *Iterator) Value() ([]byte, error) {
	if !it.Valid() {
		return nil, ErrIteratorInvalid
	}
	return clone(it.items[it.idx].value), nil
}

func (it *Iterator) Valid() bool {
	return it.idx >= 0 && it.idx < len(it.items)
}

func (it *Iterator) Error() error {
	return nil
}

func (it *Iterator) Close() error {
	it.items = nil
	return nil
}
