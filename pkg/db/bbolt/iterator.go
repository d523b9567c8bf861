package bbolt

import (
	"bytes"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/eigerco/hubstore/pkg/db"
	"github.com/eigerco/hubstore/pkg/db/keys"
)

// Iterator walks a bucket cursor inside a read-only transaction that lives
// until Close.
type Iterator struct {
	tx      *bolt.Tx
	cursor  *bolt.Cursor
	opts    db.IterOptions
	started bool
	key     []byte
	value   []byte
}

func (s *KVStore) NewIterator(opts db.IterOptions) (db.Iterator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}

	tx, err := s.db.Begin(false)
	if err != nil {
		return nil, fmt.Errorf("bbolt: begin read transaction: %w", err)
	}
	return &Iterator{
		tx:     tx,
		cursor: tx.Bucket(bucketName).Cursor(),
		opts: db.IterOptions{
			LowerBound: keys.EscapeBound(opts.LowerBound),
			UpperBound: keys.EscapeBound(opts.UpperBound),
			Reverse:    opts.Reverse,
		},
	}, nil
}

func (it *Iterator) Next() bool {
	var k, v []byte
	switch {
	case !it.started && it.opts.Reverse:
		k, v = it.seekLast()
	case !it.started:
		if it.opts.LowerBound == nil {
			k, v = it.cursor.First()
		} else {
			k, v = it.cursor.Seek(it.opts.LowerBound)
		}
	case it.key == nil:
		return false
	case it.opts.Reverse:
		k, v = it.cursor.Prev()
	default:
		k, v = it.cursor.Next()
	}
	it.started = true

	if k == nil || !it.inBounds(k) {
		it.key, it.value = nil, nil
		return false
	}
	it.key, it.value = k, v
	return true
}

// seekLast positions the cursor at the last key below the upper bound.
func (it *Iterator) seekLast() ([]byte, []byte) {
	if it.opts.UpperBound == nil {
		return it.cursor.Last()
	}
	k, _ := it.cursor.Seek(it.opts.UpperBound)
	if k == nil {
		return it.cursor.Last()
	}
	return it.cursor.Prev()
}

func (it *Iterator) inBounds(k []byte) bool {
	if it.opts.LowerBound != nil && bytes.Compare(k, it.opts.LowerBound) < 0 {
		return false
	}
	if it.opts.UpperBound != nil && bytes.Compare(k, it.opts.UpperBound) >= 0 {
		return false
	}
	return true
}

func (it *Iterator) Key() []byte {
	if it.key == nil {
		return nil
	}
	return keys.Unescape(it.key)
}

func (it *Iterator) Value() ([]byte, error) {
	if it.key == nil {
		return nil, ErrIteratorInvalid
	}
	return clone(it.value), nil
}

func (it *Iterator) Valid() bool {
	return it.key != nil
}

func (it *Iterator) Error() error {
	return nil
}

func (it *Iterator) Close() error {
	return it.tx.Rollback()
}
