package badger

import (
	"bytes"

	"github.com/dgraph-io/badger"

	"github.com/eigerco/hubstore/pkg/db"
	"github.com/eigerco/hubstore/pkg/db/keys"
)

// Iterator walks a badger iterator inside a read-only transaction that lives
// until Close. Badger fixes the direction when the iterator is created.
type Iterator struct {
	txn     *badger.Txn
	iter    *badger.Iterator
	opts    db.IterOptions
	started bool
	valid   bool
	err     error
}

func (s *KVStore) NewIterator(opts db.IterOptions) (db.Iterator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}

	iopts := badger.DefaultIteratorOptions
	iopts.Reverse = opts.Reverse

	txn := s.db.NewTransaction(false)
	return &Iterator{
		txn:  txn,
		iter: txn.NewIterator(iopts),
		opts: db.IterOptions{
			LowerBound: keys.EscapeBound(opts.LowerBound),
			UpperBound: keys.EscapeBound(opts.UpperBound),
			Reverse:    opts.Reverse,
		},
	}, nil
}

func (it *Iterator) Next() bool {
	if !it.started {
		it.started = true
		it.seekStart()
	} else if it.valid {
		it.iter.Next()
	} else {
		return false
	}

	it.valid = it.iter.Valid() && it.inBounds(it.iter.Item().Key())
	return it.valid
}

func (it *Iterator) seekStart() {
	if !it.opts.Reverse {
		if it.opts.LowerBound == nil {
			it.iter.Rewind()
			return
		}
		it.iter.Seek(it.opts.LowerBound)
		return
	}

	if it.opts.UpperBound == nil {
		it.iter.Rewind()
		return
	}
	// A reverse seek lands on the largest key <= UpperBound, which must be skipped
	// when it equals the exclusive bound.
	it.iter.Seek(it.opts.UpperBound)
	if it.iter.Valid() && bytes.Equal(it.iter.Item().Key(), it.opts.UpperBound) {
		it.iter.Next()
	}
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
	if !it.valid {
		return nil
	}
	return keys.Unescape(it.iter.Item().Key())
}

func (it *Iterator) Value() ([]byte, error) {
	if !it.valid {
		return nil, ErrIteratorInvalid
	}
	value, err := it.iter.Item().ValueCopy(nil)
	if err != nil {
		it.err = err
		return nil, err
	}
	return value, nil
}

func (it *Iterator) Valid() bool {
	return it.valid
}

func (it *Iterator) Error() error {
	return it.err
}

func (it *Iterator) Close() error {
	it.iter.Close()
	it.txn.Discard()
	return nil
}
