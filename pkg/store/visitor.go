package store

import (
	"bytes"

	"github.com/eigerco/hubstore/pkg/db"
)

// Visitor is called once per entry of a scan. key and value are only valid
// for the duration of the call and must be copied to be retained. Returning
// false stops the scan without error. A returned error aborts the scan and is
// propagated to the caller wrapped as an internal error.
//
// The store holds its read lock for the whole scan. A visitor must not call
// back into the same Store: if Close is waiting for the lock, the nested call
// queues behind it and the scan deadlocks. Collect what is needed and act on
// it after the scan returns, as Clear does.
type Visitor func(key, value []byte) (bool, error)

// walk drives iter over the window described by bounds, invoking fn for each
// entry until the window is exhausted or fn stops it. It returns the number of
// entries handed to fn.
func walk(iter db.Iterator, bounds RangeBounds, fn Visitor) (int, error) {
	visited := 0
	for iter.Next() {
		key := iter.Key()
		// The engine bound is inclusive, so gt is enforced here. The lower key
		// can only show up first in a forward scan or last in a reverse one.
		if bounds.LowerExclusive && bytes.Equal(key, bounds.Lower) {
			continue
		}

		value, err := iter.Value()
		if err != nil {
			return visited, internalError(err, "read value of %x", key)
		}

		visited++
		cont, err := fn(key, value)
		if err != nil {
			return visited, internalError(err, "visitor failed at %x", key)
		}
		if !cont {
			return visited, nil
		}
	}

	if err := iter.Error(); err != nil {
		return visited, internalError(err, "iterate")
	}
	return visited, nil
}
