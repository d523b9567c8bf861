// Package dbtest is the conformance suite every engine driver must pass.
package dbtest

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eigerco/hubstore/pkg/db"
)

// Opener returns a fresh, empty engine for one sub-test.
type Opener func(t *testing.T) db.KVStore

// Run runs the whole suite against the engines returned by open.
func Run(t *testing.T, open Opener) {
	tests := []struct {
		name string
		fn   func(t *testing.T, store db.KVStore)
	}{
		{name: "basic_put_get", fn: testBasicPutGet},
		{name: "delete_operations", fn: testDelete},
		{name: "empty_key", fn: testEmptyKey},
		{name: "multi_get_soft_miss", fn: testMultiGet},
		{name: "basic_batch_operations", fn: testBasicBatchOperations},
		{name: "batch_commit_closure", fn: testBatchCommitAndClose},
		{name: "batch_discarded_on_close", fn: testBatchDiscardedOnClose},
		{name: "full_range_iteration", fn: testFullRangeIteration},
		{name: "bounded_range_iteration", fn: testBoundedRangeIteration},
		{name: "reverse_iteration", fn: testReverseIteration},
		{name: "iterator_validity", fn: testIteratorValidity},
		{name: "concurrent_readers", fn: testConcurrentReaders},
		{name: "store_closure", fn: testStoreClosure},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := open(t)
			defer store.Close() //nolint:errcheck

			tc.fn(t, store)
		})
	}
}

func testBasicPutGet(t *testing.T, store db.KVStore) {
	key := []byte("test-key")
	value := []byte("test-value")

	require.NoError(t, store.Put(key, value))

	retrieved, err := store.Get(key)
	require.NoError(t, err)
	assert.Equal(t, value, retrieved)

	// Overwrite supersedes prior state
	require.NoError(t, store.Put(key, []byte("second")))
	retrieved, err = store.Get(key)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), retrieved)

	_, err = store.Get([]byte("non-existent"))
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func testDelete(t *testing.T, store db.KVStore) {
	key := []byte("delete-test")

	require.NoError(t, store.Put(key, []byte("to-be-deleted")))
	require.NoError(t, store.Delete(key))

	_, err := store.Get(key)
	assert.ErrorIs(t, err, db.ErrNotFound)

	// Delete non-existent key should not error
	assert.NoError(t, store.Delete([]byte("non-existent")))
}

func testEmptyKey(t *testing.T, store db.KVStore) {
	putAll(t, store, "", "a")

	value, err := store.Get([]byte{})
	require.NoError(t, err)
	assert.Equal(t, []byte("value-"), value)

	values, err := store.MultiGet([][]byte{{}, []byte("a")})
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("value-"), []byte("value-a")}, values)

	// The empty key sorts before every other key
	assert.Equal(t, []string{"", "a"}, collect(t, store, db.IterOptions{}))
	assert.Equal(t, []string{"", "a"}, collect(t, store, db.IterOptions{LowerBound: []byte{}}))
	assert.Equal(t, []string{""}, collect(t, store, db.IterOptions{UpperBound: []byte("a")}))
	assert.Equal(t, []string{"a", ""}, collect(t, store, db.IterOptions{Reverse: true}))

	batch := store.NewBatch()
	require.NoError(t, batch.Delete([]byte{}))
	require.NoError(t, batch.Commit())

	_, err = store.Get([]byte{})
	assert.ErrorIs(t, err, db.ErrNotFound)
	assert.Equal(t, []string{"a"}, collect(t, store, db.IterOptions{}))
}

func testMultiGet(t *testing.T, store db.KVStore) {
	require.NoError(t, store.Put([]byte("a"), []byte("1")))
	require.NoError(t, store.Put([]byte("c"), []byte("3")))

	values, err := store.MultiGet([][]byte{[]byte("c"), []byte("b"), []byte("a")})
	require.NoError(t, err)
	require.Len(t, values, 3)
	assert.Equal(t, []byte("3"), values[0])
	assert.Nil(t, values[1])
	assert.Equal(t, []byte("1"), values[2])

	values, err = store.MultiGet(nil)
	require.NoError(t, err)
	assert.Empty(t, values)
}

func testBasicBatchOperations(t *testing.T, store db.KVStore) {
	batch := store.NewBatch()
	defer batch.Close() //nolint:errcheck

	keys := [][]byte{[]byte("key1"), []byte("key2"), []byte("key3")}
	values := [][]byte{[]byte("value1"), []byte("value2"), []byte("value3")}

	for i := range keys {
		require.NoError(t, batch.Put(keys[i], values[i]))
	}

	// Delete one key in the same batch
	require.NoError(t, batch.Delete(keys[1]))

	// Nothing is visible before commit
	_, err := store.Get(keys[0])
	assert.ErrorIs(t, err, db.ErrNotFound)

	require.NoError(t, batch.Commit())

	val1, err := store.Get(keys[0])
	require.NoError(t, err)
	assert.Equal(t, values[0], val1)

	_, err = store.Get(keys[1])
	assert.ErrorIs(t, err, db.ErrNotFound)

	val3, err := store.Get(keys[2])
	require.NoError(t, err)
	assert.Equal(t, values[2], val3)
}

func testBatchCommitAndClose(t *testing.T, store db.KVStore) {
	batch := store.NewBatch()

	require.NoError(t, batch.Put([]byte("key"), []byte("value")))
	require.NoError(t, batch.Commit())

	// Operations after commit should fail
	assert.ErrorIs(t, batch.Put([]byte("key2"), []byte("value2")), db.ErrBatchDone)
	assert.ErrorIs(t, batch.Delete([]byte("key2")), db.ErrBatchDone)
	assert.ErrorIs(t, batch.Commit(), db.ErrBatchDone)

	// Close and double close should not error
	assert.NoError(t, batch.Close())
	assert.NoError(t, batch.Close())
}

func testBatchDiscardedOnClose(t *testing.T, store db.KVStore) {
	batch := store.NewBatch()
	require.NoError(t, batch.Put([]byte("discarded"), []byte("value")))
	require.NoError(t, batch.Close())

	assert.ErrorIs(t, batch.Commit(), db.ErrBatchDone)

	_, err := store.Get([]byte("discarded"))
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func putAll(t *testing.T, store db.KVStore, keys ...string) {
	for _, k := range keys {
		require.NoError(t, store.Put([]byte(k), []byte("value-"+k)))
	}
}

func collect(t *testing.T, store db.KVStore, opts db.IterOptions) []string {
	iter, err := store.NewIterator(opts)
	require.NoError(t, err)
	defer iter.Close() //nolint:errcheck

	var seen []string
	for iter.Next() {
		value, err := iter.Value()
		require.NoError(t, err)
		assert.Equal(t, "value-"+string(iter.Key()), string(value))
		seen = append(seen, string(iter.Key()))
	}
	require.NoError(t, iter.Error())
	return seen
}

func testFullRangeIteration(t *testing.T, store db.KVStore) {
	putAll(t, store, "d", "b", "a", "c")

	assert.Equal(t, []string{"a", "b", "c", "d"}, collect(t, store, db.IterOptions{}))
}

func testBoundedRangeIteration(t *testing.T, store db.KVStore) {
	putAll(t, store, "a", "b", "c", "d", "e")

	assert.Equal(t, []string{"b", "c", "d"},
		collect(t, store, db.IterOptions{LowerBound: []byte("b"), UpperBound: []byte("e")}))
	assert.Equal(t, []string{"a", "b"},
		collect(t, store, db.IterOptions{UpperBound: []byte("c")}))
	assert.Equal(t, []string{"d", "e"},
		collect(t, store, db.IterOptions{LowerBound: []byte("cc")}))
	assert.Empty(t,
		collect(t, store, db.IterOptions{LowerBound: []byte("x"), UpperBound: []byte("z")}))
}

func testReverseIteration(t *testing.T, store db.KVStore) {
	putAll(t, store, "a", "b", "c", "d", "e")

	assert.Equal(t, []string{"e", "d", "c", "b", "a"},
		collect(t, store, db.IterOptions{Reverse: true}))
	assert.Equal(t, []string{"d", "c", "b"},
		collect(t, store, db.IterOptions{LowerBound: []byte("b"), UpperBound: []byte("e"), Reverse: true}))
	assert.Equal(t, []string{"c", "b"},
		collect(t, store, db.IterOptions{LowerBound: []byte("aa"), UpperBound: []byte("cc"), Reverse: true}))
	assert.Empty(t,
		collect(t, store, db.IterOptions{LowerBound: []byte("0"), UpperBound: []byte("a"), Reverse: true}))
}

func testIteratorValidity(t *testing.T, store db.KVStore) {
	putAll(t, store, "key1", "key2")

	iter, err := store.NewIterator(db.IterOptions{})
	require.NoError(t, err)
	defer iter.Close() //nolint:errcheck

	// Initial state - iterator is not positioned
	assert.False(t, iter.Valid())

	assert.True(t, iter.Next())
	assert.True(t, iter.Valid())
	assert.Equal(t, []byte("key1"), iter.Key())

	assert.True(t, iter.Next())
	assert.Equal(t, []byte("key2"), iter.Key())

	// No more elements
	assert.False(t, iter.Next())
	assert.False(t, iter.Valid())

	_, err = iter.Value()
	assert.ErrorIs(t, err, db.ErrIteratorInvalid)
}

func testConcurrentReaders(t *testing.T, store db.KVStore) {
	for i := 0; i < 50; i++ {
		k := fmt.Sprintf("k%03d", i)
		require.NoError(t, store.Put([]byte(k), []byte("value-"+k)))
	}

	var wg sync.WaitGroup
	counts := make([]int, 8)
	for r := range counts {
		wg.Add(1)
		go func(r int) {
			defer wg.Done()
			iter, err := store.NewIterator(db.IterOptions{Reverse: r%2 == 1})
			if err != nil {
				return
			}
			defer iter.Close() //nolint:errcheck
			for iter.Next() {
				counts[r]++
			}
		}(r)
	}
	wg.Wait()

	for _, c := range counts {
		assert.Equal(t, 50, c)
	}
}

func testStoreClosure(t *testing.T, store db.KVStore) {
	require.NoError(t, store.Close())

	_, err := store.Get([]byte("key"))
	assert.ErrorIs(t, err, db.ErrClosed)

	_, err = store.MultiGet([][]byte{[]byte("key")})
	assert.ErrorIs(t, err, db.ErrClosed)

	assert.ErrorIs(t, store.Put([]byte("key"), []byte("value")), db.ErrClosed)
	assert.ErrorIs(t, store.Delete([]byte("key")), db.ErrClosed)

	_, err = store.NewIterator(db.IterOptions{})
	assert.ErrorIs(t, err, db.ErrClosed)

	assert.Error(t, store.NewBatch().Commit())

	// Double close should not error
	assert.NoError(t, store.Close())
}
