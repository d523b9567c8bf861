package store

import (
	"io"

	"github.com/cockroachdb/errors"
	"github.com/vmihailenco/msgpack/v5"
)

// DefaultImportBatchSize is the number of records Import commits at once when
// no size is given.
const DefaultImportBatchSize = 1024

// record is one exported entry in the msgpack stream.
type record struct {
	Key   []byte `msgpack:"k"`
	Value []byte `msgpack:"v"`
}

// Export writes every entry under prefix to w as a stream of msgpack records,
// in key order. An empty prefix exports the whole keyspace. It returns the
// number of records written.
func (s *Store) Export(w io.Writer, prefix []byte) (n int, err error) {
	defer func() { s.metrics.observe("export", err) }()

	bounds := RangeBounds{}
	if len(prefix) > 0 {
		bounds = ResolvePrefixBounds(prefix, PageOptions{})
	}

	enc := msgpack.NewEncoder(w)
	_, err = s.scan("export", bounds, func(key, value []byte) (bool, error) {
		if err := enc.Encode(record{Key: key, Value: value}); err != nil {
			return false, errors.Wrap(err, "encode record")
		}
		n++
		return true, nil
	})
	return n, err
}

// Import reads records produced by Export and commits them in batches of
// batchSize. Records are applied as puts, including ones with an empty value.
// On failure, batches committed before it stay applied.
func (s *Store) Import(r io.Reader, batchSize int) (n int, err error) {
	defer func() { s.metrics.observe("import", err) }()

	if batchSize <= 0 {
		batchSize = DefaultImportBatchSize
	}

	dec := msgpack.NewDecoder(r)
	batch := NewTransactionBatch()
	for {
		var rec record
		err := dec.Decode(&rec)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return n, internalError(err, "decode record %d", n+batch.Len())
		}

		batch.Put(rec.Key, rec.Value)
		if batch.Len() < batchSize {
			continue
		}
		size := batch.Len()
		if err := s.Commit(batch); err != nil {
			return n, err
		}
		n += size
		batch = NewTransactionBatch()
	}

	if size := batch.Len(); size > 0 {
		if err := s.Commit(batch); err != nil {
			return n, err
		}
		n += size
	}
	return n, nil
}
