package store

// OpKind tags a pending batch operation.
type OpKind uint8

const (
	OpPut OpKind = iota
	OpDelete
)

// PendingOperation is one queued write of a TransactionBatch.
type PendingOperation struct {
	Kind  OpKind
	Key   []byte
	Value []byte
}

// TransactionBatch is an ordered list of puts and deletes that Store.Commit
// applies atomically. It is not safe for concurrent use and is consumed by
// the commit.
type TransactionBatch struct {
	ops      []PendingOperation
	consumed bool
}

// NewTransactionBatch returns an empty batch.
func NewTransactionBatch() *TransactionBatch {
	return &TransactionBatch{}
}

func (b *TransactionBatch) Put(key, value []byte) {
	b.ops = append(b.ops, PendingOperation{Kind: OpPut, Key: key, Value: value})
}

func (b *TransactionBatch) Delete(key []byte) {
	b.ops = append(b.ops, PendingOperation{Kind: OpDelete, Key: key})
}

// Len is the number of queued operations.
func (b *TransactionBatch) Len() int {
	return len(b.ops)
}

// Operations returns the queued operations in insertion order.
func (b *TransactionBatch) Operations() []PendingOperation {
	return b.ops
}

// Entry is a batch entry as it crosses the binding boundary.
type Entry struct {
	Key   []byte
	Value []byte
}

// BatchFromEntries builds a batch from boundary entries. An entry without a
// value, or with an empty one, is a delete; there is no way to put an empty
// value through this path.
func BatchFromEntries(entries []Entry) *TransactionBatch {
	b := NewTransactionBatch()
	for _, e := range entries {
		if len(e.Value) == 0 {
			b.Delete(e.Key)
			continue
		}
		b.Put(e.Key, e.Value)
	}
	return b
}
