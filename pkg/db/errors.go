package db

import "errors"

// Engine sentinels. Each driver wraps these so callers can match failures
// without knowing which engine produced them.
var (
	ErrClosed          = errors.New("database is closed")
	ErrNotFound        = errors.New("key not found")
	ErrBatchDone       = errors.New("batch already committed or closed")
	ErrIteratorInvalid = errors.New("iterator is not positioned")
)
