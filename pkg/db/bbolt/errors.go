package bbolt

import (
	"fmt"

	"github.com/eigerco/hubstore/pkg/db"
)

var (
	ErrClosed          = fmt.Errorf("bbolt: %w", db.ErrClosed)
	ErrNotFound        = fmt.Errorf("bbolt: %w", db.ErrNotFound)
	ErrBatchDone       = fmt.Errorf("bbolt: %w", db.ErrBatchDone)
	ErrIteratorInvalid = fmt.Errorf("bbolt: %w", db.ErrIteratorInvalid)
)
