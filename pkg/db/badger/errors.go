package badger

import (
	"fmt"

	"github.com/eigerco/hubstore/pkg/db"
)

var (
	ErrClosed          = fmt.Errorf("badger: %w", db.ErrClosed)
	ErrNotFound        = fmt.Errorf("badger: %w", db.ErrNotFound)
	ErrBatchDone       = fmt.Errorf("badger: %w", db.ErrBatchDone)
	ErrIteratorInvalid = fmt.Errorf("badger: %w", db.ErrIteratorInvalid)
)
