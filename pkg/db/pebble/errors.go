package pebble

import (
	"fmt"

	"github.com/eigerco/hubstore/pkg/db"
)

var (
	ErrClosed          = fmt.Errorf("pebble: %w", db.ErrClosed)
	ErrNotFound        = fmt.Errorf("pebble: %w", db.ErrNotFound)
	ErrBatchDone       = fmt.Errorf("pebble: %w", db.ErrBatchDone)
	ErrIteratorInvalid = fmt.Errorf("pebble: %w", db.ErrIteratorInvalid)
)

const (
	ErrInIteratorCreation = "pebble: create iterator: %w"
	ErrIteratorValue      = "pebble: read iterator value: %w"
)
