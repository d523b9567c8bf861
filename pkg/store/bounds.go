package store

import (
	"github.com/eigerco/hubstore/pkg/db"
	"github.com/eigerco/hubstore/pkg/db/keys"
)

// PageOptions describe the direction of a prefix scan and where it resumes.
// PageToken is the suffix, after the prefix, of the last key the previous
// page visited. An empty token means the scan starts from the edge.
type PageOptions struct {
	Reverse   bool
	PageToken []byte
}

// IteratorOptions describe a scan over explicit bounds. Exactly one of Gte
// and Gt must be non-nil. Lt is required and always exclusive.
type IteratorOptions struct {
	Reverse bool
	Gte     []byte
	Gt      []byte
	Lt      []byte
}

// RangeBounds is the resolved, engine-facing window [Lower, Upper). When
// LowerExclusive is set an entry equal to Lower at the first position of the
// scan is skipped.
type RangeBounds struct {
	Lower          []byte
	LowerExclusive bool
	Upper          []byte
	Reverse        bool
}

// ResolvePrefixBounds turns a prefix and page options into a half-open window
// covering exactly the prefix family, minus what earlier pages already visited.
func ResolvePrefixBounds(prefix []byte, page PageOptions) RangeBounds {
	if len(prefix) == 0 {
		return RangeBounds{
			Lower:   []byte{},
			Upper:   []byte{0xff},
			Reverse: page.Reverse,
		}
	}

	hasToken := len(page.PageToken) > 0
	b := RangeBounds{Reverse: page.Reverse}

	if page.Reverse {
		b.Lower = keys.Join(prefix, nil)
		if hasToken {
			b.Upper = keys.Join(prefix, page.PageToken)
		} else {
			b.Upper = keys.Increment(prefix)
		}
		return b
	}

	if hasToken {
		// The token names the last key seen, so resume strictly after it
		b.Lower = keys.Increment(keys.Join(prefix, page.PageToken))
	} else {
		b.Lower = keys.Join(prefix, nil)
	}
	b.Upper = keys.Increment(prefix)
	return b
}

// ResolveExplicitBounds validates gte/gt/lt options and turns them into a
// window. It fails before touching the engine.
func ResolveExplicitBounds(opts IteratorOptions) (RangeBounds, error) {
	if opts.Gte != nil && opts.Gt != nil {
		return RangeBounds{}, invalidOptions("gte and gt cannot be set at the same time")
	}
	if opts.Gte == nil && opts.Gt == nil {
		return RangeBounds{}, invalidOptions("gte or gt must be set")
	}
	if opts.Lt == nil {
		return RangeBounds{}, invalidOptions("lt must be set")
	}

	b := RangeBounds{
		Lower:   opts.Gte,
		Upper:   opts.Lt,
		Reverse: opts.Reverse,
	}
	if opts.Gt != nil {
		b.Lower = opts.Gt
		b.LowerExclusive = true
	}
	return b, nil
}

func (b RangeBounds) iterOptions() db.IterOptions {
	return db.IterOptions{
		LowerBound: b.Lower,
		UpperBound: b.Upper,
		Reverse:    b.Reverse,
	}
}
