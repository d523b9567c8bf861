package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePrefixBounds(t *testing.T) {
	prefix := []byte{0x01, 0x02}

	tests := []struct {
		name   string
		prefix []byte
		page   PageOptions
		want   RangeBounds
	}{
		{
			name:   "empty_prefix_forward",
			prefix: nil,
			want:   RangeBounds{Lower: []byte{}, Upper: []byte{0xff}},
		},
		{
			name:   "empty_prefix_reverse",
			prefix: []byte{},
			page:   PageOptions{Reverse: true, PageToken: []byte{0x05}},
			want:   RangeBounds{Lower: []byte{}, Upper: []byte{0xff}, Reverse: true},
		},
		{
			name:   "forward",
			prefix: prefix,
			want:   RangeBounds{Lower: []byte{0x01, 0x02}, Upper: []byte{0x01, 0x03}},
		},
		{
			name:   "forward_with_token",
			prefix: prefix,
			page:   PageOptions{PageToken: []byte{0x07}},
			want:   RangeBounds{Lower: []byte{0x01, 0x02, 0x08}, Upper: []byte{0x01, 0x03}},
		},
		{
			name:   "forward_with_ff_token",
			prefix: prefix,
			page:   PageOptions{PageToken: []byte{0x07, 0xff}},
			want:   RangeBounds{Lower: []byte{0x01, 0x02, 0x08}, Upper: []byte{0x01, 0x03}},
		},
		{
			name:   "reverse",
			prefix: prefix,
			page:   PageOptions{Reverse: true},
			want:   RangeBounds{Lower: []byte{0x01, 0x02}, Upper: []byte{0x01, 0x03}, Reverse: true},
		},
		{
			name:   "reverse_with_token",
			prefix: prefix,
			page:   PageOptions{Reverse: true, PageToken: []byte{0x07}},
			want:   RangeBounds{Lower: []byte{0x01, 0x02}, Upper: []byte{0x01, 0x02, 0x07}, Reverse: true},
		},
		{
			name:   "prefix_ending_in_ff",
			prefix: []byte{0x01, 0xff},
			want:   RangeBounds{Lower: []byte{0x01, 0xff}, Upper: []byte{0x02}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ResolvePrefixBounds(tc.prefix, tc.page)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestResolvePrefixBoundsDoesNotAliasPrefix(t *testing.T) {
	prefix := make([]byte, 2, 16)
	copy(prefix, []byte{0x01, 0x02})

	b := ResolvePrefixBounds(prefix, PageOptions{})
	b.Lower[0] = 0x09

	assert.Equal(t, []byte{0x01, 0x02}, prefix)
}

func TestResolveExplicitBounds(t *testing.T) {
	t.Run("gte", func(t *testing.T) {
		b, err := ResolveExplicitBounds(IteratorOptions{Gte: []byte{0x10}, Lt: []byte{0x20}})
		require.NoError(t, err)
		assert.Equal(t, RangeBounds{Lower: []byte{0x10}, Upper: []byte{0x20}}, b)
	})

	t.Run("gt_reverse", func(t *testing.T) {
		b, err := ResolveExplicitBounds(IteratorOptions{Gt: []byte{0x10}, Lt: []byte{0x20}, Reverse: true})
		require.NoError(t, err)
		assert.Equal(t, RangeBounds{Lower: []byte{0x10}, LowerExclusive: true, Upper: []byte{0x20}, Reverse: true}, b)
	})

	t.Run("empty_gte_is_set", func(t *testing.T) {
		b, err := ResolveExplicitBounds(IteratorOptions{Gte: []byte{}, Lt: []byte{0x20}})
		require.NoError(t, err)
		assert.Equal(t, []byte{}, b.Lower)
	})

	invalid := []struct {
		name string
		opts IteratorOptions
		msg  string
	}{
		{name: "both", opts: IteratorOptions{Gte: []byte{1}, Gt: []byte{1}, Lt: []byte{2}}, msg: "gte and gt cannot be set at the same time"},
		{name: "neither", opts: IteratorOptions{Lt: []byte{2}}, msg: "gte or gt must be set"},
		{name: "no_lt", opts: IteratorOptions{Gte: []byte{1}}, msg: "lt must be set"},
	}
	for _, tc := range invalid {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ResolveExplicitBounds(tc.opts)
			assert.ErrorIs(t, err, ErrInvalidIteratorOptions)
			assert.Equal(t, CodeInvalidIteratorOptions, CodeOf(err))
			assert.Contains(t, err.Error(), tc.msg)
		})
	}
}
