package keys

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIncrement(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want []byte
	}{
		{name: "last_byte", in: []byte{0x01, 0x02}, want: []byte{0x01, 0x03}},
		{name: "carry_truncates", in: []byte{0x01, 0xff}, want: []byte{0x02}},
		{name: "carry_several", in: []byte{0x00, 0x7f, 0xff, 0xff}, want: []byte{0x00, 0x80}},
		{name: "single", in: []byte{0x10}, want: []byte{0x11}},
		{name: "all_ff", in: []byte{0xff, 0xff}, want: []byte{0x00, 0x00, 0x00}},
		{name: "single_ff", in: []byte{0xff}, want: []byte{0x00, 0x00}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Increment(tc.in))
		})
	}
}

func TestIncrementDoesNotMutate(t *testing.T) {
	in := []byte{0x01, 0xfe}
	out := Increment(in)

	assert.Equal(t, []byte{0x01, 0xfe}, in)
	assert.Equal(t, []byte{0x01, 0xff}, out)

	out[0] = 0x09
	assert.Equal(t, byte(0x01), in[0])
}

func TestIncrementIsUpperBoundOfPrefixFamily(t *testing.T) {
	prefixes := [][]byte{
		{0x01},
		{0x01, 0x02},
		{0x01, 0xff},
		{0x7f, 0xff, 0xff},
		[]byte("user/"),
	}
	suffixes := [][]byte{nil, {0x00}, {0xff}, {0xff, 0xff, 0xff}, []byte("zzz")}

	for _, p := range prefixes {
		upper := Increment(p)
		assert.True(t, bytes.Compare(p, upper) < 0, "prefix %x must sort before %x", p, upper)

		for _, s := range suffixes {
			k := Join(p, s)
			assert.True(t, bytes.Compare(k, upper) < 0, "key %x must sort before %x", k, upper)
		}
	}
}

func TestJoinAndPageToken(t *testing.T) {
	prefix := []byte("acct/")
	key := Join(prefix, []byte("42"))

	assert.Equal(t, []byte("acct/42"), key)
	assert.Equal(t, []byte("42"), PageToken(prefix, key))
	assert.Equal(t, []byte{}, PageToken(prefix, prefix))
	assert.Nil(t, PageToken(prefix, []byte("other/42")))
	assert.True(t, HasPrefix(key, prefix))

	// Join must not alias its inputs.
	p := make([]byte, 2, 8)
	copy(p, "ab")
	k1 := Join(p, []byte("1"))
	k2 := Join(p, []byte("2"))
	assert.Equal(t, []byte("ab1"), k1)
	assert.Equal(t, []byte("ab2"), k2)
}

func TestEscapePreservesOrder(t *testing.T) {
	sorted := [][]byte{{}, {0x00}, {0x00, 0x00}, {0x01}, {0x01, 0xff}, {0xff}}

	for i := range sorted {
		esc := Escape(sorted[i])
		assert.Equal(t, sorted[i], Unescape(esc))
		assert.NotEmpty(t, esc)
		if i > 0 {
			assert.True(t, bytes.Compare(Escape(sorted[i-1]), esc) < 0, "%x must sort before %x", sorted[i-1], sorted[i])
		}
	}

	assert.Equal(t, []byte{0x00}, Escape(nil))
	assert.Nil(t, EscapeBound(nil))
	assert.Equal(t, []byte{0x00}, EscapeBound([]byte{}))
}
