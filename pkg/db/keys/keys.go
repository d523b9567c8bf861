// Package keys holds the byte-key helpers used to turn prefixes and page
// tokens into iterator bounds.
package keys

import "bytes"

// Increment returns the lexicographically next key after every key that has
// k as a prefix. The last byte below 0xff is incremented and everything after
// it is dropped. When every byte is 0xff the result is len(k)+1 zero bytes.
//
// Increment of an empty key is not meaningful; callers treat an empty
// prefix as the whole keyspace.
func Increment(k []byte) []byte {
	for i := len(k) - 1; i >= 0; i-- {
		if k[i] < 0xff {
			after := make([]byte, i+1)
			copy(after, k[:i+1])
			after[i]++
			return after
		}
	}

	return make([]byte, len(k)+1)
}

// Join appends the page token to the prefix, returning a new slice.
func Join(prefix, token []byte) []byte {
	key := make([]byte, 0, len(prefix)+len(token))
	key = append(key, prefix...)
	return append(key, token...)
}

// PageToken returns the part of key following prefix, which is what a caller
// passes back to resume a prefix scan after key. It returns nil when key does
// not start with prefix.
func PageToken(prefix, key []byte) []byte {
	if !bytes.HasPrefix(key, prefix) {
		return nil
	}
	token := make([]byte, len(key)-len(prefix))
	copy(token, key[len(prefix):])
	return token
}

// HasPrefix reports whether key belongs to the prefix family.
func HasPrefix(key, prefix []byte) bool {
	return bytes.HasPrefix(key, prefix)
}

// Escape prefixes k with a zero byte, so engines that refuse a zero-length
// key can still store the empty key. Every escaped key shares the prefix, so
// escaped keys sort exactly as the originals.
func Escape(k []byte) []byte {
	escaped := make([]byte, len(k)+1)
	copy(escaped[1:], k)
	return escaped
}

// EscapeBound is Escape for iterator bounds, where nil means unbounded and
// stays nil.
func EscapeBound(b []byte) []byte {
	if b == nil {
		return nil
	}
	return Escape(b)
}

// Unescape returns a copy of an escaped key without its prefix byte.
func Unescape(k []byte) []byte {
	if len(k) == 0 {
		return []byte{}
	}
	key := make([]byte, len(k)-1)
	copy(key, k[1:])
	return key
}
