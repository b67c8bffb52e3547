package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
)

// Digest computes HMAC-SHA256 keyed by L over the given field values, in order
func Digest(key []byte, values ...[]byte) []byte {
	mac := hmac.New(sha256.New, key)
	for _, v := range values {
		mac.Write(v)
	}
	return mac.Sum(nil)
}

// Verify recomputes the digest and compares it with tag in constant time
func Verify(key, tag []byte, values ...[]byte) bool {
	return hmac.Equal(Digest(key, values...), tag)
}
