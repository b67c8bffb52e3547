package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
)

const (
	SaltSize  = 32 // Salt size in bytes
	KeySize   = 32 // Twofish-256 key size, also the size of K and L
	BlockSize = 16 // Twofish block size
	HashSize  = 32 // SHA-256 digest size
	TagSize   = 32 // HMAC-SHA256 tag size
)

var (
	ErrInvalidCiphertext = errors.New("invalid ciphertext")
	ErrInvalidKey        = errors.New("invalid key size")
)

// ClearBytes zeroes key material and plaintext held in b
func ClearBytes(b []byte) {
	clear(b)
}

// ConstantTimeCompare performs a constant-time comparison of two byte slices
func ConstantTimeCompare(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

// GenerateRandom returns n bytes from the system CSPRNG, used for salts,
// keys, IVs and block padding
func GenerateRandom(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return b, nil
}
