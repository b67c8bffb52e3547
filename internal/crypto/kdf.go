package crypto

import (
	"crypto/sha256"
	"fmt"
)

// Stretch derives the stretched key P' from a passphrase.
// The caller owns the returned slice and should clear it when done.
func Stretch(passphrase, salt []byte, iterations uint32) []byte {
	h := sha256.New()
	h.Write(passphrase)
	h.Write(salt)
	key := h.Sum(nil)

	for i := uint32(0); i < iterations; i++ {
		sum := sha256.Sum256(key)
		copy(key, sum[:])
		ClearBytes(sum[:])
	}
	return key
}

// HashStretched returns H(P'), the value stored in the file header
func HashStretched(stretched []byte) []byte {
	sum := sha256.Sum256(stretched)
	return sum[:]
}

// VerifyStretched reports whether stretched hashes to storedHash
func VerifyStretched(stretched, storedHash []byte) bool {
	return ConstantTimeCompare(HashStretched(stretched), storedHash)
}

// VerifyPassphrase recomputes P' and compares H(P') with storedHash in
// constant time. On success the stretched key is returned and the caller
// must clear it; on failure it is cleared before returning.
func VerifyPassphrase(passphrase, salt []byte, iterations uint32, storedHash []byte) ([]byte, bool) {
	stretched := Stretch(passphrase, salt, iterations)
	if !VerifyStretched(stretched, storedHash) {
		ClearBytes(stretched)
		return nil, false
	}
	return stretched, true
}

// UnwrapKeys decrypts the wrapped internal keys with the stretched key.
// wrappedK and wrappedL are B1||B2 and B3||B4, 32 bytes each.
func UnwrapKeys(stretched, wrappedK, wrappedL []byte) (k, l []byte, err error) {
	if len(wrappedK) != KeySize || len(wrappedL) != KeySize {
		return nil, nil, fmt.Errorf("%w: wrapped key must be %d bytes", ErrInvalidKey, KeySize)
	}
	k, err = DecryptECB(stretched, wrappedK)
	if err != nil {
		return nil, nil, err
	}
	l, err = DecryptECB(stretched, wrappedL)
	if err != nil {
		ClearBytes(k)
		return nil, nil, err
	}
	return k, l, nil
}

// WrapKeys encrypts K and L with the stretched key, producing B1||B2 and B3||B4
func WrapKeys(stretched, k, l []byte) (wrappedK, wrappedL []byte, err error) {
	if len(k) != KeySize || len(l) != KeySize {
		return nil, nil, fmt.Errorf("%w: internal key must be %d bytes", ErrInvalidKey, KeySize)
	}
	wrappedK, err = EncryptECB(stretched, k)
	if err != nil {
		return nil, nil, err
	}
	wrappedL, err = EncryptECB(stretched, l)
	if err != nil {
		return nil, nil, err
	}
	return wrappedK, wrappedL, nil
}
