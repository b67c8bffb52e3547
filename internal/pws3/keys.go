package pws3

import (
	"fmt"

	"github.com/illarion/pwvault/internal/crypto"
)

// Keys holds the unencrypted preamble values together with the secret key
// material of an unlocked vault: the stretched key P' and the internal keys
// K (record encryption) and L (HMAC). Call Destroy when done.
type Keys struct {
	Salt          []byte
	Iterations    uint32
	StretchedHash []byte
	WrappedK      []byte // B1||B2
	WrappedL      []byte // B3||B4
	IV            []byte

	stretched []byte
	k         []byte
	l         []byte
}

// NewKeys derives a stretched key from passphrase with a fresh salt and
// generates random internal keys and IV for a new vault.
func NewKeys(passphrase []byte, iterations uint32) (*Keys, error) {
	if iterations < MinIterations {
		return nil, fmt.Errorf("iterations %d below minimum %d", iterations, MinIterations)
	}

	k, err := crypto.GenerateRandom(crypto.KeySize)
	if err != nil {
		return nil, err
	}
	l, err := crypto.GenerateRandom(crypto.KeySize)
	if err != nil {
		crypto.ClearBytes(k)
		return nil, err
	}
	iv, err := crypto.GenerateRandom(crypto.BlockSize)
	if err != nil {
		crypto.ClearBytes(k)
		crypto.ClearBytes(l)
		return nil, err
	}

	keys := &Keys{IV: iv, k: k, l: l}
	if err := keys.derive(passphrase, iterations); err != nil {
		keys.Destroy()
		return nil, err
	}
	return keys, nil
}

// derive picks a fresh salt, stretches passphrase and wraps K and L with it
func (k *Keys) derive(passphrase []byte, iterations uint32) error {
	salt, err := crypto.GenerateRandom(crypto.SaltSize)
	if err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}

	stretched := crypto.Stretch(passphrase, salt, iterations)
	wrappedK, wrappedL, err := crypto.WrapKeys(stretched, k.k, k.l)
	if err != nil {
		crypto.ClearBytes(stretched)
		return fmt.Errorf("failed to wrap keys: %w", err)
	}

	crypto.ClearBytes(k.stretched)
	k.Salt = salt
	k.Iterations = iterations
	k.StretchedHash = crypto.HashStretched(stretched)
	k.WrappedK = wrappedK
	k.WrappedL = wrappedL
	k.stretched = stretched
	return nil
}

// Rekey returns a copy of the keys protected by a new passphrase: fresh salt,
// new stretched key, and the same K and L re-wrapped. The receiver is left
// untouched.
func (k *Keys) Rekey(passphrase []byte, iterations uint32) (*Keys, error) {
	if iterations < MinIterations {
		return nil, fmt.Errorf("iterations %d below minimum %d", iterations, MinIterations)
	}
	next := &Keys{
		IV: append([]byte(nil), k.IV...),
		k:  append([]byte(nil), k.k...),
		l:  append([]byte(nil), k.l...),
	}
	if err := next.derive(passphrase, iterations); err != nil {
		next.Destroy()
		return nil, err
	}
	return next, nil
}

// Verify reports whether passphrase matches the stored H(P')
func (k *Keys) Verify(passphrase []byte) bool {
	stretched, ok := crypto.VerifyPassphrase(passphrase, k.Salt, k.Iterations, k.StretchedHash)
	crypto.ClearBytes(stretched)
	return ok
}

// Stretched returns a copy of P'. The caller must clear it.
func (k *Keys) Stretched() []byte {
	return append([]byte(nil), k.stretched...)
}

// RefreshIV replaces the CBC IV with a new random one
func (k *Keys) RefreshIV() error {
	iv, err := crypto.GenerateRandom(crypto.BlockSize)
	if err != nil {
		return err
	}
	k.IV = iv
	return nil
}

// Destroyed reports whether the secret key material has been erased
func (k *Keys) Destroyed() bool {
	return k.stretched == nil && k.k == nil && k.l == nil
}

// Destroy clears P', K and L from memory
func (k *Keys) Destroy() {
	if k == nil {
		return
	}
	crypto.ClearBytes(k.stretched)
	crypto.ClearBytes(k.k)
	crypto.ClearBytes(k.l)
	k.stretched = nil
	k.k = nil
	k.l = nil
}
