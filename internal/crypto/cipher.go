package crypto

import (
	"crypto/cipher"
	"fmt"

	"golang.org/x/crypto/twofish"
)

func newBlock(key []byte) (cipher.Block, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidKey, len(key), KeySize)
	}
	block, err := twofish.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	return block, nil
}

// EncryptECB encrypts each 16-byte block independently.
// Only used for wrapping K and L, never for record data.
func EncryptECB(key, plaintext []byte) ([]byte, error) {
	if len(plaintext)%BlockSize != 0 {
		return nil, ErrInvalidCiphertext
	}
	block, err := newBlock(key)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(plaintext))
	for i := 0; i < len(plaintext); i += BlockSize {
		block.Encrypt(out[i:i+BlockSize], plaintext[i:i+BlockSize])
	}
	return out, nil
}

// DecryptECB decrypts each 16-byte block independently
func DecryptECB(key, ciphertext []byte) ([]byte, error) {
	if len(ciphertext)%BlockSize != 0 {
		return nil, ErrInvalidCiphertext
	}
	block, err := newBlock(key)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(ciphertext))
	for i := 0; i < len(ciphertext); i += BlockSize {
		block.Decrypt(out[i:i+BlockSize], ciphertext[i:i+BlockSize])
	}
	return out, nil
}

// EncryptCBC encrypts an already padded plaintext with Twofish-CBC.
// The plaintext length must be a multiple of BlockSize.
func EncryptCBC(key, iv, plaintext []byte) ([]byte, error) {
	if len(plaintext)%BlockSize != 0 {
		return nil, fmt.Errorf("%w: plaintext is not block aligned", ErrInvalidCiphertext)
	}
	if len(iv) != BlockSize {
		return nil, fmt.Errorf("%w: iv must be %d bytes", ErrInvalidKey, BlockSize)
	}
	block, err := newBlock(key)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(plaintext))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, plaintext)
	return out, nil
}

// DecryptCBC decrypts a Twofish-CBC stream.
// Returns ErrInvalidCiphertext if the length is not a multiple of BlockSize.
func DecryptCBC(key, iv, ciphertext []byte) ([]byte, error) {
	if len(ciphertext)%BlockSize != 0 {
		return nil, fmt.Errorf("%w: length %d is not a multiple of %d", ErrInvalidCiphertext, len(ciphertext), BlockSize)
	}
	if len(iv) != BlockSize {
		return nil, fmt.Errorf("%w: iv must be %d bytes", ErrInvalidKey, BlockSize)
	}
	block, err := newBlock(key)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, ciphertext)
	return out, nil
}
