package crypto

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex %q: %v", s, err)
	}
	return b
}

func TestStretch(t *testing.T) {
	// Zero iterations is a single SHA-256 over passphrase||salt
	got := Stretch([]byte("ab"), []byte("c"), 0)
	want := mustHex(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad")
	if !bytes.Equal(got, want) {
		t.Fatalf("Stretch(0) = %x, want %x", got, want)
	}

	// Each iteration hashes the previous value once more
	once := Stretch([]byte("ab"), []byte("c"), 1)
	sum := sha256.Sum256(want)
	if !bytes.Equal(once, sum[:]) {
		t.Errorf("Stretch(1) = %x, want %x", once, sum[:])
	}

	a := Stretch([]byte("secret"), []byte("salt"), 2048)
	b := Stretch([]byte("secret"), []byte("salt"), 2048)
	if !bytes.Equal(a, b) {
		t.Error("Stretch is not deterministic")
	}
	if c := Stretch([]byte("secret"), []byte("salt"), 2049); bytes.Equal(a, c) {
		t.Error("iteration count does not affect the result")
	}
}

func TestVerifyPassphrase(t *testing.T) {
	salt := []byte("0123456789abcdef0123456789abcdef")
	stretched := Stretch([]byte("correct"), salt, 2048)
	stored := HashStretched(stretched)

	key, ok := VerifyPassphrase([]byte("correct"), salt, 2048, stored)
	if !ok {
		t.Fatal("expected correct passphrase to verify")
	}
	if !bytes.Equal(key, stretched) {
		t.Error("returned stretched key does not match")
	}

	if key, ok := VerifyPassphrase([]byte("wrong"), salt, 2048, stored); ok || key != nil {
		t.Error("expected wrong passphrase to fail without returning a key")
	}
}

func TestWrapUnwrapKeys(t *testing.T) {
	stretched, _ := GenerateRandom(KeySize)
	k, _ := GenerateRandom(KeySize)
	l, _ := GenerateRandom(KeySize)

	wk, wl, err := WrapKeys(stretched, k, l)
	if err != nil {
		t.Fatalf("WrapKeys failed: %v", err)
	}
	if bytes.Equal(wk, k) || bytes.Equal(wl, l) {
		t.Fatal("wrapped keys equal plaintext keys")
	}

	gotK, gotL, err := UnwrapKeys(stretched, wk, wl)
	if err != nil {
		t.Fatalf("UnwrapKeys failed: %v", err)
	}
	if !bytes.Equal(gotK, k) || !bytes.Equal(gotL, l) {
		t.Error("unwrapped keys do not match")
	}

	if _, _, err := UnwrapKeys(stretched, wk[:16], wl); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("expected ErrInvalidKey, got %v", err)
	}
}

func TestTwofishKnownAnswer(t *testing.T) {
	// Twofish-256 with an all-zero key and block
	key := make([]byte, KeySize)
	ct, err := EncryptECB(key, make([]byte, BlockSize))
	if err != nil {
		t.Fatalf("EncryptECB failed: %v", err)
	}
	want := mustHex(t, "57ff739d4dc92c1bd7fc01700cc8216f")
	if !bytes.Equal(ct, want) {
		t.Errorf("ciphertext = %x, want %x", ct, want)
	}
}

func TestCBCRoundTrip(t *testing.T) {
	key, _ := GenerateRandom(KeySize)
	iv, _ := GenerateRandom(BlockSize)
	plaintext := bytes.Repeat([]byte("0123456789abcdef"), 5)

	ct, err := EncryptCBC(key, iv, plaintext)
	if err != nil {
		t.Fatalf("EncryptCBC failed: %v", err)
	}
	if bytes.Equal(ct[:BlockSize], ct[BlockSize:2*BlockSize]) {
		t.Error("identical plaintext blocks produced identical ciphertext blocks")
	}

	pt, err := DecryptCBC(key, iv, ct)
	if err != nil {
		t.Fatalf("DecryptCBC failed: %v", err)
	}
	if !bytes.Equal(pt, plaintext) {
		t.Error("round trip mismatch")
	}
}

func TestDecryptCBCRejectsPartialBlock(t *testing.T) {
	key, _ := GenerateRandom(KeySize)
	iv, _ := GenerateRandom(BlockSize)

	for _, n := range []int{1, 15, 17, 31} {
		if _, err := DecryptCBC(key, iv, make([]byte, n)); !errors.Is(err, ErrInvalidCiphertext) {
			t.Errorf("length %d: expected ErrInvalidCiphertext, got %v", n, err)
		}
	}
	if _, err := EncryptCBC(key, iv, make([]byte, 20)); !errors.Is(err, ErrInvalidCiphertext) {
		t.Errorf("expected ErrInvalidCiphertext for unpadded plaintext, got %v", err)
	}
	if _, err := DecryptCBC(key[:16], iv, make([]byte, 16)); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("expected ErrInvalidKey, got %v", err)
	}
}

func TestDigest(t *testing.T) {
	// RFC 4231 test case 2, with the message split across two values
	tag := Digest([]byte("Jefe"), []byte("what do ya want "), []byte("for nothing?"))
	want := mustHex(t, "5bdcc146bf60754e6a042426089575c75a003f089d2739839dec58b964ec3843")
	if !bytes.Equal(tag, want) {
		t.Fatalf("Digest = %x, want %x", tag, want)
	}

	if !Verify([]byte("Jefe"), want, []byte("what do ya want for nothing?")) {
		t.Error("Verify rejected a valid tag")
	}
	tampered := append([]byte(nil), want...)
	tampered[0] ^= 0x01
	if Verify([]byte("Jefe"), tampered, []byte("what do ya want for nothing?")) {
		t.Error("Verify accepted a tampered tag")
	}
}

func TestClearBytes(t *testing.T) {
	b := []byte("sensitive")
	ClearBytes(b)
	for i, c := range b {
		if c != 0 {
			t.Fatalf("byte %d not cleared", i)
		}
	}
}
