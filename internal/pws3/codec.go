package pws3

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/illarion/pwvault/internal/crypto"
)

// preamble is the unencrypted prefix of a container
type preamble struct {
	salt          []byte
	iterations    uint32
	stretchedHash []byte
	wrappedK      []byte
	wrappedL      []byte
	iv            []byte
}

// splitContainer validates the framing of data and returns the preamble,
// the encrypted field stream and the trailing HMAC.
func splitContainer(data []byte) (*preamble, []byte, []byte, error) {
	if len(data) < len(Magic) || string(data[:len(Magic)]) != Magic {
		return nil, nil, nil, fmt.Errorf("%w: not a Password Safe v3 file", ErrMalformed)
	}
	minSize := PreambleSize + len(EOFMarker) + crypto.TagSize
	if len(data) < minSize {
		return nil, nil, nil, fmt.Errorf("%w: file too short (%d bytes)", ErrMalformed, len(data))
	}

	off := len(Magic)
	next := func(n int) []byte {
		b := append([]byte(nil), data[off:off+n]...)
		off += n
		return b
	}

	p := &preamble{}
	p.salt = next(crypto.SaltSize)
	p.iterations = binary.LittleEndian.Uint32(next(4))
	p.stretchedHash = next(crypto.HashSize)
	p.wrappedK = next(2 * crypto.BlockSize)
	p.wrappedL = next(2 * crypto.BlockSize)
	p.iv = next(crypto.BlockSize)

	if p.iterations < MinIterations {
		return nil, nil, nil, fmt.Errorf("%w: iteration count %d below minimum %d", ErrMalformed, p.iterations, MinIterations)
	}

	tagStart := len(data) - crypto.TagSize
	eofStart := tagStart - len(EOFMarker)
	if string(data[eofStart:tagStart]) != EOFMarker {
		return nil, nil, nil, fmt.Errorf("%w: end-of-file marker not found", ErrMalformed)
	}

	stream := data[PreambleSize:eofStart]
	if len(stream)%crypto.BlockSize != 0 {
		return nil, nil, nil, fmt.Errorf("%w: encrypted stream length %d is not a multiple of %d", ErrMalformed, len(stream), crypto.BlockSize)
	}
	tag := append([]byte(nil), data[tagStart:]...)

	return p, stream, tag, nil
}

// Decode verifies passphrase against the container and returns the decrypted
// fields along with the key material. On a wrong passphrase nothing past the
// preamble is decrypted.
func Decode(data, passphrase []byte) (*File, *Keys, error) {
	p, stream, tag, err := splitContainer(data)
	if err != nil {
		return nil, nil, err
	}

	stretched, ok := crypto.VerifyPassphrase(passphrase, p.salt, p.iterations, p.stretchedHash)
	if !ok {
		return nil, nil, ErrWrongPassphrase
	}
	return decodeStream(p, stream, tag, stretched)
}

// DecodeWithKey is like Decode but takes an already stretched key. It is used
// to verify a freshly written file without holding on to the passphrase.
func DecodeWithKey(data, stretched []byte) (*File, *Keys, error) {
	p, stream, tag, err := splitContainer(data)
	if err != nil {
		return nil, nil, err
	}
	if !crypto.VerifyStretched(stretched, p.stretchedHash) {
		return nil, nil, ErrWrongPassphrase
	}
	return decodeStream(p, stream, tag, append([]byte(nil), stretched...))
}

// decodeStream takes ownership of stretched and clears it on failure
func decodeStream(p *preamble, stream, tag, stretched []byte) (*File, *Keys, error) {
	k, l, err := crypto.UnwrapKeys(stretched, p.wrappedK, p.wrappedL)
	if err != nil {
		crypto.ClearBytes(stretched)
		return nil, nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	keys := &Keys{
		Salt:          p.salt,
		Iterations:    p.iterations,
		StretchedHash: p.stretchedHash,
		WrappedK:      p.wrappedK,
		WrappedL:      p.wrappedL,
		IV:            p.iv,
		stretched:     stretched,
		k:             k,
		l:             l,
	}

	plaintext, err := crypto.DecryptCBC(k, p.iv, stream)
	if err != nil {
		keys.Destroy()
		if errors.Is(err, crypto.ErrInvalidCiphertext) {
			return nil, nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		return nil, nil, err
	}
	defer crypto.ClearBytes(plaintext)

	file, err := parseFields(plaintext)
	if err != nil {
		keys.Destroy()
		return nil, nil, err
	}

	if !crypto.Verify(l, tag, file.values()...) {
		file.Wipe()
		keys.Destroy()
		return nil, nil, ErrIntegrity
	}

	return file, keys, nil
}

// parseFields splits the plaintext stream into header and record fields
func parseFields(plaintext []byte) (*File, error) {
	file := &File{}
	off := 0
	inHeader := true
	headerDone := false
	var current []Field

	for off < len(plaintext) {
		field, next, err := readField(plaintext, off)
		if err != nil {
			file.Wipe()
			return nil, err
		}
		off = next

		if field.Type == EndOfEntry {
			if inHeader {
				inHeader = false
				headerDone = true
				continue
			}
			file.Records = append(file.Records, current)
			current = nil
			continue
		}

		if inHeader {
			file.Header = append(file.Header, field)
		} else {
			current = append(current, field)
		}
	}

	if !headerDone {
		file.Wipe()
		return nil, fmt.Errorf("%w: header not terminated", ErrMalformed)
	}
	if len(current) > 0 {
		for i := range current {
			crypto.ClearBytes(current[i].Value)
		}
		file.Wipe()
		return nil, fmt.Errorf("%w: last record not terminated", ErrMalformed)
	}
	return file, nil
}

// Encode serializes f into a complete container protected by keys
func Encode(f *File, keys *Keys) ([]byte, error) {
	if keys == nil || keys.Destroyed() {
		return nil, errors.New("keys have been destroyed")
	}

	var stream []byte
	defer func() { crypto.ClearBytes(stream) }()

	var err error
	end := Field{Type: EndOfEntry}
	for _, fld := range f.Header {
		if stream, err = appendField(stream, fld); err != nil {
			return nil, err
		}
	}
	if stream, err = appendField(stream, end); err != nil {
		return nil, err
	}
	for _, rec := range f.Records {
		for _, fld := range rec {
			if fld.Type == EndOfEntry {
				return nil, errors.New("record contains an end-of-entry field")
			}
			if stream, err = appendField(stream, fld); err != nil {
				return nil, err
			}
		}
		if stream, err = appendField(stream, end); err != nil {
			return nil, err
		}
	}

	encrypted, err := crypto.EncryptCBC(keys.k, keys.IV, stream)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt records: %w", err)
	}

	var buf bytes.Buffer
	buf.Grow(PreambleSize + len(encrypted) + len(EOFMarker) + crypto.TagSize)
	buf.WriteString(Magic)
	buf.Write(keys.Salt)
	var iter [4]byte
	binary.LittleEndian.PutUint32(iter[:], keys.Iterations)
	buf.Write(iter[:])
	buf.Write(keys.StretchedHash)
	buf.Write(keys.WrappedK)
	buf.Write(keys.WrappedL)
	buf.Write(keys.IV)
	buf.Write(encrypted)
	buf.WriteString(EOFMarker)
	buf.Write(crypto.Digest(keys.l, f.values()...))

	return buf.Bytes(), nil
}
