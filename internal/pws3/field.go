package pws3

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/illarion/pwvault/internal/crypto"
)

// blocksFor returns the number of 16-byte blocks a field of n value bytes occupies
func blocksFor(n int) int {
	return (fieldHeaderSize + n + crypto.BlockSize - 1) / crypto.BlockSize
}

// appendField appends the padded TLV encoding of f to buf.
// Padding bytes are random, as written by Password Safe itself.
func appendField(buf []byte, f Field) ([]byte, error) {
	if len(f.Value) > math.MaxUint32-fieldHeaderSize {
		return nil, fmt.Errorf("field 0x%02x too large: %d bytes", f.Type, len(f.Value))
	}
	size := blocksFor(len(f.Value)) * crypto.BlockSize

	var hdr [fieldHeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[:4], uint32(len(f.Value)))
	hdr[4] = f.Type

	buf = append(buf, hdr[:]...)
	buf = append(buf, f.Value...)

	if pad := size - fieldHeaderSize - len(f.Value); pad > 0 {
		padding, err := crypto.GenerateRandom(pad)
		if err != nil {
			return nil, err
		}
		buf = append(buf, padding...)
	}
	return buf, nil
}

// readField decodes the field starting at off in the plaintext stream and
// returns it with the offset of the next field. The value is copied out.
func readField(stream []byte, off int) (Field, int, error) {
	remaining := len(stream) - off
	if remaining < crypto.BlockSize {
		return Field{}, 0, fmt.Errorf("%w: truncated field at offset %d", ErrMalformed, off)
	}

	n := binary.LittleEndian.Uint32(stream[off : off+4])
	typ := stream[off+4]

	if uint64(n) > uint64(remaining-fieldHeaderSize) {
		return Field{}, 0, fmt.Errorf("%w: field 0x%02x length %d exceeds stream", ErrMalformed, typ, n)
	}
	size := blocksFor(int(n)) * crypto.BlockSize
	if size > remaining {
		return Field{}, 0, fmt.Errorf("%w: field 0x%02x length %d exceeds stream", ErrMalformed, typ, n)
	}

	start := off + fieldHeaderSize
	value := make([]byte, n)
	copy(value, stream[start:start+int(n)])

	return Field{Type: typ, Value: value}, off + size, nil
}
