package vault

import (
	"encoding/binary"
	"math"
	"time"
)

// decodeTime reads a time_t stored as 4 or 8 little-endian bytes
func decodeTime(v []byte) (time.Time, bool) {
	switch len(v) {
	case 4:
		return time.Unix(int64(binary.LittleEndian.Uint32(v)), 0), true
	case 8:
		return time.Unix(int64(binary.LittleEndian.Uint64(v)), 0), true
	default:
		return time.Time{}, false
	}
}

// encodeTime writes t as a 4-byte time_t, or 8 bytes past 2106
func encodeTime(t time.Time) []byte {
	sec := t.Unix()
	if sec >= 0 && sec <= math.MaxUint32 {
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, uint32(sec))
		return b
	}
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, uint64(sec))
	return b
}

// stamp truncates t to the one-second resolution of the file format
func stamp(t time.Time) time.Time {
	return time.Unix(t.Unix(), 0)
}
