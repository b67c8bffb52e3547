package vault

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const maxHistorySize = 255

var errBadHistory = errors.New("invalid password history field")

// HistoryEntry is a previous password and the time it was set
type HistoryEntry struct {
	Changed  time.Time
	Password string
}

// PasswordHistory mirrors the PWS3 password history field:
// "fmmnn" followed by nn entries of "TTTTTTTTLLLL<password>", where f is the
// enabled flag, mm the maximum size and nn the entry count, all hex.
type PasswordHistory struct {
	Enabled bool
	MaxSize int
	Entries []HistoryEntry
}

func (h PasswordHistory) isZero() bool {
	return !h.Enabled && h.MaxSize == 0 && len(h.Entries) == 0
}

func (h PasswordHistory) clone() PasswordHistory {
	h.Entries = append([]HistoryEntry(nil), h.Entries...)
	return h
}

// push records an old password, dropping the oldest entries beyond MaxSize
func (h *PasswordHistory) push(e HistoryEntry) {
	if !h.Enabled || h.MaxSize <= 0 {
		return
	}
	h.Entries = append(h.Entries, e)
	if over := len(h.Entries) - h.MaxSize; over > 0 {
		h.Entries = append([]HistoryEntry(nil), h.Entries[over:]...)
	}
}

func parseHistory(s string) (PasswordHistory, error) {
	var h PasswordHistory
	if len(s) < 5 {
		return h, errBadHistory
	}
	switch s[0] {
	case '0':
	case '1':
		h.Enabled = true
	default:
		return h, fmt.Errorf("%w: flag %q", errBadHistory, s[0])
	}

	maxSize, err := strconv.ParseUint(s[1:3], 16, 8)
	if err != nil {
		return h, fmt.Errorf("%w: max size: %v", errBadHistory, err)
	}
	count, err := strconv.ParseUint(s[3:5], 16, 8)
	if err != nil {
		return h, fmt.Errorf("%w: count: %v", errBadHistory, err)
	}
	h.MaxSize = int(maxSize)

	rest := s[5:]
	for i := uint64(0); i < count; i++ {
		if len(rest) < 12 {
			return h, fmt.Errorf("%w: truncated entry %d", errBadHistory, i)
		}
		ts, err := strconv.ParseUint(rest[:8], 16, 32)
		if err != nil {
			return h, fmt.Errorf("%w: entry %d time: %v", errBadHistory, i, err)
		}
		n, err := strconv.ParseUint(rest[8:12], 16, 16)
		if err != nil {
			return h, fmt.Errorf("%w: entry %d length: %v", errBadHistory, i, err)
		}
		rest = rest[12:]

		// length counts characters, not bytes
		end := 0
		for j := uint64(0); j < n; j++ {
			if end >= len(rest) {
				return h, fmt.Errorf("%w: entry %d password truncated", errBadHistory, i)
			}
			_, size := utf8.DecodeRuneInString(rest[end:])
			end += size
		}
		e := HistoryEntry{Password: rest[:end]}
		if ts != 0 {
			e.Changed = time.Unix(int64(ts), 0)
		}
		h.Entries = append(h.Entries, e)
		rest = rest[end:]
	}
	if rest != "" {
		return h, fmt.Errorf("%w: %d trailing bytes", errBadHistory, len(rest))
	}
	return h, nil
}

func formatHistory(h PasswordHistory) string {
	var b strings.Builder
	flag := '0'
	if h.Enabled {
		flag = '1'
	}
	entries := h.Entries
	if len(entries) > maxHistorySize {
		entries = entries[len(entries)-maxHistorySize:]
	}
	fmt.Fprintf(&b, "%c%02x%02x", flag, min(h.MaxSize, maxHistorySize), len(entries))
	for _, e := range entries {
		var ts uint32
		if !e.Changed.IsZero() {
			ts = uint32(e.Changed.Unix())
		}
		fmt.Fprintf(&b, "%08x%04x%s", ts, utf8.RuneCountInString(e.Password), e.Password)
	}
	return b.String()
}
