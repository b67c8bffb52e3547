package vault

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseHistory(t *testing.T) {
	h, err := parseHistory("10302" +
		"5f5e1000" + "0003" + "abc" +
		"5f5e1001" + "0002" + "żó")
	require.NoError(t, err)
	require.True(t, h.Enabled)
	require.Equal(t, 3, h.MaxSize)
	require.Len(t, h.Entries, 2)
	require.Equal(t, "abc", h.Entries[0].Password)
	require.Equal(t, int64(0x5f5e1000), h.Entries[0].Changed.Unix())
	require.Equal(t, "żó", h.Entries[1].Password)
}

func TestParseHistory_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"short", "1030"},
		{"bad flag", "20300"},
		{"bad size", "1zz00"},
		{"truncated entry", "10301" + "5f5e1000"},
		{"truncated password", "10301" + "5f5e1000" + "0005" + "ab"},
		{"trailing bytes", "10300" + "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseHistory(tt.input)
			require.ErrorIs(t, err, errBadHistory)
		})
	}
}

func TestFormatHistory_RoundTrip(t *testing.T) {
	h := PasswordHistory{
		Enabled: true,
		MaxSize: 5,
		Entries: []HistoryEntry{
			{Changed: time.Unix(1600000000, 0), Password: "first"},
			{Changed: time.Unix(1600000100, 0), Password: "zweiß"},
		},
	}
	s := formatHistory(h)
	require.Equal(t, "10502", s[:5])

	got, err := parseHistory(s)
	require.NoError(t, err)
	require.Equal(t, h.Enabled, got.Enabled)
	require.Equal(t, h.MaxSize, got.MaxSize)
	require.Len(t, got.Entries, 2)
	require.Equal(t, "zweiß", got.Entries[1].Password)
	require.True(t, got.Entries[1].Changed.Equal(h.Entries[1].Changed))
}

func TestFormatHistory_ZeroTime(t *testing.T) {
	h := PasswordHistory{Enabled: true, MaxSize: 1, Entries: []HistoryEntry{{Password: "abc"}}}
	s := formatHistory(h)
	require.Equal(t, "10101"+"00000000"+"0003"+"abc", s)

	got, err := parseHistory(s)
	require.NoError(t, err)
	require.True(t, got.Entries[0].Changed.IsZero())
}

func TestHistoryPush(t *testing.T) {
	h := PasswordHistory{Enabled: true, MaxSize: 2}
	for _, pw := range []string{"a", "b", "c"} {
		h.push(HistoryEntry{Password: pw})
	}
	require.Len(t, h.Entries, 2)
	require.Equal(t, "b", h.Entries[0].Password)
	require.Equal(t, "c", h.Entries[1].Password)

	disabled := PasswordHistory{MaxSize: 2}
	disabled.push(HistoryEntry{Password: "a"})
	require.Empty(t, disabled.Entries)
}
