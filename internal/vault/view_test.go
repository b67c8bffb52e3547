package vault

import (
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func titles(records []Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Title
	}
	return out
}

func seedViewVault(t *testing.T) *Vault {
	t.Helper()
	v := New()
	entries := []Record{
		{Title: "mail", Group: "web", Username: "bob", Notes: "Personal inbox"},
		{Title: "Bank", Group: "finance", Username: "alice", URL: "https://bank.example"},
		{Title: "Forum", Group: "web", Username: "Carol"},
		{Title: "Straße", Group: "misc", Username: "dave"},
	}
	for i, r := range entries {
		v.SetClock(fixedClock(time.Unix(int64(1700000000+100*(len(entries)-i)), 0)))
		_, err := v.Add(r)
		require.NoError(t, err)
	}
	return v
}

func TestParseSortSpec(t *testing.T) {
	tests := []struct {
		input string
		want  SortSpec
	}{
		{"", SortSpec{Field: SortTitle}},
		{"title", SortSpec{Field: SortTitle}},
		{"t", SortSpec{Field: SortTitle}},
		{"T", SortSpec{Field: SortTitle, Reverse: true}},
		{"-user", SortSpec{Field: SortUser, Reverse: true}},
		{"m", SortSpec{Field: SortModified}},
		{"C", SortSpec{Field: SortCreated, Reverse: true}},
		{"group", SortSpec{Field: SortGroup}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSortSpec(tt.input)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}

	_, err := ParseSortSpec("size")
	require.Error(t, err)
}

func TestSorted(t *testing.T) {
	v := seedViewVault(t)
	storage := titles(v.Records())

	require.Equal(t, []string{"Bank", "Forum", "mail", "Straße"}, titles(v.Sorted(SortSpec{Field: SortTitle})))
	require.Equal(t, []string{"Straße", "mail", "Forum", "Bank"}, titles(v.Sorted(SortSpec{Field: SortTitle, Reverse: true})))
	require.Equal(t, []string{"Bank", "mail", "Forum", "Straße"}, titles(v.Sorted(SortSpec{Field: SortUser})))
	// added with decreasing clock: last added is oldest
	require.Equal(t, []string{"Straße", "Forum", "Bank", "mail"}, titles(v.Sorted(SortSpec{Field: SortModified})))
	require.Equal(t, []string{"Bank", "Straße", "Forum", "mail"}, titles(v.Sorted(SortSpec{Field: SortGroup})))

	require.Equal(t, storage, titles(v.Records()))
}

func TestSearch(t *testing.T) {
	v := seedViewVault(t)

	got := titles(slices.Collect(v.Search("BANK")))
	require.Equal(t, []string{"Bank"}, got)

	// notes and urls are searched too
	require.Equal(t, []string{"mail"}, titles(slices.Collect(v.Search("inbox"))))
	require.Equal(t, []string{"Bank"}, titles(slices.Collect(v.Search("example"))))

	// unicode case folding
	require.Equal(t, []string{"Straße"}, titles(slices.Collect(v.Search("STRASSE"))))

	require.Len(t, slices.Collect(v.Search("")), 4)
	require.Empty(t, slices.Collect(v.Search("nothing")))
}

func TestSearch_Restartable(t *testing.T) {
	v := seedViewVault(t)
	seq := Search(v.Records(), "o")

	first := titles(slices.Collect(seq))
	second := titles(slices.Collect(seq))
	require.NotEmpty(t, first)
	require.Equal(t, first, second)

	// early break stops iteration
	n := 0
	for range seq {
		n++
		break
	}
	require.Equal(t, 1, n)
}

func TestMerge(t *testing.T) {
	base := time.Unix(1700000000, 0)
	local := New()
	local.SetClock(fixedClock(base))
	shared, _ := local.Add(Record{Title: "Bank", Password: "one"})
	stale, _ := local.Add(Record{Title: "Mail", Password: "m1"})
	same, _ := local.Add(Record{Title: "Same"})

	other := New()
	other.SetClock(fixedClock(base.Add(time.Hour)))
	_, err := other.Add(shared)
	require.NoError(t, err)
	_, err = other.Add(stale)
	require.NoError(t, err)
	// identical copy
	other.index[same.UUID] = len(other.records)
	other.records = append(other.records, same.Clone())
	extra, _ := other.Add(Record{Title: "New"})

	theirsBank, _ := other.Get(shared.UUID)
	theirsBank.Password = "two"
	_, err = other.Update(theirsBank)
	require.NoError(t, err)

	t.Run("keep local", func(t *testing.T) {
		v, _ := FromFile(local.ToFile())
		res := v.Merge(other, StrategyKeepLocal)
		require.Len(t, res.Added, 1)
		require.Equal(t, extra.UUID, res.Added[0].UUID)
		require.Empty(t, res.Updated)
		require.Len(t, res.Kept, 2)
		require.Equal(t, 1, res.Unchanged)
		got, _ := v.Get(shared.UUID)
		require.Equal(t, "one", got.Password)
	})

	t.Run("newest", func(t *testing.T) {
		v, _ := FromFile(local.ToFile())
		res := v.Merge(other, StrategyNewest)
		require.True(t, res.Changed())
		require.Len(t, res.Updated, 2)
		got, _ := v.Get(shared.UUID)
		require.Equal(t, "two", got.Password)
		require.Equal(t, 4, v.Len())
	})

	t.Run("use other", func(t *testing.T) {
		v, _ := FromFile(other.ToFile())
		res := v.Merge(local, StrategyUseOther)
		require.Len(t, res.Updated, 2)
		require.Empty(t, res.Added)
		got, _ := v.Get(shared.UUID)
		require.Equal(t, "one", got.Password)
	})
}

func TestParseMergeStrategy(t *testing.T) {
	s, err := ParseMergeStrategy("local")
	require.NoError(t, err)
	require.Equal(t, StrategyKeepLocal, s)
	s, err = ParseMergeStrategy("")
	require.NoError(t, err)
	require.Equal(t, StrategyNewest, s)
	_, err = ParseMergeStrategy("ask")
	require.Error(t, err)
}

func TestDiff(t *testing.T) {
	local := New()
	local.SetClock(fixedClock(time.Unix(1700000000, 0)))
	bank, _ := local.Add(Record{Title: "Bank", Username: "alice", Password: "firstpass"})
	gone, _ := local.Add(Record{Title: "Old"})

	other, _ := FromFile(local.ToFile())
	other.SetClock(fixedClock(time.Unix(1700000000, 0)))
	changed, _ := other.Get(bank.UUID)
	changed.Username = "alice2"
	changed.Password = "secondpass"
	_, err := other.Update(changed)
	require.NoError(t, err)
	require.NoError(t, other.Delete(gone.UUID))
	_, err = other.Add(Record{Title: "Fresh"})
	require.NoError(t, err)

	out := local.Diff(other, false)
	require.Contains(t, out, "--- a/Bank [")
	require.Contains(t, out, "-alice\n")
	require.Contains(t, out, "+alice2\n")
	require.Contains(t, out, passwordMask+" (changed)")
	require.NotContains(t, out, "firstpass")
	require.NotContains(t, out, "secondpass")
	require.Contains(t, out, "removed: Old [")
	require.Contains(t, out, "added: Fresh [")

	revealed := local.Diff(other, true)
	require.Contains(t, revealed, "-firstpass\n")
	require.Contains(t, revealed, "+secondpass\n")

	self, _ := FromFile(local.ToFile())
	require.Empty(t, local.Diff(self, false))
}

func TestGenerateUnifiedDiff(t *testing.T) {
	require.Empty(t, GenerateUnifiedDiff("x", "same\n", "same\n"))

	out := GenerateUnifiedDiff("entry", "a\nb\nc\n", "a\nB\nc\n")
	require.True(t, strings.HasPrefix(out, "--- a/entry\n+++ b/entry\n"))
	require.Contains(t, out, "-b\n")
	require.Contains(t, out, "+B\n")
}
