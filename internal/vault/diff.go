package vault

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sergi/go-diff/diffmatchpatch"
)

const passwordMask = "********"

// FormatRecord renders a record as labelled text blocks, one field per
// block. The password is masked unless showPassword is set.
func FormatRecord(r Record, showPassword bool) string {
	var b strings.Builder
	section := func(label, value string) {
		fmt.Fprintf(&b, "%s:\n%s\n\n", label, value)
	}
	password := passwordMask
	if showPassword {
		password = r.Password
	}

	section("Title", r.Title)
	section("Group", r.Group)
	section("Username", r.Username)
	section("Password", password)
	section("URL", r.URL)
	section("Notes", normalizeNotes(r.Notes))
	if len(r.TOTPKey) > 0 {
		section("TOTP", "configured")
	}
	if n := len(r.History.Entries); n > 0 {
		section("Password history", fmt.Sprintf("%d entries", n))
	}
	section("Created", formatTime(r.Created))
	section("Modified", formatTime(r.Modified))
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func normalizeNotes(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\t", "    ")
	return strings.TrimRight(s, " \n")
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.DateTime)
}

// GenerateUnifiedDiff renders a line diff of two texts using go-diff, with
// every line of context kept. Returns an empty string if they are identical.
func GenerateUnifiedDiff(label, before, after string) string {
	if before == after {
		return ""
	}

	dmp := diffmatchpatch.New()

	// Line-mode diff for better output
	a, b, lineArray := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var result strings.Builder
	fmt.Fprintf(&result, "--- a/%s\n", label)
	fmt.Fprintf(&result, "+++ b/%s\n", label)
	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			result.WriteString(prefix)
			result.WriteString(line)
			if !strings.HasSuffix(line, "\n") {
				result.WriteByte('\n')
			}
		}
	}
	return result.String()
}

// Diff describes how other differs from v: records only in v are reported
// as removed, records only in other as added, and corresponding records
// with different contents as unified diffs. Passwords are masked unless
// showPasswords is set; a masked password that changed is marked as such.
func (v *Vault) Diff(other *Vault, showPasswords bool) string {
	var out strings.Builder

	ours := v.Sorted(SortSpec{Field: SortGroup})
	for _, a := range ours {
		b, ok := other.Get(a.UUID)
		if !ok {
			fmt.Fprintf(&out, "removed: %s [%s]\n", a.Path(), a.UUID)
			continue
		}
		if a.Equal(b) {
			continue
		}
		before := FormatRecord(a, showPasswords)
		after := FormatRecord(b, showPasswords)
		if !showPasswords && a.Password != b.Password {
			after = strings.Replace(after, "Password:\n"+passwordMask+"\n",
				"Password:\n"+passwordMask+" (changed)\n", 1)
		}
		out.WriteString(GenerateUnifiedDiff(diffLabel(a.Path(), a.UUID), before, after))
	}

	for _, b := range other.Sorted(SortSpec{Field: SortGroup}) {
		if _, ok := v.index[b.UUID]; !ok {
			fmt.Fprintf(&out, "added: %s [%s]\n", b.Path(), b.UUID)
		}
	}
	return out.String()
}

func diffLabel(path string, id uuid.UUID) string {
	return fmt.Sprintf("%s [%s]", path, id)
}
