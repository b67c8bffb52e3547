package vault

import (
	"iter"
	"strings"

	"golang.org/x/text/cases"
)

// Matcher reports whether records contain a query as a case-insensitive
// substring of title, username, url or notes. Case folding is Unicode
// aware, so "STRASSE" matches "straße".
type Matcher struct {
	fold  cases.Caser
	query string
}

func NewMatcher(query string) *Matcher {
	m := &Matcher{fold: cases.Fold()}
	m.query = m.fold.String(query)
	return m
}

func (m *Matcher) Match(r Record) bool {
	if m.query == "" {
		return true
	}
	for _, s := range [...]string{r.Title, r.Username, r.URL, r.Notes} {
		if strings.Contains(m.fold.String(s), m.query) {
			return true
		}
	}
	return false
}

// Search returns a lazy sequence over records matching query. Each range
// over the sequence starts again from the first record.
func Search(records []Record, query string) iter.Seq[Record] {
	return func(yield func(Record) bool) {
		m := NewMatcher(query)
		for _, r := range records {
			if m.Match(r) && !yield(r.Clone()) {
				return
			}
		}
	}
}

// Search runs a query over the vault's current records in storage order
func (v *Vault) Search(query string) iter.Seq[Record] {
	return Search(v.records, query)
}
