package vault

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// SortField selects the primary key of a record ordering
type SortField int

const (
	SortTitle SortField = iota
	SortUser
	SortModified
	SortCreated
	SortGroup
)

func (f SortField) String() string {
	switch f {
	case SortTitle:
		return "title"
	case SortUser:
		return "user"
	case SortModified:
		return "modified"
	case SortCreated:
		return "created"
	case SortGroup:
		return "group"
	default:
		return fmt.Sprintf("SortField(%d)", int(f))
	}
}

// SortSpec is an ordering view: a field plus direction
type SortSpec struct {
	Field   SortField
	Reverse bool
}

func (s SortSpec) String() string {
	if s.Reverse {
		return "-" + s.Field.String()
	}
	return s.Field.String()
}

// ParseSortSpec accepts a field name ("title", "user", "modified",
// "created", "group") or its one-letter short form ("t", "u", "m", "c",
// "g"). A leading '-' or an upper-case short form reverses the order.
func ParseSortSpec(s string) (SortSpec, error) {
	var spec SortSpec
	name := strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(name, "-"); ok {
		spec.Reverse = true
		name = rest
	}
	if len(name) == 1 && name >= "A" && name <= "Z" {
		spec.Reverse = !spec.Reverse
		name = strings.ToLower(name)
	}

	switch name {
	case "t", "title", "":
		spec.Field = SortTitle
	case "u", "user", "username":
		spec.Field = SortUser
	case "m", "modified", "mtime":
		spec.Field = SortModified
	case "c", "created", "ctime":
		spec.Field = SortCreated
	case "g", "group":
		spec.Field = SortGroup
	default:
		return SortSpec{}, fmt.Errorf("unknown sort field %q", s)
	}
	return spec, nil
}

// Sort orders records in place by spec. Ties are broken by secondary keys:
// title then user then modification time, as appropriate for the field.
func Sort(records []Record, spec SortSpec) {
	fold := cases.Fold()
	key := func(s string) string { return fold.String(s) }

	byText := func(a, b string) int { return cmp.Compare(key(a), key(b)) }
	byTime := func(a, b time.Time) int { return a.Compare(b) }

	var compare func(a, b Record) int
	switch spec.Field {
	case SortUser:
		compare = func(a, b Record) int {
			return cmp.Or(byText(a.Username, b.Username), byTime(a.Modified, b.Modified))
		}
	case SortModified:
		compare = func(a, b Record) int {
			return cmp.Or(byTime(a.Modified, b.Modified), byText(a.Title, b.Title), byText(a.Username, b.Username))
		}
	case SortCreated:
		compare = func(a, b Record) int {
			return cmp.Or(byTime(a.Created, b.Created), byText(a.Title, b.Title), byText(a.Username, b.Username))
		}
	case SortGroup:
		compare = func(a, b Record) int {
			return cmp.Or(byText(a.Group, b.Group), byText(a.Title, b.Title), byTime(a.Modified, b.Modified))
		}
	default:
		compare = func(a, b Record) int {
			return cmp.Or(byText(a.Title, b.Title), byText(a.Username, b.Username), byTime(a.Modified, b.Modified))
		}
	}
	if spec.Reverse {
		forward := compare
		compare = func(a, b Record) int { return forward(b, a) }
	}
	slices.SortStableFunc(records, compare)
}

// Sorted returns copies of all records ordered by spec; storage order is
// left untouched.
func (v *Vault) Sorted(spec SortSpec) []Record {
	out := v.Records()
	Sort(out, spec)
	return out
}
