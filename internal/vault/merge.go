package vault

import (
	"fmt"
	"strings"
)

// MergeStrategy defines how to resolve a record present in both vaults
// with different contents
type MergeStrategy int

const (
	StrategyNewest    MergeStrategy = iota // Take whichever was modified last
	StrategyKeepLocal                      // Always keep the local record
	StrategyUseOther                       // Always take the other vault's record
)

func (s MergeStrategy) String() string {
	switch s {
	case StrategyNewest:
		return "newest"
	case StrategyKeepLocal:
		return "local"
	case StrategyUseOther:
		return "other"
	default:
		return fmt.Sprintf("MergeStrategy(%d)", int(s))
	}
}

// ParseMergeStrategy maps a flag value to a strategy
func ParseMergeStrategy(s string) (MergeStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "newest":
		return StrategyNewest, nil
	case "local", "keep-local":
		return StrategyKeepLocal, nil
	case "other", "use-other", "theirs":
		return StrategyUseOther, nil
	default:
		return 0, fmt.Errorf("unknown merge strategy %q (use newest, local or other)", s)
	}
}

// MergeResult lists what a merge changed
type MergeResult struct {
	Added     []Record // Present only in the other vault
	Updated   []Record // Replaced by the other vault's version
	Kept      []Record // Conflicting, local version kept
	Unchanged int      // Identical in both
}

// Changed reports whether the merge modified the local vault
func (m MergeResult) Changed() bool {
	return len(m.Added) > 0 || len(m.Updated) > 0
}

// Merge brings records from other into v. Records are matched by uuid;
// records only present in other are appended. Timestamps are carried over
// from the other vault unchanged.
func (v *Vault) Merge(other *Vault, strategy MergeStrategy) MergeResult {
	var res MergeResult
	for _, theirs := range other.records {
		i, ok := v.index[theirs.UUID]
		if !ok {
			r := theirs.Clone()
			v.index[r.UUID] = len(v.records)
			v.records = append(v.records, r)
			res.Added = append(res.Added, r.Clone())
			continue
		}

		ours := v.records[i]
		if ours.Equal(theirs) {
			res.Unchanged++
			continue
		}

		take := false
		switch strategy {
		case StrategyUseOther:
			take = true
		case StrategyNewest:
			take = theirs.Modified.After(ours.Modified)
		}
		if !take {
			res.Kept = append(res.Kept, ours.Clone())
			continue
		}
		v.records[i].wipe()
		v.records[i] = theirs.Clone()
		res.Updated = append(res.Updated, theirs.Clone())
	}
	return res
}
