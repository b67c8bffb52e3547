package cmd

import (
	"cmp"
	"context"
	"fmt"
	"strings"

	"github.com/illarion/pwvault/internal/vault"
)

// List prints the records of a vault, optionally limited to a group and
// its subgroups
func List(ctx context.Context, env *Env, path, sortBy, group string) {
	spec, err := vault.ParseSortSpec(cmp.Or(sortBy, env.Config.DefaultSort))
	if err != nil {
		HandleError(err)
	}

	s := OpenVault(ctx, env, path)
	defer s.Close()

	records, err := s.ListRecords(spec)
	if err != nil {
		HandleError(err)
	}

	shown := 0
	for _, r := range records {
		if group != "" && !inGroup(r.Group, group) {
			continue
		}
		printRecordLine(r)
		shown++
	}
	if shown == 0 {
		fmt.Println("  (no records)")
	}
}

// Show prints one record
func Show(ctx context.Context, env *Env, path, ref string, showPassword bool) {
	s := OpenVault(ctx, env, path)
	defer s.Close()

	r := FindRecordOrExit(s, ref)
	fmt.Printf("UUID: %s\n\n", r.UUID)
	fmt.Print(vault.FormatRecord(r, showPassword))
}

// Search prints the records matching query in title, user, url or notes
func Search(ctx context.Context, env *Env, path, query string) {
	s := OpenVault(ctx, env, path)
	defer s.Close()

	matches, err := s.SearchRecords(query)
	if err != nil {
		HandleError(err)
	}

	found := 0
	for r := range matches {
		printRecordLine(r)
		found++
	}
	if found == 0 {
		fmt.Printf("No records match %q\n", query)
	}
}

func printRecordLine(r vault.Record) {
	line := fmt.Sprintf("  %s  %s", r.UUID, r.Path())
	if r.Username != "" {
		line += " (" + r.Username + ")"
	}
	fmt.Println(line)
}

// inGroup reports whether group equals parent or is nested under it
func inGroup(group, parent string) bool {
	return group == parent || strings.HasPrefix(group, parent+".")
}
