package cmd

import (
	"context"
	"fmt"
)

// Remove deletes records from the vault
func Remove(ctx context.Context, env *Env, path string, refs []string) {
	s := OpenVault(ctx, env, path)
	defer s.Close()

	for _, ref := range refs {
		r := FindRecordOrExit(s, ref)
		if err := s.DeleteRecord(r.UUID); err != nil {
			HandleError(err)
		}
		fmt.Printf("removed: %s [%s]\n", r.Path(), r.UUID)
	}

	SaveVault(ctx, env, s)
}
