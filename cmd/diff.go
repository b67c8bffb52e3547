package cmd

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/illarion/pwvault/internal/crypto"
	"github.com/illarion/pwvault/internal/vault"
)

// Diff shows how another vault file differs from this one
func Diff(ctx context.Context, env *Env, path, otherPath string, showPasswords bool) {
	s := OpenVault(ctx, env, path)
	defer s.Close()

	other := ReadOther(ctx, env, otherPath)
	defer other.Wipe()

	out, err := s.Diff(other, showPasswords)
	if err != nil {
		HandleError(err)
	}
	if out == "" {
		fmt.Println("No differences")
		return
	}
	fmt.Print(out)
}

// Merge brings the records of another vault file into this one
func Merge(ctx context.Context, env *Env, path, otherPath string, strategy vault.MergeStrategy, dryRun bool) {
	s := OpenVault(ctx, env, path)
	defer s.Close()

	var result vault.MergeResult
	prompt := fmt.Sprintf("Enter passphrase for %s: ", otherPath)
	password, _, err := GetPasswordWithRetry(ctx, env, prompt, env.keyringAccount(otherPath, uuid.Nil), func(p []byte) error {
		var err error
		result, err = s.MergeFile(ctx, otherPath, p, strategy)
		return err
	})
	if err != nil {
		HandleError(err)
	}
	crypto.ClearBytes(password)

	for _, r := range result.Added {
		fmt.Printf("added: %s [%s]\n", r.Path(), r.UUID)
	}
	for _, r := range result.Updated {
		fmt.Printf("updated: %s [%s]\n", r.Path(), r.UUID)
	}
	for _, r := range result.Kept {
		fmt.Printf("kept local: %s [%s]\n", r.Path(), r.UUID)
	}
	fmt.Printf("\nmerged with strategy %s: %d added, %d updated, %d kept, %d unchanged\n",
		strategy, len(result.Added), len(result.Updated), len(result.Kept), result.Unchanged)

	if !result.Changed() {
		return
	}
	if dryRun {
		fmt.Println("dry run: vault not saved")
		return
	}
	SaveVault(ctx, env, s)
}
