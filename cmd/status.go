package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/illarion/pwvault/internal/keyring"
	"github.com/illarion/pwvault/internal/security"
	"github.com/illarion/pwvault/internal/storage"
)

// Status shows what is known about a vault without its passphrase
func Status(env *Env, path string) {
	pv, name, err := security.ForFile(path)
	if err != nil {
		HandleError(err)
	}
	st, err := pv.StatInRoot(name)
	dir := pv.Dir()
	pv.Close()
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Printf("No vault file at %s\n", path)
			fmt.Printf("Run 'pwvault init %s' to create one\n", path)
			return
		}
		HandleError(err)
	}

	fmt.Printf("Vault: %s\n", filepath.Join(dir, name))
	fmt.Printf("Size: %d bytes\n", st.Size())
	fmt.Printf("File modified: %s\n", st.ModTime().Format(time.RFC3339))

	entry := env.lookupIndex(path)
	if entry == nil {
		fmt.Println("\nNot in the index yet; open it once to record its details")
	} else {
		fmt.Println()
		printEntry(entry)
	}

	account := env.keyringAccount(path, uuid.Nil)
	if env.Config.Keyring && keyring.HasPassword(account) {
		fmt.Println("Passphrase: stored in keyring")
	} else {
		fmt.Println("Passphrase: not stored")
	}
}

// Recent lists indexed vaults, most recently opened first. With prune,
// entries whose file no longer exists are dropped.
func Recent(env *Env, prune bool) {
	idx := env.openIndex()
	if idx == nil {
		fmt.Println("Vault index is disabled")
		return
	}
	entries, err := idx.ListVaults()
	created, _ := idx.Created()
	idx.Close()
	if err != nil {
		HandleError(err)
	}

	fmt.Printf("Index: %s (since %s)\n", env.Config.IndexPath, formatWhen(created))
	if len(entries) == 0 {
		fmt.Println("No vaults opened yet")
		return
	}

	for _, e := range entries {
		missing := ""
		if _, err := os.Stat(e.Path); os.IsNotExist(err) {
			if prune && env.forgetVault(e.Path) {
				fmt.Printf("  %s (removed from index)\n", e.Path)
				continue
			}
			missing = ", missing"
		}
		fmt.Printf("  %s (%d records, opened %s%s)\n", e.Path, e.Records, formatWhen(e.LastOpened), missing)
	}
}

func printEntry(e *storage.VaultEntry) {
	if e.Name != "" {
		fmt.Printf("Name: %s\n", e.Name)
	}
	fmt.Printf("Vault ID: %s\n", e.VaultID)
	fmt.Printf("Records: %d\n", e.Records)
	fmt.Printf("Key stretch iterations: %d\n", e.Iterations)
	fmt.Printf("Last saved: %s\n", formatWhen(e.LastSave))
	fmt.Printf("Last opened: %s\n", formatWhen(e.LastOpened))
}

func formatWhen(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format(time.RFC3339)
}
