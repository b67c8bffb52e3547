package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/illarion/pwvault/internal/crypto"
	"github.com/illarion/pwvault/internal/keyring"
)

// Passwd changes the vault passphrase and re-encrypts the file
func Passwd(ctx context.Context, env *Env, path string) {
	s := env.NewSession(path)
	defer s.Close()

	account := env.keyringAccount(path, uuid.Nil)
	current, _, err := GetPasswordWithRetry(ctx, env, "Enter current passphrase: ", account, func(p []byte) error {
		return s.Unlock(ctx, p)
	})
	if err != nil {
		HandleError(err)
	}
	defer crypto.ClearBytes(current)

	newPassword, err := ReadPasswordConfirm("Enter new passphrase: ")
	if err != nil {
		HandleError(err)
	}
	defer crypto.ClearBytes(newPassword)
	WarnWeakPassword(newPassword)

	if err := s.ChangePassphrase(current, newPassword); err != nil {
		HandleError(err)
	}
	SaveVault(ctx, env, s)

	// Replace a stored entry so the keyring does not go stale
	account = env.keyringAccount(path, s.Info().VaultID)
	if env.Config.Keyring && keyring.HasPassword(account) {
		if err := keyring.SavePassword(account, string(newPassword)); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to update keyring: %s\n", err)
		} else {
			fmt.Println("Keyring updated with new passphrase")
		}
	}

	fmt.Println("passphrase changed successfully")
}
