package cmd

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/illarion/pwvault/internal/crypto"
	"github.com/illarion/pwvault/internal/keyring"
)

// KeyringSave checks a passphrase against the vault and stores it in the
// OS keyring
func KeyringSave(ctx context.Context, env *Env, path string) {
	s := env.NewSession(path)
	defer s.Close()

	password, err := readPassword("Enter passphrase: ")
	if err != nil {
		HandleError(err)
	}
	defer crypto.ClearBytes(password)

	if err := s.Unlock(ctx, password); err != nil {
		HandleError(err)
	}
	env.recordVault(s)

	account := env.keyringAccount(path, s.Info().VaultID)
	if err := keyring.SavePassword(account, string(password)); err != nil {
		HandleError(fmt.Errorf("failed to save to keyring: %w", err))
	}

	fmt.Println("Passphrase saved to keyring")
}

// KeyringDelete removes the vault's passphrase from the OS keyring
func KeyringDelete(env *Env, path string) {
	if err := keyring.DeletePassword(env.keyringAccount(path, uuid.Nil)); err != nil {
		fmt.Println("No passphrase stored in keyring")
		return
	}
	fmt.Println("Passphrase removed from keyring")
}

// KeyringStatus reports whether a passphrase is stored for the vault
func KeyringStatus(env *Env, path string) {
	if keyring.HasPassword(env.keyringAccount(path, uuid.Nil)) {
		fmt.Println("Passphrase: stored in keyring")
	} else {
		fmt.Println("Passphrase: not stored")
	}
}
