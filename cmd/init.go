package cmd

import (
	"context"
	"fmt"

	"github.com/illarion/pwvault/internal/crypto"
)

// Init creates a new, empty vault file
func Init(ctx context.Context, env *Env, path string) {
	fromEnv := GetPasswordFromEnv() != nil

	password, err := GetNewPassword("Enter new passphrase: ")
	if err != nil {
		HandleError(err)
	}
	defer crypto.ClearBytes(password)

	s := env.NewSession(path)
	if err := s.Create(ctx, password); err != nil {
		HandleError(err)
	}
	defer s.Close()

	SaveVault(ctx, env, s)
	fmt.Printf("✓ Created %s\n", path)

	if !fromEnv {
		OfferToSavePassword(env, env.keyringAccount(path, s.Info().VaultID), password)
	}
}
