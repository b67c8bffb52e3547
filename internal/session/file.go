package session

import (
	"fmt"
	"time"

	"github.com/illarion/pwvault/internal/pws3"
	"github.com/illarion/pwvault/internal/security"
	"github.com/illarion/pwvault/internal/vault"
)

const staleTempAge = time.Hour

// ReadVault decrypts the vault file at path without opening a session,
// for comparing or merging with another file. The caller should Wipe the
// result when done.
func ReadVault(path string, passphrase []byte) (*vault.Vault, error) {
	v, keys, _, err := readVault(path, passphrase)
	if err != nil {
		return nil, err
	}
	keys.Destroy()
	return v, nil
}

func readVault(path string, passphrase []byte) (*vault.Vault, *pws3.Keys, int, error) {
	pv, name, err := security.ForFile(path)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer pv.Close()

	data, err := pv.ReadFileInRoot(name)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("%w: %w", ErrIO, err)
	}

	f, keys, err := pws3.Decode(data, passphrase)
	if err != nil {
		return nil, nil, 0, err
	}
	defer f.Wipe()

	v, repaired := vault.FromFile(f)
	return v, keys, repaired, nil
}

// writeVault atomically replaces path with data after checking that data
// decodes with the stretched key
func writeVault(path string, data, stretched []byte) error {
	pv, name, err := security.ForFile(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer pv.Close()

	verify := func(written []byte) error {
		f, keys, err := pws3.DecodeWithKey(written, stretched)
		if err != nil {
			return err
		}
		f.Wipe()
		keys.Destroy()
		return nil
	}
	// Leftovers from a save that was killed midway
	_, _ = pv.CleanupTemp(staleTempAge)

	if err := pv.WriteFileAtomic(name, data, FilePermSecure, verify); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	return nil
}
