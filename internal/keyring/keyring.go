// Package keyring caches vault passphrases in the OS keyring. Entries are
// keyed by the vault's header uuid, so a vault keeps its entry when the
// file is moved or renamed.
package keyring

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const serviceName = "pwvault"

// ErrNotFound is returned when no passphrase is stored for a vault
var ErrNotFound = keyring.ErrNotFound

// SavePassword stores a passphrase in the OS keyring
func SavePassword(vaultID string, password string) error {
	if vaultID == "" {
		return errors.New("empty vault id")
	}
	if err := keyring.Set(serviceName, vaultID, password); err != nil {
		return fmt.Errorf("keyring set: %w", err)
	}
	return nil
}

// GetPassword retrieves a passphrase from the OS keyring
func GetPassword(vaultID string) (string, error) {
	return keyring.Get(serviceName, vaultID)
}

// DeletePassword removes a passphrase from the OS keyring
func DeletePassword(vaultID string) error {
	return keyring.Delete(serviceName, vaultID)
}

// HasPassword checks if a passphrase is stored in the keyring
func HasPassword(vaultID string) bool {
	_, err := keyring.Get(serviceName, vaultID)
	return err == nil
}
