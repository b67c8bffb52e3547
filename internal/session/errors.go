package session

import (
	"errors"

	"github.com/illarion/pwvault/internal/pws3"
	"github.com/illarion/pwvault/internal/vault"
)

var (
	ErrWrongPassphrase = pws3.ErrWrongPassphrase
	ErrIntegrity       = pws3.ErrIntegrity
	ErrMalformed       = pws3.ErrMalformed
	ErrNotFound        = vault.ErrNotFound
	ErrDuplicateUUID   = vault.ErrDuplicateUUID

	ErrIO        = errors.New("vault file i/o failed")
	ErrBusy      = errors.New("vault is busy")
	ErrLocked    = errors.New("vault is locked")
	ErrNotLocked = errors.New("vault is already unlocked")
	ErrExists    = errors.New("vault file already exists")
)
