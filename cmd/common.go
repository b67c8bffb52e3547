package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/illarion/pwvault/internal/crypto"
	"github.com/illarion/pwvault/internal/session"
	"github.com/illarion/pwvault/internal/vault"
)

var ErrAmbiguous = errors.New("ambiguous record reference")

// OpenVault unlocks the vault at path, exiting on failure. The returned
// session must be closed by the caller.
func OpenVault(ctx context.Context, env *Env, path string) *session.Session {
	s := env.NewSession(path)
	account := env.keyringAccount(path, uuid.Nil)

	password, source, err := GetPasswordWithRetry(ctx, env, "Enter passphrase: ", account, func(p []byte) error {
		return s.Unlock(ctx, p)
	})
	if err != nil {
		HandleError(err)
	}
	defer crypto.ClearBytes(password)

	env.recordVault(s)
	if source == SourcePrompt {
		OfferToSavePassword(env, env.keyringAccount(path, s.Info().VaultID), password)
	}
	return s
}

// ReadOther decrypts a second vault file for diff and merge
func ReadOther(ctx context.Context, env *Env, path string) *vault.Vault {
	var other *vault.Vault
	prompt := fmt.Sprintf("Enter passphrase for %s: ", path)
	password, _, err := GetPasswordWithRetry(ctx, env, prompt, env.keyringAccount(path, uuid.Nil), func(p []byte) error {
		v, err := session.ReadVault(path, p)
		if err != nil {
			return err
		}
		other = v
		return nil
	})
	if err != nil {
		HandleError(err)
	}
	crypto.ClearBytes(password)
	env.touchVault(path)
	return other
}

// SaveVault writes the session back to its file and refreshes the index
func SaveVault(ctx context.Context, env *Env, s *session.Session) {
	if err := s.Save(ctx); err != nil {
		HandleError(err)
	}
	env.recordVault(s)
}

// FindRecord resolves ref to a record. ref is a uuid, a full "group.title"
// path or a title; a title or path shared by several records is an error.
func FindRecord(s *session.Session, ref string) (vault.Record, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return s.GetRecord(id)
	}

	records, err := s.ListRecords(vault.SortSpec{})
	if err != nil {
		return vault.Record{}, err
	}

	var byPath, byTitle []vault.Record
	for _, r := range records {
		switch {
		case r.Path() == ref:
			byPath = append(byPath, r)
		case r.Title == ref:
			byTitle = append(byTitle, r)
		}
	}

	matches := byPath
	if len(matches) == 0 {
		matches = byTitle
	}
	switch len(matches) {
	case 0:
		return vault.Record{}, fmt.Errorf("%w: %s", session.ErrNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		ids := make([]string, len(matches))
		for i, r := range matches {
			ids[i] = r.UUID.String()
		}
		return vault.Record{}, fmt.Errorf("%w: %q matches %s", ErrAmbiguous, ref, strings.Join(ids, ", "))
	}
}

// FindRecordOrExit is like FindRecord but exits on error
func FindRecordOrExit(s *session.Session, ref string) vault.Record {
	r, err := FindRecord(s, ref)
	if err != nil {
		HandleError(err)
	}
	return r
}

// HandleError prints err in user terms, locks any open session and exits
func HandleError(err error) {
	closeSessions()
	switch {
	case errors.Is(err, session.ErrWrongPassphrase):
		fmt.Fprintf(os.Stderr, "Error: wrong passphrase\n")
	case errors.Is(err, session.ErrIntegrity):
		fmt.Fprintf(os.Stderr, "Error: vault failed its integrity check\n")
		fmt.Fprintf(os.Stderr, "The file is corrupt or has been tampered with\n")
	case errors.Is(err, session.ErrMalformed):
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		fmt.Fprintf(os.Stderr, "Not a readable Password Safe v3 file\n")
	case errors.Is(err, session.ErrExists):
		fmt.Fprintf(os.Stderr, "Error: vault file already exists\n")
		fmt.Fprintf(os.Stderr, "Use 'pwvault status' to see it\n")
	case errors.Is(err, session.ErrLocked):
		fmt.Fprintf(os.Stderr, "Error: vault is locked\n")
	case errors.Is(err, session.ErrBusy):
		fmt.Fprintf(os.Stderr, "Error: vault is busy, try again\n")
	case errors.Is(err, ErrAmbiguous):
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		fmt.Fprintf(os.Stderr, "Use the record uuid instead\n")
	case errors.Is(err, context.Canceled):
		fmt.Fprintf(os.Stderr, "Interrupted\n")
	default:
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
	os.Exit(1)
}
