package session

import (
	"context"
	"iter"
	"time"

	"github.com/google/uuid"
	"github.com/illarion/pwvault/internal/vault"
)

// ListRecords returns copies of all records in the order given by spec
func (s *Session) ListRecords(spec vault.SortSpec) ([]vault.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkRead(); err != nil {
		return nil, err
	}
	return s.vault.Sorted(spec), nil
}

func (s *Session) GetRecord(id uuid.UUID) (vault.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkRead(); err != nil {
		return vault.Record{}, err
	}
	r, ok := s.vault.Get(id)
	if !ok {
		return vault.Record{}, ErrNotFound
	}
	return r, nil
}

// SearchRecords returns a lazy sequence of records whose title, username,
// url or notes contain query, ignoring case. Every range over the sequence
// takes a fresh snapshot of the records; if the session is locked by then
// the sequence is empty.
func (s *Session) SearchRecords(query string) (iter.Seq[vault.Record], error) {
	s.mu.Lock()
	err := s.checkRead()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	return func(yield func(vault.Record) bool) {
		s.mu.Lock()
		var snapshot []vault.Record
		if s.checkRead() == nil {
			snapshot = s.vault.Records()
		}
		s.mu.Unlock()

		for r := range vault.Search(snapshot, query) {
			if !yield(r) {
				return
			}
		}
	}, nil
}

// AddRecord stores a new record; a nil uuid is assigned a fresh one
func (s *Session) AddRecord(r vault.Record) (vault.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkWrite(); err != nil {
		return vault.Record{}, err
	}
	added, err := s.vault.Add(r)
	if err != nil {
		return vault.Record{}, err
	}
	s.markDirty()
	return added, nil
}

// UpdateRecord replaces the record with the same uuid. A new password
// moves the old one into the record's password history.
func (s *Session) UpdateRecord(r vault.Record) (vault.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkWrite(); err != nil {
		return vault.Record{}, err
	}
	updated, err := s.vault.Update(r)
	if err != nil {
		return vault.Record{}, err
	}
	s.markDirty()
	return updated, nil
}

func (s *Session) DeleteRecord(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkWrite(); err != nil {
		return err
	}
	if err := s.vault.Delete(id); err != nil {
		return err
	}
	s.markDirty()
	return nil
}

// DuplicateRecord copies a record under a new uuid with " (copy)"
// appended to its title
func (s *Session) DuplicateRecord(id uuid.UUID) (vault.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkWrite(); err != nil {
		return vault.Record{}, err
	}
	dup, err := s.vault.Duplicate(id)
	if err != nil {
		return vault.Record{}, err
	}
	s.markDirty()
	return dup, nil
}

// TOTP returns the one-time code of a record's two-factor key at the
// given time
func (s *Session) TOTP(id uuid.UUID, at time.Time) (string, error) {
	r, err := s.GetRecord(id)
	if err != nil {
		return "", err
	}
	defer clear(r.TOTPKey)
	return r.TOTP(at)
}

// Merge brings records from other into the session's vault
func (s *Session) Merge(other *vault.Vault, strategy vault.MergeStrategy) (vault.MergeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkWrite(); err != nil {
		return vault.MergeResult{}, err
	}
	res := s.vault.Merge(other, strategy)
	if res.Changed() {
		s.markDirty()
	}
	s.log.Info(context.Background(), "merged",
		"strategy", strategy.String(),
		"added", len(res.Added),
		"updated", len(res.Updated),
		"kept", len(res.Kept))
	return res, nil
}

// MergeFile decrypts another vault file and merges its records
func (s *Session) MergeFile(ctx context.Context, path string, passphrase []byte, strategy vault.MergeStrategy) (vault.MergeResult, error) {
	s.mu.Lock()
	err := s.checkWrite()
	s.mu.Unlock()
	if err != nil {
		return vault.MergeResult{}, err
	}

	other, err := ReadVault(path, passphrase)
	if err != nil {
		return vault.MergeResult{}, err
	}
	defer other.Wipe()

	s.log.Debug(ctx, "merging file", "other", path)
	return s.Merge(other, strategy)
}

// Diff describes how other differs from the session's vault
func (s *Session) Diff(other *vault.Vault, showPasswords bool) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkRead(); err != nil {
		return "", err
	}
	return s.vault.Diff(other, showPasswords), nil
}

// Info is public metadata about a session
type Info struct {
	Path       string
	State      State
	Dirty      bool
	VaultID    uuid.UUID
	Name       string
	Records    int
	Iterations uint32
	LastSave   time.Time
	AutoLockIn time.Duration // 0 when locked or auto-lock is disabled
}

func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireLocked()

	info := Info{Path: s.path, State: s.state, Dirty: s.dirty}
	if s.vault == nil || s.keys == nil {
		return info
	}
	info.VaultID = s.vault.Header.UUID
	info.Name = s.vault.Header.Name
	info.Records = s.vault.Len()
	info.Iterations = s.keys.Iterations
	info.LastSave = s.vault.Header.LastSave
	if s.autoLock > 0 && s.state == Unlocked {
		info.AutoLockIn = max(s.autoLock-s.now().Sub(s.lastActivity), 0)
	}
	return info
}
